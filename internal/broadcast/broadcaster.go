package broadcast

import "github.com/tmc-solana/lytra/internal/signal"

// Frame types published to websocket clients.
const (
	TypeUsers  = "users"
	TypeWallet = "wallet"
	TypeAlert  = "alert"
)

// Broadcaster carries account rows, wallet views and alerts from their producers to the console.
type Broadcaster struct {
	users  *Latest[[]signal.UserInfo]
	wallet *Latest[signal.WalletInfo]
	alerts chan string
	hub    *Hub
}

// New returns a broadcaster. hub may be nil.
func New(hub *Hub) *Broadcaster {
	return &Broadcaster{
		users:  NewLatest[[]signal.UserInfo](),
		wallet: NewLatest[signal.WalletInfo](),
		alerts: make(chan string, 16),
		hub:    hub,
	}
}

// PublishUsers publishes a copy of rows.
func (b *Broadcaster) PublishUsers(rows []signal.UserInfo) {
	snap := make([]signal.UserInfo, len(rows))
	copy(snap, rows)
	b.users.Publish(snap)
	if b.hub != nil {
		b.hub.Publish(TypeUsers, snap)
	}
}

func (b *Broadcaster) PublishWallet(w signal.WalletInfo) {
	b.wallet.Publish(w)
	if b.hub != nil {
		b.hub.Publish(TypeWallet, w)
	}
}

// Alert queues a one-off message for the operator. Alerts are dropped when nobody drains them.
func (b *Broadcaster) Alert(msg string) {
	select {
	case b.alerts <- msg:
	default:
	}
	if b.hub != nil {
		b.hub.Publish(TypeAlert, msg)
	}
}

func (b *Broadcaster) Users() *Latest[[]signal.UserInfo] { return b.users }

func (b *Broadcaster) Wallet() *Latest[signal.WalletInfo] { return b.wallet }

func (b *Broadcaster) Alerts() <-chan string { return b.alerts }
