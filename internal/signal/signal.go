// Package signal standardizes payloads shared between the feed, strategy and execution layers.
package signal

import (
	"fmt"
	"time"
)

// Post is one unit of feed content from a watched account.
type Post struct {
	AccountID string
	PostID    string
	Text      string
	Ts        time.Time
}

// Venue enumerates where a token trades.
type Venue int

const (
	// VenueJupiter routes through the Jupiter aggregator and is the fallback when nothing specific is detected.
	VenueJupiter Venue = iota
	// VenuePumpFun trades on the pump.fun bonding curve.
	VenuePumpFun
	// VenueRaydium trades on the Raydium pool a pump.fun token migrated to.
	VenueRaydium
)

// DefaultVenue is chosen when classification finds no specific venue.
const DefaultVenue = VenueJupiter

func (v Venue) String() string {
	switch v {
	case VenuePumpFun:
		return "PumpFun"
	case VenueRaydium:
		return "Raydium"
	default:
		return "Jupiter"
	}
}

// Side enumerates trade directions.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeIntent is a fully resolved instruction ready for dispatch.
type TradeIntent struct {
	Account     string // watched account id that produced the signal, empty for wallet-driven sells
	Asset       string
	Venue       Venue
	Side        Side
	Amount      float64 // SOL for buys, tokens for sells
	SlippagePct float64
	PriorityFee float64 // SOL
	Jito        bool
	JitoTip     float64 // SOL
}

func (i TradeIntent) String() string {
	return fmt.Sprintf("%s %s %s amount=%g", i.Side, i.Venue, i.Asset, i.Amount)
}

// UserInfo is the per-account status row shown by the console.
type UserInfo struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	LastPost  string `json:"last_post"`
	Status    string `json:"status"`
}

// Status texts surfaced to the console.
const (
	StatusInitializing = "Initializing..."
	StatusWaiting      = "Waiting for Tweet"
	StatusNoSignal     = "Waiting for new Tweet"
	StatusError        = "Error Occurred... Waiting for new Tweet"
	StatusSessionLost  = "Session rejected - restart required"
)

// FoundStatus is written when a buy is dispatched.
func FoundStatus(v Venue, asset string) string {
	return fmt.Sprintf("Found %s Token: %s", v, asset)
}

// SellingStatus is written when a sell is dispatched.
func SellingStatus(v Venue, asset string) string {
	return fmt.Sprintf("Selling %s Token: %s", v, asset)
}

// FailedStatus is written when a dispatched trade reports an engine error.
func FailedStatus(side Side, v Venue, asset string) string {
	verb := "Buy"
	if side == Sell {
		verb = "Sell"
	}
	return fmt.Sprintf("%s failed on %s: %s", verb, v, asset)
}

// SkippedStatus is written when risk limits refuse a dispatch.
func SkippedStatus(reason, asset string) string {
	return fmt.Sprintf("Skipped %s (%s)", asset, reason)
}

// Holding is one token position reported by the wallet.
type Holding struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	CostSOL  float64 `json:"cost_sol"`
	WorthSOL float64 `json:"worth_sol"`
	GainPct  float64 `json:"gain_pct"`
}

// WalletInfo is a point-in-time view of the operator wallet.
type WalletInfo struct {
	Pubkey   string    `json:"pubkey"`
	SOL      float64   `json:"sol"`
	Holdings []Holding `json:"holdings"`
	Updated  time.Time `json:"updated"`
}
