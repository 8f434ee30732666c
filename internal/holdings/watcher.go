// Package holdings watches the wallet, reports gains against cost basis and triggers auto-sells.
package holdings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/position"
	"github.com/tmc-solana/lytra/internal/signal"
)

// Seller queues a sell of amount tokens of asset.
type Seller interface {
	Sell(asset string, amount float64) bool
}

// Sink receives wallet views and operator alerts.
type Sink interface {
	PublishWallet(signal.WalletInfo)
	Alert(string)
}

// TokenSource lists the wallet's tokens.
type TokenSource interface {
	Tokens(ctx context.Context, pubkey string) ([]Token, error)
}

// Options wires a Watcher.
type Options struct {
	Pubkey      string
	Balance     func(ctx context.Context) (float64, error) // native SOL balance
	Tokens      TokenSource
	Book        *position.Book
	Seller      Seller
	Sink        Sink
	AutoSell    bool
	SellAt      float64 // gain percent
	DefaultCost float64 // SOL cost assumed when the book has no entry
	Dust        float64
	Refresh     time.Duration
	Log         zerolog.Logger
}

// Watcher refreshes the wallet view on a fixed interval.
type Watcher struct {
	opts Options
	sol  float64

	mu   sync.Mutex
	sold map[string]struct{} // mints whose auto-sell is queued or done
}

func NewWatcher(opts Options) *Watcher {
	if opts.Refresh <= 0 {
		opts.Refresh = 5 * time.Second
	}
	return &Watcher{opts: opts, sold: make(map[string]struct{})}
}

// Run refreshes immediately and then every Refresh until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.Refresh)
	defer ticker.Stop()
	for {
		if _, err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
			w.opts.Log.Warn().Err(err).Msg("wallet refresh failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Refresh fetches balances, publishes the wallet view and fires any due auto-sells.
func (w *Watcher) Refresh(ctx context.Context) (signal.WalletInfo, error) {
	if w.opts.Balance != nil {
		sol, err := w.opts.Balance(ctx)
		if err != nil {
			w.opts.Log.Debug().Err(err).Msg("sol balance unavailable, keeping last value")
		} else {
			w.sol = sol
		}
	}
	tokens, err := w.opts.Tokens.Tokens(ctx, w.opts.Pubkey)
	if err != nil {
		return signal.WalletInfo{}, err
	}

	info := signal.WalletInfo{Pubkey: w.opts.Pubkey, SOL: w.sol, Updated: time.Now()}
	held := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t.Symbol == "SOL" || t.Amount < w.opts.Dust {
			continue
		}
		h := w.evaluate(t)
		info.Holdings = append(info.Holdings, h)
		held[h.Mint] = struct{}{}
		if w.opts.Book != nil {
			w.opts.Book.Observe(h.Mint, h.Amount)
		}
		w.maybeSell(h)
	}
	// a holding that left the wallet may be auto-sold again if bought back
	w.mu.Lock()
	for mint := range w.sold {
		if _, ok := held[mint]; !ok {
			delete(w.sold, mint)
		}
	}
	w.mu.Unlock()
	if w.opts.Sink != nil {
		w.opts.Sink.PublishWallet(info)
	}
	return info, nil
}

func (w *Watcher) evaluate(t Token) signal.Holding {
	cost := decimal.NewFromFloat(w.opts.DefaultCost)
	if w.opts.Book != nil {
		if c, ok := w.opts.Book.Cost(t.Mint); ok {
			cost = c
		}
	}
	worth := decimal.NewFromFloat(t.Amount).Mul(decimal.NewFromFloat(t.PriceSOL))
	gain := decimal.Zero
	if cost.IsPositive() {
		gain = worth.Div(cost).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	}
	return signal.Holding{
		Mint:     t.Mint,
		Symbol:   t.Symbol,
		Amount:   t.Amount,
		CostSOL:  cost.InexactFloat64(),
		WorthSOL: worth.Round(9).InexactFloat64(),
		GainPct:  gain.Round(2).InexactFloat64(),
	}
}

func (w *Watcher) maybeSell(h signal.Holding) {
	if !w.opts.AutoSell || w.opts.Seller == nil || h.GainPct < w.opts.SellAt {
		return
	}
	w.mu.Lock()
	_, done := w.sold[h.Mint]
	if !done {
		w.sold[h.Mint] = struct{}{}
	}
	w.mu.Unlock()
	if done {
		return
	}
	if !w.opts.Seller.Sell(h.Mint, h.Amount) {
		w.rearm(h.Mint)
		w.opts.Log.Warn().Str("asset", h.Mint).Msg("auto-sell not accepted, will retry next refresh")
		return
	}
	w.opts.Log.Info().Str("asset", h.Mint).Float64("gain_pct", h.GainPct).Msg("auto-sell triggered")
	if w.opts.Sink != nil {
		w.opts.Sink.Alert(fmt.Sprintf("Auto-sell %s at %.2f%%", h.Symbol, h.GainPct))
	}
}

// Notify re-arms auto-sell for a mint whose sell task failed, so the next refresh
// above the threshold tries again.
func (w *Watcher) Notify(o execution.Outcome) {
	if o.Err == nil || o.Intent.Side != signal.Sell {
		return
	}
	w.rearm(o.Intent.Asset)
	w.opts.Log.Warn().Err(o.Err).Str("asset", o.Intent.Asset).Msg("sell failed, auto-sell re-armed")
}

func (w *Watcher) rearm(mint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sold, mint)
}
