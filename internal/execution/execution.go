// Package execution dispatches trade intents to venue engines as supervised background tasks.
package execution

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tmc-solana/lytra/internal/signal"
)

// BuyParams carries the fee knobs of a buy.
type BuyParams struct {
	PriorityFeeSOL float64
	Jito           bool
	JitoTipSOL     float64
}

// SellParams carries the fee knobs of a sell.
type SellParams struct {
	PriorityFeeSOL float64
	Jito           bool
	JitoTipSOL     float64
}

// Engine executes swaps on one venue. Both calls block until the transaction was
// submitted or failed.
type Engine interface {
	Buy(ctx context.Context, wallet solana.PrivateKey, mint string, amountSOL, slippagePct float64, p BuyParams) error
	Sell(ctx context.Context, wallet solana.PrivateKey, mint string, amountTokens, slippagePct float64, p SellParams) error
}

// Engines maps venues to engines. Venues without an entry use the DefaultVenue engine.
type Engines map[signal.Venue]Engine

// For returns the engine serving venue.
func (e Engines) For(venue signal.Venue) (Engine, error) {
	if eng, ok := e[venue]; ok && eng != nil {
		return eng, nil
	}
	if eng, ok := e[signal.DefaultVenue]; ok && eng != nil {
		return eng, nil
	}
	return nil, fmt.Errorf("no engine for venue %s", venue)
}

// Execute runs intent on the matching engine.
func (e Engines) Execute(ctx context.Context, wallet solana.PrivateKey, intent signal.TradeIntent) error {
	eng, err := e.For(intent.Venue)
	if err != nil {
		return err
	}
	switch intent.Side {
	case signal.Buy:
		return eng.Buy(ctx, wallet, intent.Asset, intent.Amount, intent.SlippagePct, BuyParams{
			PriorityFeeSOL: intent.PriorityFee, Jito: intent.Jito, JitoTipSOL: intent.JitoTip,
		})
	case signal.Sell:
		return eng.Sell(ctx, wallet, intent.Asset, intent.Amount, intent.SlippagePct, SellParams{
			PriorityFeeSOL: intent.PriorityFee, Jito: intent.Jito, JitoTipSOL: intent.JitoTip,
		})
	default:
		return fmt.Errorf("unknown side %q", intent.Side)
	}
}
