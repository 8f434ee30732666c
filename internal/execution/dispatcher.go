package execution

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/tmc-solana/lytra/internal/position"
	"github.com/tmc-solana/lytra/internal/risk"
	"github.com/tmc-solana/lytra/internal/signal"
)

// Settings is the fee and size profile applied to one trade side.
type Settings struct {
	AmountSOL      float64 // buys only
	SlippagePct    float64
	PriorityFeeSOL float64
	Jito           bool
	JitoTipSOL     float64
}

// Options wires a Dispatcher.
type Options struct {
	Engines  Engines
	Wallet   solana.PrivateKey
	Buy      Settings
	Sell     Settings
	Limits   risk.Limits
	Registry *Registry
	Book     *position.Book // optional cost-basis tracking
	Log      zerolog.Logger
}

// Dispatcher turns classified assets into trade tasks and returns immediately.
type Dispatcher struct {
	ctx  context.Context
	opts Options
}

// NewDispatcher returns a dispatcher whose tasks inherit values, but not cancellation, from ctx.
func NewDispatcher(ctx context.Context, opts Options) *Dispatcher {
	return &Dispatcher{ctx: ctx, opts: opts}
}

// DispatchBuy spawns a buy of the configured amount and returns the status text for the account row.
func (d *Dispatcher) DispatchBuy(account, asset string, venue signal.Venue) string {
	buy := d.opts.Buy
	intent := signal.TradeIntent{
		Account: account, Asset: asset, Venue: venue, Side: signal.Buy,
		Amount: buy.AmountSOL, SlippagePct: buy.SlippagePct,
		PriorityFee: buy.PriorityFeeSOL, Jito: buy.Jito, JitoTip: buy.JitoTipSOL,
	}
	if reason := d.opts.Limits.Check(true, intent.Amount, d.opts.Registry.Outstanding()); reason != "" {
		d.opts.Log.Warn().Str("asset", asset).Str("reason", reason).Msg("buy skipped")
		return signal.SkippedStatus(reason, asset)
	}
	d.spawn(intent)
	return signal.FoundStatus(venue, asset)
}

// DispatchSell spawns a sell of amount tokens and returns the status text.
func (d *Dispatcher) DispatchSell(account, asset string, venue signal.Venue, amount float64) string {
	sell := d.opts.Sell
	intent := signal.TradeIntent{
		Account: account, Asset: asset, Venue: venue, Side: signal.Sell,
		Amount: amount, SlippagePct: sell.SlippagePct,
		PriorityFee: sell.PriorityFeeSOL, Jito: sell.Jito, JitoTip: sell.JitoTipSOL,
	}
	if reason := d.opts.Limits.Check(false, 0, d.opts.Registry.Outstanding()); reason != "" {
		d.opts.Log.Warn().Str("asset", asset).Str("reason", reason).Msg("sell skipped")
		return signal.SkippedStatus(reason, asset)
	}
	d.spawn(intent)
	return signal.SellingStatus(venue, asset)
}

func (d *Dispatcher) spawn(intent signal.TradeIntent) {
	id := d.opts.Registry.Spawn(d.ctx, intent, func(ctx context.Context) error {
		if err := d.opts.Engines.Execute(ctx, d.opts.Wallet, intent); err != nil {
			return err
		}
		if book := d.opts.Book; book != nil {
			switch intent.Side {
			case signal.Buy:
				book.Open(intent.Asset, intent.Amount)
			case signal.Sell:
				book.Close(intent.Asset)
			}
		}
		return nil
	})
	d.opts.Log.Info().Str("task", id.String()).Stringer("intent", intent).Msg("trade dispatched")
}
