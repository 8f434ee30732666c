package monitor

import (
	"context"

	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/signal"
)

type message interface{ isMessage() }

type sellRequest struct {
	asset  string
	amount float64
}

type outcomeMsg struct{ execution.Outcome }

func (sellRequest) isMessage() {}
func (outcomeMsg) isMessage()  {}

// Sell queues a sell of amount tokens of asset. The owning account's row, if any, shows the
// resulting status once the monitor picks the request up. It returns false when the monitor
// has stopped or its inbox is full.
func (m *Monitor) Sell(asset string, amount float64) bool {
	return m.post(sellRequest{asset: asset, amount: amount})
}

// Notify forwards a finished trade task to the monitor.
func (m *Monitor) Notify(o execution.Outcome) {
	if !m.post(outcomeMsg{o}) {
		m.opts.Log.Debug().Str("task", o.ID.String()).Msg("outcome dropped, monitor not accepting")
	}
}

func (m *Monitor) post(msg message) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.inbox <- msg:
		return true
	default:
		return false
	}
}

func (m *Monitor) handle(ctx context.Context, msg message) {
	switch msg := msg.(type) {
	case sellRequest:
		m.handleSell(ctx, msg)
	case outcomeMsg:
		m.handleOutcome(msg.Outcome)
	}
}

func (m *Monitor) handleSell(ctx context.Context, req sellRequest) {
	info, known := m.assets[req.asset]
	if !known {
		venue, err := m.opts.Classifier.Classify(ctx, req.asset)
		if err != nil {
			m.opts.Log.Warn().Err(err).Str("asset", req.asset).Msg("classification failed, selling on default venue")
			venue = signal.DefaultVenue
		}
		info = assetInfo{venue: venue}
	}
	status := m.opts.Dispatcher.DispatchSell(info.account, req.asset, info.venue, req.amount)
	if row, ok := m.row(info.account); ok {
		row.Status = status
		m.publish()
	}
	m.opts.Log.Info().Str("asset", req.asset).Float64("amount", req.amount).Str("status", status).Msg("sell requested")
}

func (m *Monitor) handleOutcome(o execution.Outcome) {
	if o.Err == nil {
		return
	}
	account := o.Intent.Account
	if account == "" {
		account = m.assets[o.Intent.Asset].account
	}
	if row, ok := m.row(account); ok {
		row.Status = signal.FailedStatus(o.Intent.Side, o.Intent.Venue, o.Intent.Asset)
		m.publish()
	}
}
