package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tmc-solana/lytra/internal/journal"
	"github.com/tmc-solana/lytra/internal/metrics"
	"github.com/tmc-solana/lytra/internal/signal"
)

// Outcome is the result of one finished trade task.
type Outcome struct {
	ID       uuid.UUID
	Intent   signal.TradeIntent
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Registry supervises trade tasks. Each task gets a uuid handle; finished tasks are
// journaled, counted and forwarded by the collector started with Run.
type Registry struct {
	mu          sync.Mutex
	running     map[uuid.UUID]signal.TradeIntent
	stopped     bool // collector gone; finished tasks record themselves
	outstanding atomic.Int64
	results     chan Outcome
	journal     journal.Recorder
	log         zerolog.Logger
}

func NewRegistry(rec journal.Recorder, log zerolog.Logger) *Registry {
	if rec == nil {
		rec = journal.Discard{}
	}
	return &Registry{
		running: make(map[uuid.UUID]signal.TradeIntent),
		results: make(chan Outcome, 256),
		journal: rec,
		log:     log,
	}
}

// Spawn runs fn in its own goroutine on a context that survives cancellation of ctx.
func (r *Registry) Spawn(ctx context.Context, intent signal.TradeIntent, fn func(context.Context) error) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.running[id] = intent
	r.mu.Unlock()
	r.outstanding.Add(1)
	metrics.TradesInFlight.Inc()
	metrics.DispatchesTotal.WithLabelValues(intent.Venue.String(), string(intent.Side)).Inc()

	taskCtx := context.WithoutCancel(ctx)
	go func() {
		started := time.Now()
		err := fn(taskCtx)
		out := Outcome{ID: id, Intent: intent, Err: err, Started: started, Duration: time.Since(started)}

		r.mu.Lock()
		delete(r.running, id)
		queued := false
		if !r.stopped {
			select {
			case r.results <- out:
				queued = true
			default:
			}
		}
		r.mu.Unlock()
		r.outstanding.Add(-1)
		metrics.TradesInFlight.Dec()

		if !queued {
			r.record(out)
		}
	}()
	return id
}

// Outstanding reports how many tasks are still running.
func (r *Registry) Outstanding() int { return int(r.outstanding.Load()) }

// Running returns the intents of tasks that have not finished yet.
func (r *Registry) Running() map[uuid.UUID]signal.TradeIntent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]signal.TradeIntent, len(r.running))
	for id, intent := range r.running {
		out[id] = intent
	}
	return out
}

// Run collects outcomes until ctx is cancelled, passing each to forward after it was recorded.
// On cancellation it records whatever is still buffered; tasks finishing later record themselves.
func (r *Registry) Run(ctx context.Context, forward func(Outcome)) error {
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.stopped = true
			r.mu.Unlock()
			for {
				select {
				case out := <-r.results:
					r.record(out)
				default:
					return nil
				}
			}
		case out := <-r.results:
			r.record(out)
			if forward != nil {
				forward(out)
			}
		}
	}
}

func (r *Registry) record(out Outcome) {
	entry := journal.Entry{
		TaskID:   out.ID.String(),
		Account:  out.Intent.Account,
		Asset:    out.Intent.Asset,
		Venue:    out.Intent.Venue.String(),
		Side:     string(out.Intent.Side),
		Amount:   out.Intent.Amount,
		OK:       out.Err == nil,
		Started:  out.Started,
		Duration: out.Duration,
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
		metrics.DispatchFailuresTotal.WithLabelValues(entry.Venue, entry.Side).Inc()
		r.log.Error().Err(out.Err).Str("task", entry.TaskID).Str("asset", entry.Asset).Str("venue", entry.Venue).Str("side", entry.Side).Msg("trade failed")
	} else {
		r.log.Info().Str("task", entry.TaskID).Str("asset", entry.Asset).Str("venue", entry.Venue).Str("side", entry.Side).Dur("took", out.Duration).Msg("trade submitted")
	}
	r.journal.Record(entry)
}
