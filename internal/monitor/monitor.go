// Package monitor runs the feed pipeline: login, follow-list reconciliation, then a
// fixed-cadence poll loop that turns new posts into dispatched trades.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmc-solana/lytra/internal/dedup"
	"github.com/tmc-solana/lytra/internal/reconcile"
	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/strategy"
	"github.com/tmc-solana/lytra/internal/twitter"
)

// Session is the authenticated platform surface the pipeline uses.
type Session interface {
	reconcile.FollowAPI
	UserID(ctx context.Context, handle string) (string, error)
	LatestTimeline(ctx context.Context, count int, seen []string) ([]signal.Post, error)
}

// Dispatcher spawns trades and returns the status text for the account row.
type Dispatcher interface {
	DispatchBuy(account, asset string, venue signal.Venue) string
	DispatchSell(account, asset string, venue signal.Venue, amount float64) string
}

// Publisher receives full account-row snapshots.
type Publisher interface {
	PublishUsers([]signal.UserInfo)
}

// Options wires a Monitor.
type Options struct {
	Login          func(ctx context.Context) (Session, error)
	Handles        []string
	OperatorHandle string
	Extractor      strategy.Extractor
	Classifier     strategy.Classifier
	Dispatcher     Dispatcher
	Seen           dedup.Admitter
	Publisher      Publisher
	PollInterval   time.Duration
	FollowPause    time.Duration
	FollowRate     time.Duration
	SeenHint       int
	TimelineCount  int
	Log            zerolog.Logger
}

type assetInfo struct {
	account string
	venue   signal.Venue
}

// Monitor owns every account row. Other goroutines talk to it through its inbox only.
type Monitor struct {
	opts   Options
	inbox  chan message
	done   chan struct{}
	users  []signal.UserInfo
	index  map[string]int // account id -> row
	assets map[string]assetInfo
	seeded bool
}

// New builds a monitor with rows for every handle in watch-list order.
func New(opts Options) *Monitor {
	if opts.Seen == nil {
		opts.Seen = dedup.New(opts.SeenHint)
	}
	if opts.TimelineCount <= 0 {
		opts.TimelineCount = 20
	}
	users := make([]signal.UserInfo, len(opts.Handles))
	for i, h := range opts.Handles {
		users[i] = signal.UserInfo{Username: h, Status: signal.StatusInitializing}
	}
	return &Monitor{
		opts:   opts,
		inbox:  make(chan message, 256),
		done:   make(chan struct{}),
		users:  users,
		index:  make(map[string]int),
		assets: make(map[string]assetInfo),
	}
}

// Run blocks until ctx is cancelled or the session becomes unusable. Login failures and a
// rejected session are returned; every other failure is logged and the loop carries on.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.done)
	log := m.opts.Log
	m.publish()

	sess, err := m.opts.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Info().Msg("logged in")

	desired, err := m.resolve(ctx, sess)
	if err != nil {
		return err
	}
	if err := m.reconcile(ctx, sess, desired); err != nil {
		return err
	}
	for i := range m.users {
		if m.users[i].AccountID != "" {
			m.users[i].Status = signal.StatusWaiting
		}
	}
	m.publish()

	for {
		start := time.Now()
		m.drain(ctx)
		if err := m.poll(ctx, sess); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.sessionLost()
			return err
		}
		if err := m.wait(ctx, nextDelay(m.opts.PollInterval, time.Since(start))); err != nil {
			return nil
		}
	}
}

// nextDelay is the sleep that keeps cycle starts target apart without compounding overruns.
func nextDelay(target, elapsed time.Duration) time.Duration {
	if elapsed >= target {
		return 0
	}
	return target - elapsed
}

func (m *Monitor) resolve(ctx context.Context, sess Session) ([]string, error) {
	var desired []string
	for i, handle := range m.opts.Handles {
		id, err := sess.UserID(ctx, handle)
		if err != nil {
			if errors.Is(err, twitter.ErrSessionInvalid) || ctx.Err() != nil {
				return nil, err
			}
			m.opts.Log.Error().Err(err).Str("handle", handle).Msg("cannot resolve watched account")
			m.users[i].Status = signal.StatusError
			continue
		}
		m.users[i].AccountID = id
		m.index[id] = i
		desired = append(desired, id)
	}
	return desired, nil
}

func (m *Monitor) reconcile(ctx context.Context, sess Session, desired []string) error {
	operator := m.opts.OperatorHandle
	if operator == "" {
		m.opts.Log.Warn().Msg("no operator handle configured, follow list left as is")
		return nil
	}
	operatorID, err := sess.UserID(ctx, operator)
	if err == nil {
		_, err = reconcile.New(sess, m.opts.FollowRate, m.opts.FollowPause, m.opts.Log).Reconcile(ctx, operatorID, desired)
	}
	if err != nil {
		if errors.Is(err, twitter.ErrSessionInvalid) || ctx.Err() != nil {
			return err
		}
		m.opts.Log.Warn().Err(err).Msg("follow list reconciliation failed, continuing")
	}
	return nil
}

// wait sleeps for d while serving the inbox.
func (m *Monitor) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case msg := <-m.inbox:
			m.handle(ctx, msg)
		}
	}
}

func (m *Monitor) drain(ctx context.Context) {
	for {
		select {
		case msg := <-m.inbox:
			m.handle(ctx, msg)
		default:
			return
		}
	}
}

func (m *Monitor) sessionLost() {
	for i := range m.users {
		m.users[i].Status = signal.StatusSessionLost
	}
	m.publish()
}

func (m *Monitor) publish() {
	if m.opts.Publisher != nil {
		m.opts.Publisher.PublishUsers(m.users)
	}
}

func (m *Monitor) row(account string) (*signal.UserInfo, bool) {
	i, ok := m.index[account]
	if !ok {
		return nil, false
	}
	return &m.users[i], true
}
