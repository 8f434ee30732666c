// Package reconcile makes the operator's follow list equal to the watch list.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// FollowAPI is the slice of the platform session the reconciler needs.
type FollowAPI interface {
	Following(ctx context.Context, userID string) ([]string, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
}

// Result summarises one reconciliation pass.
type Result struct {
	Unfollowed int
	Followed   int
	Failures   int
}

// Reconciler paces follow and unfollow calls through a token bucket.
type Reconciler struct {
	api     FollowAPI
	limiter *rate.Limiter
	pause   time.Duration
	log     zerolog.Logger
	sleep   func(context.Context, time.Duration) error
}

// New builds a reconciler. every is the minimum spacing between write calls and
// pause the gap between the unfollow and follow phases.
func New(api FollowAPI, every, pause time.Duration, log zerolog.Logger) *Reconciler {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Reconciler{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		pause:   pause,
		log:     log,
		sleep:   sleepCtx,
	}
}

// Reconcile unfollows every account outside desired, then follows every desired account.
// Individual follow/unfollow failures are logged and counted but never abort the pass.
// Only a failure to list the current follow set is returned.
func (r *Reconciler) Reconcile(ctx context.Context, operatorID string, desired []string) (Result, error) {
	var res Result
	current, err := r.api.Following(ctx, operatorID)
	if err != nil {
		return res, fmt.Errorf("fetch following: %w", err)
	}

	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}
	for _, id := range current {
		if _, keep := want[id]; keep {
			continue
		}
		if err := r.call(ctx, func() error { return r.api.Unfollow(ctx, id) }); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failures++
			r.log.Warn().Err(err).Str("account_id", id).Msg("unfollow failed")
			continue
		}
		res.Unfollowed++
		r.log.Debug().Str("account_id", id).Msg("unfollowed")
	}

	if err := r.sleep(ctx, r.pause); err != nil {
		return res, err
	}

	for _, id := range desired {
		if err := r.call(ctx, func() error { return r.api.Follow(ctx, id) }); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failures++
			r.log.Warn().Err(err).Str("account_id", id).Msg("follow failed")
			continue
		}
		res.Followed++
	}
	r.log.Info().Int("unfollowed", res.Unfollowed).Int("followed", res.Followed).Int("failures", res.Failures).Msg("follow list reconciled")
	return res, nil
}

func (r *Reconciler) call(ctx context.Context, fn func() error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
