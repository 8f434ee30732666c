package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFollowAPI struct {
	current    []string
	listErr    error
	failFollow map[string]bool
	calls      []string
}

func (f *fakeFollowAPI) Following(context.Context, string) ([]string, error) {
	return f.current, f.listErr
}

func (f *fakeFollowAPI) Follow(_ context.Context, id string) error {
	f.calls = append(f.calls, "follow:"+id)
	if f.failFollow[id] {
		return errors.New("rate limited")
	}
	return nil
}

func (f *fakeFollowAPI) Unfollow(_ context.Context, id string) error {
	f.calls = append(f.calls, "unfollow:"+id)
	return nil
}

func newTestReconciler(api FollowAPI, paused *time.Duration) *Reconciler {
	r := New(api, 0, 2*time.Second, zerolog.Nop())
	r.sleep = func(_ context.Context, d time.Duration) error {
		*paused = d
		return nil
	}
	return r
}

func TestReconcileUnfollowsThenFollows(t *testing.T) {
	api := &fakeFollowAPI{current: []string{"1", "9"}}
	var paused time.Duration
	res, err := newTestReconciler(api, &paused).Reconcile(context.Background(), "op", []string{"1", "2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"unfollow:9", "follow:1", "follow:2"}, api.calls)
	assert.Equal(t, Result{Unfollowed: 1, Followed: 2}, res)
	assert.Equal(t, 2*time.Second, paused)
}

func TestReconcileContinuesPastFailures(t *testing.T) {
	api := &fakeFollowAPI{failFollow: map[string]bool{"1": true}}
	var paused time.Duration
	res, err := newTestReconciler(api, &paused).Reconcile(context.Background(), "op", []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"follow:1", "follow:2"}, api.calls)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, 1, res.Followed)
}

func TestReconcileReturnsListFailure(t *testing.T) {
	api := &fakeFollowAPI{listErr: errors.New("down")}
	var paused time.Duration
	_, err := newTestReconciler(api, &paused).Reconcile(context.Background(), "op", []string{"1"})
	assert.ErrorContains(t, err, "fetch following")
	assert.Empty(t, api.calls)
}

func TestReconcileStopsOnCancel(t *testing.T) {
	api := &fakeFollowAPI{current: []string{"9"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(api, time.Hour, 0, zerolog.Nop())
	_, err := r.Reconcile(ctx, "op", []string{"1"})
	assert.ErrorIs(t, err, context.Canceled)
}
