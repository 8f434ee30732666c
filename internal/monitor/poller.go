package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/tmc-solana/lytra/internal/metrics"
	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/twitter"
)

// poll runs one fetch cycle. Only a rejected session is returned as an error.
func (m *Monitor) poll(ctx context.Context, sess Session) error {
	start := time.Now()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	posts, err := sess.LatestTimeline(ctx, m.opts.TimelineCount, m.opts.Seen.Recent(m.opts.SeenHint))
	if err != nil {
		if errors.Is(err, twitter.ErrSessionInvalid) {
			metrics.PollsTotal.WithLabelValues("session_invalid").Inc()
			m.opts.Log.Error().Err(err).Msg("session rejected by platform")
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.PollsTotal.WithLabelValues("error").Inc()
		m.opts.Log.Warn().Err(err).Msg("timeline fetch failed, skipping cycle")
		return nil
	}
	metrics.PollsTotal.WithLabelValues("ok").Inc()
	if len(posts) == 0 {
		return nil
	}
	// every processed batch ends with a snapshot, even when no row changed
	defer func() {
		metrics.SeenPosts.Set(float64(m.opts.Seen.Len()))
		m.publish()
	}()

	if !m.seeded {
		for _, p := range posts {
			m.opts.Seen.Admit(p.PostID)
		}
		m.seeded = true
		metrics.PostsTotal.WithLabelValues("seeded").Add(float64(len(posts)))
		m.opts.Log.Info().Int("posts", len(posts)).Msg("seeded seen set from first fetch")
		return nil
	}

	for _, p := range posts {
		if !m.opts.Seen.Admit(p.PostID) {
			continue
		}
		row, watched := m.row(p.AccountID)
		if !watched {
			metrics.PostsTotal.WithLabelValues("unwatched").Inc()
			continue
		}
		m.process(ctx, row, p)
	}
	return nil
}

// process takes one admitted post from a watched account through extract, classify and dispatch.
func (m *Monitor) process(ctx context.Context, row *signal.UserInfo, p signal.Post) {
	log := m.opts.Log.With().Str("account", row.Username).Str("post", p.PostID).Logger()
	row.LastPost = p.Text

	asset, err := m.opts.Extractor.Extract(ctx, p.Text)
	if err != nil {
		metrics.PostsTotal.WithLabelValues("extract_error").Inc()
		log.Warn().Err(err).Msg("extraction failed")
		row.Status = signal.StatusError
		return
	}
	if asset == "" {
		metrics.PostsTotal.WithLabelValues("no_signal").Inc()
		row.Status = signal.StatusNoSignal
		return
	}

	venue, err := m.opts.Classifier.Classify(ctx, asset)
	if err != nil {
		metrics.PostsTotal.WithLabelValues("classify_error").Inc()
		log.Warn().Err(err).Str("asset", asset).Msg("classification failed")
		row.Status = signal.StatusError
		return
	}

	row.Status = m.opts.Dispatcher.DispatchBuy(p.AccountID, asset, venue)
	m.assets[asset] = assetInfo{account: p.AccountID, venue: venue}
	metrics.PostsTotal.WithLabelValues("dispatched").Inc()
	log.Info().Str("asset", asset).Stringer("venue", venue).Msg("signal dispatched")
}
