package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc-solana/lytra/internal/broadcast"
	"github.com/tmc-solana/lytra/internal/dedup"
	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/holdings"
	"github.com/tmc-solana/lytra/internal/journal"
	"github.com/tmc-solana/lytra/internal/monitor"
	"github.com/tmc-solana/lytra/internal/position"
	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/strategy"
)

const mint = "4QPp2fKk6Ta1Q1vKZSCyZCRWir5BY62r6CWEYvsUpump"

type platform struct {
	mu      sync.Mutex
	follows []string
	polls   int
}

func (p *platform) UserID(_ context.Context, handle string) (string, error) {
	return map[string]string{"alice": "1", "me": "99"}[handle], nil
}

func (p *platform) Following(context.Context, string) ([]string, error) { return nil, nil }

func (p *platform) Follow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follows = append(p.follows, id)
	return nil
}

func (p *platform) Unfollow(context.Context, string) error { return nil }

func (p *platform) LatestTimeline(context.Context, int, []string) ([]signal.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	old := signal.Post{AccountID: "1", PostID: "100", Text: "gm " + mint, Ts: time.Now()}
	if p.polls == 1 {
		return []signal.Post{old}, nil
	}
	fresh := signal.Post{AccountID: "1", PostID: "101", Text: "aping " + mint + " now", Ts: time.Now()}
	return []signal.Post{fresh, old}, nil
}

type engine struct {
	mu    sync.Mutex
	sides []signal.Side
}

func (e *engine) record(side signal.Side) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sides = append(e.sides, side)
	return nil
}

func (e *engine) Buy(context.Context, solana.PrivateKey, string, float64, float64, execution.BuyParams) error {
	return e.record(signal.Buy)
}

func (e *engine) Sell(context.Context, solana.PrivateKey, string, float64, float64, execution.SellParams) error {
	return e.record(signal.Sell)
}

func (e *engine) calls() []signal.Side {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]signal.Side(nil), e.sides...)
}

func (e *engine) bought() bool {
	for _, s := range e.calls() {
		if s == signal.Buy {
			return true
		}
	}
	return false
}

// tokens reports the bought token at a 30% gain once the buy has gone through.
type tokens struct{ eng *engine }

func (t tokens) Tokens(context.Context, string) ([]holdings.Token, error) {
	if !t.eng.bought() {
		return nil, nil
	}
	return []holdings.Token{{Mint: mint, Symbol: "DOG", Amount: 1000, PriceSOL: 0.000013}}, nil
}

func TestPostedMintIsBoughtThenAutoSold(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log := zerolog.Nop()

	journalPath := filepath.Join(t.TempDir(), "trades.jsonl")
	rec, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer rec.Close()

	eng := &engine{}
	book := position.NewBook()
	registry := execution.NewRegistry(rec, log)
	dispatcher := execution.NewDispatcher(ctx, execution.Options{
		Engines:  execution.Engines{signal.VenuePumpFun: eng},
		Buy:      execution.Settings{AmountSOL: 0.01, SlippagePct: 15},
		Sell:     execution.Settings{SlippagePct: 15},
		Registry: registry,
		Book:     book,
		Log:      log,
	})
	extractor, _, err := strategy.Build(strategy.Params{Extractor: "mint_direct", Classifier: "static", Client: http.DefaultClient})
	require.NoError(t, err)

	bus := broadcast.New(nil)
	plat := &platform{}
	mon := monitor.New(monitor.Options{
		Login:          func(context.Context) (monitor.Session, error) { return plat, nil },
		Handles:        []string{"alice"},
		OperatorHandle: "me",
		Extractor:      extractor,
		Classifier:     strategy.StaticClassifier{Venue: signal.VenuePumpFun},
		Dispatcher:     dispatcher,
		Seen:           dedup.Build(0, 0, 200),
		Publisher:      bus,
		PollInterval:   10 * time.Millisecond,
		FollowPause:    time.Millisecond,
		FollowRate:     time.Millisecond,
		Log:            log,
	})
	watcher := holdings.NewWatcher(holdings.Options{
		Pubkey:      "Wa11et",
		Tokens:      tokens{eng: eng},
		Book:        book,
		Seller:      mon,
		Sink:        bus,
		AutoSell:    true,
		SellAt:      20,
		DefaultCost: 0.01,
		Refresh:     10 * time.Millisecond,
		Log:         log,
	})

	var wg sync.WaitGroup
	for _, run := range []func(context.Context) error{
		mon.Run,
		func(ctx context.Context) error { return registry.Run(ctx, mon.Notify) },
		watcher.Run,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = run(ctx)
		}()
	}

	require.Eventually(t, func() bool {
		return len(readJournal(t, journalPath)) == 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, registry.Outstanding())

	var rows []signal.UserInfo
	require.Eventually(t, func() bool {
		if r, ok := bus.Users().Poll(); ok {
			rows = r
		}
		return len(rows) == 1 && rows[0].Status == signal.SellingStatus(signal.VenuePumpFun, mint)
	}, time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()

	assert.Equal(t, []signal.Side{signal.Buy, signal.Sell}, eng.calls())
	assert.Equal(t, []string{"1"}, plat.follows)
	_, open := book.Cost(mint)
	assert.False(t, open, "sold position leaves the book")

	entries := readJournal(t, journalPath)
	require.Len(t, entries, 2)
	assert.Equal(t, "BUY", entries[0].Side)
	assert.Equal(t, "SELL", entries[1].Side)
	for _, e := range entries {
		assert.True(t, e.OK)
		assert.Equal(t, "1", e.Account)
		assert.Equal(t, mint, e.Asset)
	}
}

func readJournal(t *testing.T, path string) []journal.Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var entries []journal.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e journal.Entry
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}
