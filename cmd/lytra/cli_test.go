package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc-solana/lytra/internal/config"
	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/strategy"
)

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitThenShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "", "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = execute(t, "", "--config", path, "config", "init")
	require.Error(t, err)

	out, err = execute(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy: 0.0100 SOL")
	assert.Contains(t, out, "Auto-sell off")
}

func TestConfigEditSavesAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(path, config.Default()))

	answers := strings.Join([]string{
		"@alice, bob", // accounts
		"0.25",        // buy amount
		"",            // buy slippage kept
		"oops",        // buy priority fee, invalid so kept
		"y",           // buy jito
		"0.001",       // jito tip
		"",            // sell slippage
		"",            // sell priority fee
		"n",           // sell jito
		"y",           // auto-sell
		"50",          // sell at
	}, "\n") + "\n"

	out, err := execute(t, answers, "--config", path, "config", "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid number")
	assert.Contains(t, out, "config saved")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Users)
	assert.Equal(t, 0.25, cfg.Buy.AmountSOL)
	assert.Equal(t, 15.0, cfg.Buy.SlippagePct)
	assert.Equal(t, 0.0005, cfg.Buy.PriorityFeeSOL)
	assert.True(t, cfg.Buy.Jito)
	assert.Equal(t, 0.001, cfg.Buy.JitoTipSOL)
	assert.False(t, cfg.Sell.Jito)
	assert.True(t, cfg.Sell.AutoSell)
	assert.Equal(t, 50.0, cfg.Sell.SellAt)
}

func TestPrompterKeepsCurrentOnEOF(t *testing.T) {
	var out bytes.Buffer
	p := &prompter{in: bufio.NewReader(strings.NewReader("")), out: &out}
	assert.Equal(t, 1.5, p.float("x", 1.5))
	assert.True(t, p.bool("y", true))
	assert.Equal(t, []string{"a"}, p.list("z", []string{"a"}))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(path, config.Default()))
	t.Setenv("LYTRA_TWITTER_USERNAME", "")
	t.Setenv("LYTRA_TWITTER_PASSWORD", "")

	_, err := execute(t, "", "--config", path, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")
}

func TestParseVenue(t *testing.T) {
	for in, want := range map[string]signal.Venue{
		"jupiter": signal.VenueJupiter,
		"Pump":    signal.VenuePumpFun,
		"raydium": signal.VenueRaydium,
	} {
		got, err := parseVenue(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseVenue("orca")
	assert.Error(t, err)
}

func TestResolveVenueClassifiesWhenNotExplicit(t *testing.T) {
	classifier := func() (strategy.Classifier, error) {
		return strategy.StaticClassifier{Venue: signal.VenueRaydium}, nil
	}
	v, err := resolveVenue(context.Background(), "", classifier, "Mint")
	require.NoError(t, err)
	assert.Equal(t, signal.VenueRaydium, v)

	v, err = resolveVenue(context.Background(), "pumpfun", func() (strategy.Classifier, error) {
		return nil, errors.New("not called")
	}, "Mint")
	require.NoError(t, err)
	assert.Equal(t, signal.VenuePumpFun, v)
}

func TestWarnInFlightListsUnfinishedTrades(t *testing.T) {
	reg := execution.NewRegistry(nil, zerolog.Nop())
	var out bytes.Buffer
	warnInFlight(&out, reg)
	assert.Empty(t, out.String())

	release := make(chan struct{})
	defer close(release)
	intent := signal.TradeIntent{Asset: "MINT", Venue: signal.VenuePumpFun, Side: signal.Sell, Amount: 42}
	id := reg.Spawn(context.Background(), intent, func(context.Context) error {
		<-release
		return nil
	})

	warnInFlight(&out, reg)
	assert.Contains(t, out.String(), "1 trade(s) still in flight")
	assert.Contains(t, out.String(), id.String())
	assert.Contains(t, out.String(), intent.String())
}
