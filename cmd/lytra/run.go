package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	ossignal "os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tmc-solana/lytra/internal/broadcast"
	"github.com/tmc-solana/lytra/internal/config"
	"github.com/tmc-solana/lytra/internal/console"
	"github.com/tmc-solana/lytra/internal/dedup"
	dex "github.com/tmc-solana/lytra/internal/dex/solana"
	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/holdings"
	"github.com/tmc-solana/lytra/internal/journal"
	"github.com/tmc-solana/lytra/internal/metrics"
	"github.com/tmc-solana/lytra/internal/monitor"
	"github.com/tmc-solana/lytra/internal/position"
	"github.com/tmc-solana/lytra/internal/risk"
	"github.com/tmc-solana/lytra/internal/twitter"
	"github.com/tmc-solana/lytra/internal/util"
)

var errOperatorQuit = errors.New("operator quit")

func newRunCmd(root *rootOptions) *cobra.Command {
	var headless bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in, follow the watch list and trade on posted token mints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath, true)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, headless, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "log to stdout instead of showing the console")
	return cmd
}

func run(parent context.Context, cfg *config.Config, headless bool, stderr io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := ossignal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logs := util.NewLogBuffer(500)
	sinks := []io.Writer{util.ConsoleWriter(logs)}
	if headless {
		sinks = append(sinks, util.ConsoleWriter(os.Stdout))
	}
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, f)
	}
	log := util.NewLoggerTo(zerolog.MultiLevelWriter(sinks...), cfg.App.LogLevel)

	var hub *broadcast.Hub
	if cfg.App.BroadcastWS {
		hub = broadcast.NewHub(log)
	}
	bus := broadcast.New(hub)
	book := position.NewBook()
	if cfg.App.MetricsAddr != "" {
		extra := map[string]http.Handler{"/positions": book}
		if hub != nil {
			extra["/ws"] = hub
		}
		srv := metrics.Serve(cfg.App.MetricsAddr, extra)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.App.MetricsAddr).Bool("ws", hub != nil).Msg("metrics listening")
	}

	ch, err := buildChain(cfg)
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}
	extractor, classifier, err := buildStrategy(cfg)
	if err != nil {
		return err
	}

	var rec journal.Recorder = journal.Discard{}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		rec = j
	}

	registry := execution.NewRegistry(rec, log)
	dispatcher := execution.NewDispatcher(ctx, execution.Options{
		Engines:  ch.engines,
		Wallet:   ch.wallet,
		Buy:      buySettings(cfg),
		Sell:     sellSettings(cfg),
		Limits:   risk.Limits{MaxBuySOL: cfg.Risk.MaxBuySOL, MaxInFlight: cfg.Risk.MaxInFlight},
		Registry: registry,
		Book:     book,
		Log:      log,
	})

	client, err := twitter.NewClient(twitter.Options{
		APIBase: cfg.Twitter.APIBase,
		WebBase: cfg.Twitter.WebBase,
		Bearer:  cfg.Twitter.BearerToken,
		Timeout: cfg.Twitter.Timeout(),
		Log:     log,
	})
	if err != nil {
		return err
	}
	creds := twitter.Credentials{Username: cfg.Twitter.Username, Password: cfg.Twitter.Password}

	mon := monitor.New(monitor.Options{
		Login: func(ctx context.Context) (monitor.Session, error) {
			sess, err := client.Login(ctx, creds)
			if err != nil {
				return nil, err
			}
			return sess, nil
		},
		Handles:        cfg.Users,
		OperatorHandle: cfg.Twitter.OperatorHandle,
		Extractor:      extractor,
		Classifier:     classifier,
		Dispatcher:     dispatcher,
		Seen:           dedup.Build(cfg.Dedup.MaxEntries, cfg.Dedup.TTL(), cfg.Monitor.SeenHint),
		Publisher:      bus,
		PollInterval:   cfg.Monitor.PollInterval(),
		FollowPause:    cfg.Monitor.FollowPause(),
		FollowRate:     cfg.Monitor.FollowRate(),
		SeenHint:       cfg.Monitor.SeenHint,
		TimelineCount:  cfg.Monitor.TimelineCount,
		Log:            log.With().Str("component", "monitor").Logger(),
	})

	owner := ch.wallet.PublicKey()
	commitment := dex.ParseCommitment(cfg.Dex.Commitment)
	watcher := holdings.NewWatcher(holdings.Options{
		Pubkey: owner.String(),
		Balance: func(ctx context.Context) (float64, error) {
			return dex.BalanceSOL(ctx, ch.rpc, owner, commitment)
		},
		Tokens:      holdings.NewPortfolio(cfg.Holdings.PortfolioBase, cfg.Twitter.Timeout()),
		Book:        book,
		Seller:      mon,
		Sink:        bus,
		AutoSell:    cfg.Sell.AutoSell,
		SellAt:      cfg.Sell.SellAt,
		DefaultCost: cfg.Buy.AmountSOL,
		Dust:        cfg.Holdings.DustThreshold,
		Refresh:     cfg.Holdings.Refresh(),
		Log:         log.With().Str("component", "holdings").Logger(),
	})

	log.Info().Strs("users", cfg.Users).Str("wallet", owner.String()).Msg("starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(gctx) })
	forward := func(o execution.Outcome) {
		mon.Notify(o)
		watcher.Notify(o)
	}
	g.Go(func() error { return registry.Run(gctx, forward) })
	g.Go(func() error { return watcher.Run(gctx) })
	if !headless {
		g.Go(func() error {
			err := console.Run(gctx, console.Sources{
				Users:  bus.Users(),
				Wallet: bus.Wallet(),
				Alerts: bus.Alerts(),
				Logs:   logs,
				Sell:   mon.Sell,
			})
			if err != nil {
				return err
			}
			if gctx.Err() == nil {
				return errOperatorQuit
			}
			return nil
		})
	}

	err = g.Wait()
	warnInFlight(stderr, registry)
	if err != nil && !errors.Is(err, errOperatorQuit) {
		return fmt.Errorf("lytra stopped: %w", err)
	}
	return nil
}

// warnInFlight lists trades whose outcome never arrived before exit.
func warnInFlight(w io.Writer, registry *execution.Registry) {
	running := registry.Running()
	if len(running) == 0 {
		return
	}
	lines := make([]string, 0, len(running))
	for id, intent := range running {
		lines = append(lines, fmt.Sprintf("  %s %s", id, intent))
	}
	sort.Strings(lines)
	fmt.Fprintf(w, "warning: %d trade(s) still in flight at exit, check the wallet\n", len(running))
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
