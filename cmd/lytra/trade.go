package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/strategy"
	"github.com/tmc-solana/lytra/internal/util"
)

type tradeFlags struct {
	amount  float64
	venue   string
	timeout int
}

func newTradeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Buy or sell one token right now with the configured wallet",
	}
	cmd.AddCommand(newTradeSideCmd(root, signal.Buy), newTradeSideCmd(root, signal.Sell))
	return cmd
}

func newTradeSideCmd(root *rootOptions, side signal.Side) *cobra.Command {
	flags := &tradeFlags{}
	use := strings.ToLower(string(side))
	cmd := &cobra.Command{
		Use:   use + " <mint>",
		Short: fmt.Sprintf("%s a token, classifying its venue unless --venue is given", verb(side)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath, false)
			if err != nil {
				return err
			}
			ch, err := buildChain(cfg)
			if err != nil {
				return fmt.Errorf("wallet: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeoutOrDefault(flags.timeout))
			defer cancel()

			mint := args[0]
			venue, err := resolveVenue(ctx, flags.venue, func() (strategy.Classifier, error) {
				_, c, err := buildStrategy(cfg)
				return c, err
			}, mint)
			if err != nil {
				return err
			}

			settings := buySettings(cfg)
			amount := flags.amount
			if side == signal.Sell {
				settings = sellSettings(cfg)
				if amount <= 0 {
					return fmt.Errorf("--amount (tokens) is required to sell")
				}
			} else if amount <= 0 {
				amount = settings.AmountSOL
			}

			intent := signal.TradeIntent{
				Asset:       mint,
				Venue:       venue,
				Side:        side,
				Amount:      amount,
				SlippagePct: settings.SlippagePct,
				PriorityFee: settings.PriorityFeeSOL,
				Jito:        settings.Jito,
				JitoTip:     settings.JitoTipSOL,
			}
			log := util.NewLogger(cfg.App.LogLevel)
			log.Info().Stringer("intent", intent).Str("wallet", ch.wallet.PublicKey().String()).Msg("submitting")
			start := time.Now()
			if err := ch.engines.Execute(ctx, ch.wallet, intent); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			log.Info().Dur("took", time.Since(start)).Msg("submitted")
			return nil
		},
	}
	amountHelp := "SOL to spend (defaults to buy.amount_sol)"
	if side == signal.Sell {
		amountHelp = "tokens to sell"
	}
	cmd.Flags().Float64Var(&flags.amount, "amount", 0, amountHelp)
	cmd.Flags().StringVar(&flags.venue, "venue", "", "jupiter, pumpfun or raydium; classified when empty")
	cmd.Flags().IntVar(&flags.timeout, "timeout-secs", 30, "overall deadline for the trade")
	return cmd
}

func verb(side signal.Side) string {
	if side == signal.Sell {
		return "Sell"
	}
	return "Buy"
}

func timeoutOrDefault(secs int) time.Duration {
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// resolveVenue parses an explicit venue or falls back to classifying mint.
func resolveVenue(ctx context.Context, explicit string, classifier func() (strategy.Classifier, error), mint string) (signal.Venue, error) {
	if explicit != "" {
		return parseVenue(explicit)
	}
	c, err := classifier()
	if err != nil {
		return signal.DefaultVenue, err
	}
	return c.Classify(ctx, mint)
}

func parseVenue(s string) (signal.Venue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jupiter", "jup":
		return signal.VenueJupiter, nil
	case "pumpfun", "pump":
		return signal.VenuePumpFun, nil
	case "raydium", "ray":
		return signal.VenueRaydium, nil
	default:
		return signal.DefaultVenue, fmt.Errorf("unknown venue %q", s)
	}
}
