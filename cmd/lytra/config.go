package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmc-solana/lytra/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print a configuration summary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(root.configPath, false)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), cfg)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a config file with every default filled in",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := os.Stat(root.configPath); err == nil {
					return fmt.Errorf("%s already exists", root.configPath)
				}
				if err := config.Save(root.configPath, config.Default()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", root.configPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit the watch list and trade settings interactively",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				// Env overlays are not applied so secrets from the environment never land on disk.
				cfg, err := config.Load(root.configPath)
				if err != nil {
					return err
				}
				p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
				editConfig(p, cfg)
				if err := config.Save(root.configPath, cfg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "config saved")
				return nil
			},
		},
	)
	return cmd
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "--- Configuration Summary ---")
	fmt.Fprintf(w, "Watching: %s\n", strings.Join(cfg.Users, ", "))
	fmt.Fprintf(w, "Twitter account: %s (follow list owner @%s)\n", cfg.Twitter.Username, cfg.Twitter.OperatorHandle)
	fmt.Fprintf(w, "Buy: %.4f SOL, slippage %.1f%%, priority fee %.6f SOL, jito %t (tip %.6f SOL)\n",
		cfg.Buy.AmountSOL, cfg.Buy.SlippagePct, cfg.Buy.PriorityFeeSOL, cfg.Buy.Jito, cfg.Buy.JitoTipSOL)
	fmt.Fprintf(w, "Sell: slippage %.1f%%, priority fee %.6f SOL, jito %t (tip %.6f SOL)\n",
		cfg.Sell.SlippagePct, cfg.Sell.PriorityFeeSOL, cfg.Sell.Jito, cfg.Sell.JitoTipSOL)
	if cfg.Sell.AutoSell {
		fmt.Fprintf(w, "Auto-sell at +%.1f%%\n", cfg.Sell.SellAt)
	} else {
		fmt.Fprintln(w, "Auto-sell off")
	}
	fmt.Fprintf(w, "Strategy: extractor=%s classifier=%s\n", cfg.Strategy.Extractor, cfg.Strategy.Classifier)
	fmt.Fprintf(w, "Poll every %s, timeline count %d\n", cfg.Monitor.PollInterval(), cfg.Monitor.TimelineCount)
	fmt.Fprintf(w, "RPC: %s (%s)\n", cfg.Dex.RpcURL, cfg.Dex.Commitment)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) line(label, current string) string {
	fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (p *prompter) float(label string, current float64) float64 {
	line := p.line(label, strconv.FormatFloat(current, 'f', -1, 64))
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil || val < 0 {
		fmt.Fprintf(p.out, "invalid number, keeping %g\n", current)
		return current
	}
	return val
}

func (p *prompter) bool(label string, current bool) bool {
	line := p.line(label+" (y/n)", map[bool]string{true: "y", false: "n"}[current])
	switch strings.ToLower(line) {
	case "y", "yes", "true":
		return true
	case "n", "no", "false":
		return false
	default:
		return current
	}
}

func (p *prompter) list(label string, current []string) []string {
	line := p.line(label+" comma-separated", strings.Join(current, ","))
	if line == "" {
		return current
	}
	var out []string
	for _, part := range strings.Split(line, ",") {
		if trimmed := strings.TrimPrefix(strings.TrimSpace(part), "@"); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func editConfig(p *prompter, cfg *config.Config) {
	fmt.Fprintln(p.out, "--- Watch list ---")
	cfg.Users = p.list("Accounts", cfg.Users)

	fmt.Fprintln(p.out, "--- Buy ---")
	cfg.Buy.AmountSOL = p.float("Amount (SOL)", cfg.Buy.AmountSOL)
	cfg.Buy.SlippagePct = p.float("Slippage (%)", cfg.Buy.SlippagePct)
	cfg.Buy.PriorityFeeSOL = p.float("Priority fee (SOL)", cfg.Buy.PriorityFeeSOL)
	cfg.Buy.Jito = p.bool("Use Jito", cfg.Buy.Jito)
	if cfg.Buy.Jito {
		cfg.Buy.JitoTipSOL = p.float("Jito tip (SOL)", cfg.Buy.JitoTipSOL)
	}

	fmt.Fprintln(p.out, "--- Sell ---")
	cfg.Sell.SlippagePct = p.float("Slippage (%)", cfg.Sell.SlippagePct)
	cfg.Sell.PriorityFeeSOL = p.float("Priority fee (SOL)", cfg.Sell.PriorityFeeSOL)
	cfg.Sell.Jito = p.bool("Use Jito", cfg.Sell.Jito)
	if cfg.Sell.Jito {
		cfg.Sell.JitoTipSOL = p.float("Jito tip (SOL)", cfg.Sell.JitoTipSOL)
	}
	cfg.Sell.AutoSell = p.bool("Auto-sell", cfg.Sell.AutoSell)
	if cfg.Sell.AutoSell {
		cfg.Sell.SellAt = p.float("Sell at gain (%)", cfg.Sell.SellAt)
	}
}
