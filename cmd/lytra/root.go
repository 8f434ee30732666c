package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmc-solana/lytra/internal/config"
)

const defaultConfigPath = "config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "lytra",
		Short:         "Watch twitter accounts for Solana token mints and trade them",
		Long:          "lytra logs into twitter, follows the configured accounts, polls the home timeline and buys every newly posted Solana token on the venue it trades on.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newConfigCmd(opts),
		newTradeCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the config file, overlays the environment and validates it.
func loadConfig(path string, validate bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}
	return cfg, nil
}
