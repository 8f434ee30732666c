package main

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tmc-solana/lytra/internal/config"
	dex "github.com/tmc-solana/lytra/internal/dex/solana"
	"github.com/tmc-solana/lytra/internal/execution"
	"github.com/tmc-solana/lytra/internal/signal"
	"github.com/tmc-solana/lytra/internal/strategy"
)

// chain bundles the wallet with the RPC client and venue engines built from one config.
type chain struct {
	wallet  solana.PrivateKey
	rpc     *rpc.Client
	engines execution.Engines
}

func buildChain(cfg *config.Config) (*chain, error) {
	wallet, err := dex.LoadPrivateKey(cfg.Wallet.PrivateKeyBase58, cfg.Wallet.KeypairPath)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.New(cfg.Dex.RpcURL)
	submit := dex.NewRPCSubmitter(rpcClient, cfg.Dex.Commitment, cfg.Dex.JitoURL)
	return &chain{
		wallet: wallet,
		rpc:    rpcClient,
		engines: execution.Engines{
			signal.VenueJupiter: dex.NewJupiterClient(rpcClient, cfg.Dex.JupiterBase, cfg.Dex.Commitment, submit),
			signal.VenuePumpFun: dex.NewPumpPortal(cfg.Dex.PumpPortalBase, dex.PoolPump, submit),
			signal.VenueRaydium: dex.NewPumpPortal(cfg.Dex.PumpPortalBase, dex.PoolRaydium, submit),
		},
	}, nil
}

func buildStrategy(cfg *config.Config) (strategy.Extractor, strategy.Classifier, error) {
	return strategy.Build(strategy.Params{
		Extractor:       cfg.Strategy.Extractor,
		Classifier:      cfg.Strategy.Classifier,
		PumpAPIBase:     cfg.Dex.PumpAPIBase,
		DexScreenerBase: cfg.Dex.DexScreenerBase,
		Timeout:         cfg.Twitter.Timeout(),
	})
}

func buySettings(cfg *config.Config) execution.Settings {
	return execution.Settings{
		AmountSOL:      cfg.Buy.AmountSOL,
		SlippagePct:    cfg.Buy.SlippagePct,
		PriorityFeeSOL: cfg.Buy.PriorityFeeSOL,
		Jito:           cfg.Buy.Jito,
		JitoTipSOL:     cfg.Buy.JitoTipSOL,
	}
}

func sellSettings(cfg *config.Config) execution.Settings {
	return execution.Settings{
		SlippagePct:    cfg.Sell.SlippagePct,
		PriorityFeeSOL: cfg.Sell.PriorityFeeSOL,
		Jito:           cfg.Sell.Jito,
		JitoTipSOL:     cfg.Sell.JitoTipSOL,
	}
}
