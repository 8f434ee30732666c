package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc-solana/lytra/internal/signal"
)

// ClassificationError reports that the venue of an asset could not be determined.
type ClassificationError struct {
	Asset string
	Err   error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.Asset, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier decides which venue an asset trades on. Every asset maps to exactly one
// venue or to a *ClassificationError.
type Classifier interface {
	Classify(ctx context.Context, asset string) (signal.Venue, error)
	Name() string
}

type pumpCoin struct {
	Mint        string `json:"mint"`
	Symbol      string `json:"symbol"`
	RaydiumPool string `json:"raydium_pool"`
	Complete    bool   `json:"complete"`
}

// PumpFunClassifier asks the pump.fun API first and optionally falls back to DexScreener.
type PumpFunClassifier struct {
	client   *http.Client
	pumpBase string
	dex      *DexScreener // nil disables the fallback
}

func NewPumpFunClassifier(client *http.Client, pumpBase string, dex *DexScreener) *PumpFunClassifier {
	return &PumpFunClassifier{client: client, pumpBase: strings.TrimSuffix(pumpBase, "/"), dex: dex}
}

func (c *PumpFunClassifier) Name() string { return "pumpfun" }

func (c *PumpFunClassifier) Classify(ctx context.Context, asset string) (signal.Venue, error) {
	coin, found, err := c.lookup(ctx, asset)
	if err != nil {
		return signal.DefaultVenue, &ClassificationError{Asset: asset, Err: err}
	}
	if found {
		if coin.RaydiumPool != "" || coin.Complete {
			return signal.VenueRaydium, nil
		}
		return signal.VenuePumpFun, nil
	}
	if c.dex == nil {
		return signal.DefaultVenue, nil
	}
	venue, ok, err := c.dex.Venue(ctx, asset)
	if err != nil {
		return signal.DefaultVenue, &ClassificationError{Asset: asset, Err: err}
	}
	if ok {
		return venue, nil
	}
	return signal.DefaultVenue, nil
}

func (c *PumpFunClassifier) lookup(ctx context.Context, mint string) (pumpCoin, bool, error) {
	var coin pumpCoin
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/coins/%s", c.pumpBase, mint), nil)
	if err != nil {
		return coin, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return coin, false, fmt.Errorf("pump.fun: %w", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return coin, false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return coin, false, fmt.Errorf("pump.fun: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&coin); err != nil {
		return coin, false, fmt.Errorf("pump.fun: decode response: %w", err)
	}
	return coin, true, nil
}

// DexScreenerClassifier classifies by the DexScreener aggregator alone.
type DexScreenerClassifier struct{ dex *DexScreener }

func (c *DexScreenerClassifier) Name() string { return "dexscreener" }

func (c *DexScreenerClassifier) Classify(ctx context.Context, asset string) (signal.Venue, error) {
	venue, _, err := c.dex.Venue(ctx, asset)
	if err != nil {
		return signal.DefaultVenue, &ClassificationError{Asset: asset, Err: err}
	}
	return venue, nil
}

// StaticClassifier sends everything to one venue.
type StaticClassifier struct{ Venue signal.Venue }

func (c StaticClassifier) Name() string { return "static" }

func (c StaticClassifier) Classify(context.Context, string) (signal.Venue, error) {
	return c.Venue, nil
}
