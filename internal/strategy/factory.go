// Package strategy turns post text into trade decisions: which asset, and where it trades.
package strategy

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc-solana/lytra/internal/signal"
)

// Params expresses the knobs strategy constructors need.
type Params struct {
	Extractor       string
	Classifier      string
	PumpAPIBase     string
	DexScreenerBase string // empty disables the DexScreener fallback
	Timeout         time.Duration
	Client          *http.Client // optional; built from Timeout when nil
}

// Build returns the extractor and classifier matching the configured modes.
func Build(params Params) (Extractor, Classifier, error) {
	client := params.Client
	if client == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	var extractor Extractor
	switch strings.ToLower(strings.TrimSpace(params.Extractor)) {
	case "", "mint", "mint_links":
		extractor = NewMintExtractor(client, true)
	case "mint_direct", "direct":
		extractor = NewMintExtractor(client, false)
	default:
		return nil, nil, fmt.Errorf("unknown extractor %q", params.Extractor)
	}

	var dex *DexScreener
	if params.DexScreenerBase != "" {
		dex = NewDexScreener(client, params.DexScreenerBase)
	}

	var classifier Classifier
	switch strings.ToLower(strings.TrimSpace(params.Classifier)) {
	case "", "pumpfun", "pump":
		classifier = NewPumpFunClassifier(client, params.PumpAPIBase, dex)
	case "dexscreener":
		if dex == nil {
			return nil, nil, fmt.Errorf("classifier dexscreener needs dex.dexscreener_base")
		}
		classifier = &DexScreenerClassifier{dex: dex}
	case "jupiter", "static":
		classifier = StaticClassifier{Venue: signal.VenueJupiter}
	default:
		return nil, nil, fmt.Errorf("unknown classifier %q", params.Classifier)
	}
	return extractor, classifier, nil
}
