package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc-solana/lytra/internal/signal"
)

type dexscreenerTokensResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
}

type dexscreenerPair struct {
	ChainID     string           `json:"chainId"`
	DexID       string           `json:"dexId"`
	PairAddress string           `json:"pairAddress"`
	BaseToken   dexscreenerToken `json:"baseToken"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

type dexscreenerToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// DexScreener looks a token up on the DexScreener aggregator to find where it trades.
type DexScreener struct {
	client *http.Client
	base   string
}

func NewDexScreener(client *http.Client, base string) *DexScreener {
	return &DexScreener{client: client, base: strings.TrimSuffix(base, "/")}
}

// Venue reports VenueRaydium when any solana pair of the token lives on raydium.
// ok is false when the aggregator knows no specific venue.
func (d *DexScreener) Venue(ctx context.Context, mint string) (venue signal.Venue, ok bool, err error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.base, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return signal.DefaultVenue, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "lytra/1.0")
	resp, err := d.client.Do(req)
	if err != nil {
		return signal.DefaultVenue, false, fmt.Errorf("dexscreener: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return signal.DefaultVenue, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return signal.DefaultVenue, false, fmt.Errorf("dexscreener: unexpected status %d", resp.StatusCode)
	}
	var payload dexscreenerTokensResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return signal.DefaultVenue, false, fmt.Errorf("dexscreener: decode response: %w", err)
	}
	for _, pair := range payload.Pairs {
		if pair.ChainID != "" && !strings.EqualFold(pair.ChainID, "solana") {
			continue
		}
		if strings.EqualFold(pair.DexID, "raydium") {
			return signal.VenueRaydium, true, nil
		}
	}
	return signal.DefaultVenue, false, nil
}
