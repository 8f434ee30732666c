package holdings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Token is one entry of the wallet portfolio.
type Token struct {
	Mint     string
	Symbol   string
	Amount   float64 // UI units
	PriceSOL float64
}

type portfolioResponse struct {
	Tokens []struct {
		Mint          string  `json:"mint"`
		Symbol        string  `json:"symbol"`
		TotalUiAmount float64 `json:"totalUiAmount"`
		SolPrice      struct {
			Price float64 `json:"price"`
		} `json:"solPrice"`
	} `json:"tokens"`
}

// Portfolio reads token balances and SOL prices from a wallet portfolio API.
type Portfolio struct {
	base string
	http *http.Client
}

func NewPortfolio(base string, timeout time.Duration) *Portfolio {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Portfolio{base: strings.TrimSuffix(base, "/"), http: &http.Client{Timeout: timeout}}
}

// Tokens lists every token the wallet holds.
func (p *Portfolio) Tokens(ctx context.Context, pubkey string) ([]Token, error) {
	q := url.Values{}
	q.Set("network", "mainnet")
	q.Set("currency", "USD")
	endpoint := fmt.Sprintf("%s/v3/portfolio/tokens/%s?%s", p.base, url.PathEscape(pubkey), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portfolio: unexpected status %d", resp.StatusCode)
	}
	var payload portfolioResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("portfolio: decode response: %w", err)
	}
	out := make([]Token, 0, len(payload.Tokens))
	for _, t := range payload.Tokens {
		out = append(out, Token{Mint: t.Mint, Symbol: t.Symbol, Amount: t.TotalUiAmount, PriceSOL: t.SolPrice.Price})
	}
	return out, nil
}
