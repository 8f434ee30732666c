package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

var (
	mintPattern = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)
	linkPattern = regexp.MustCompile(`https://t\.co/[A-Za-z0-9]+`)
)

// Extractor pulls a tradeable asset identifier out of post text.
// An empty result with a nil error means the post carries no signal.
type Extractor interface {
	Extract(ctx context.Context, text string) (string, error)
	Name() string
}

// MintExtractor finds base58 mint addresses in the text itself and, failing that,
// in the destinations of shortened links.
type MintExtractor struct {
	client       *http.Client
	resolveLinks bool
}

// NewMintExtractor returns an extractor. With resolveLinks false only the raw text is scanned.
func NewMintExtractor(client *http.Client, resolveLinks bool) *MintExtractor {
	return &MintExtractor{client: client, resolveLinks: resolveLinks}
}

func (e *MintExtractor) Name() string {
	if e.resolveLinks {
		return "mint"
	}
	return "mint_direct"
}

// Extract returns the first mint address found. A direct match never triggers network calls.
func (e *MintExtractor) Extract(ctx context.Context, text string) (string, error) {
	if m := mintPattern.FindString(text); m != "" {
		return m, nil
	}
	if !e.resolveLinks {
		return "", nil
	}
	var errs []error
	for _, link := range linkPattern.FindAllString(text, -1) {
		final, err := e.resolve(ctx, link)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if m := mintPattern.FindString(final); m != "" {
			return m, nil
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("extract: %w", errors.Join(errs...))
	}
	return "", nil
}

// resolve follows redirects and returns the final URL.
func (e *MintExtractor) resolve(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", link, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", link, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolve %s: final status %d", link, resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}
