// Package twitter talks to the twitter.com web API: login, follow list and home timeline.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// ErrSessionInvalid is returned by every call made after the platform rejected the session.
var ErrSessionInvalid = errors.New("twitter session rejected")

// StatusError reports a non-success HTTP status from the platform.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// Options configures a Client.
type Options struct {
	APIBase string // https://api.twitter.com, used by the login flow
	WebBase string // https://twitter.com, used by authenticated calls
	Bearer  string
	Timeout time.Duration
	Log     zerolog.Logger
}

// Client owns the cookie jar and transport shared by the login flow and the resulting Session.
type Client struct {
	http    *http.Client
	jar     http.CookieJar
	apiBase string
	webBase string
	bearer  string
	log     zerolog.Logger
}

// NewClient builds a client with a fresh cookie jar.
func NewClient(opts Options) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Jar: jar, Timeout: timeout},
		jar:     jar,
		apiBase: strings.TrimSuffix(opts.APIBase, "/"),
		webBase: strings.TrimSuffix(opts.WebBase, "/"),
		bearer:  opts.Bearer,
		log:     opts.Log,
	}, nil
}

func (c *Client) baseHeaders(h http.Header) {
	h.Set("Authorization", "Bearer "+c.bearer)
	h.Set("Content-Type", "application/json")
	h.Set("Referer", c.webBase+"/")
	h.Set("User-Agent", userAgent)
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("X-Twitter-Client-Language", "en")
}

// send executes req and decodes a JSON body into out when out is non-nil.
func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Session is the authenticated credential bundle. It becomes permanently invalid
// once the platform answers any call with 401 or 403.
type Session struct {
	client  *Client
	csrf    string
	invalid atomic.Bool
}

// CSRFToken returns the anti-forgery token extracted from the ct0 cookie.
func (s *Session) CSRFToken() string { return s.csrf }

// Valid reports whether the platform has not yet rejected the session.
func (s *Session) Valid() bool { return !s.invalid.Load() }

func (s *Session) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	if s.invalid.Load() {
		return nil, ErrSessionInvalid
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	s.client.baseHeaders(req.Header)
	req.Header.Set("X-Csrf-Token", s.csrf)
	req.Header.Set("X-Twitter-Auth-Type", "OAuth2Session")
	req.Header.Set("X-Twitter-Active-User", "yes")
	return req, nil
}

func (s *Session) do(req *http.Request, op string, out any) error {
	err := s.client.send(req, op, out)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden) {
		s.invalid.Store(true)
		return fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	return err
}
