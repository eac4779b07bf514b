// Package nse provides direct access to the exchange's public quote endpoints.
// It backs the last two acquisition tiers: the JSON quote API and the
// degraded HTML quote page. Both need a browser-like session whose cookies
// come from a warm-up request against the home page.
package nse

import (
	"context"
	"net/url"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://www.nseindia.com"
	defaultTimeout = 10 * time.Second
)

// Config holds the upstream endpoint, per-request timeout and courtesy delay
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration // minimum gap between any two upstream requests
}

// Client talks to the exchange website
type Client struct {
	baseURL  string
	timeout  time.Duration
	throttle *Throttle
	log      zerolog.Logger
}

// NewClient creates a new exchange client. All requests made through it,
// from any goroutine, share one throttle.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		timeout:  cfg.Timeout,
		throttle: NewThrottle(cfg.RequestDelay),
		log:      log.With().Str("client", "nse").Logger(),
	}
}

// DirectAPI returns the quote API tier
func (c *Client) DirectAPI() *DirectAPISource {
	return &DirectAPISource{client: c}
}

// QuotePage returns the HTML page tier
func (c *Client) QuotePage() *QuotePageSource {
	return &QuotePageSource{client: c}
}

func (c *Client) quotePageURL(symbol string) string {
	return c.baseURL + "/get-quotes/equity?symbol=" + url.QueryEscape(symbol)
}

// DirectAPISource reads the P/E from GET /api/quote-equity
type DirectAPISource struct {
	client *Client
}

// Tier identifies the direct API lookup
func (s *DirectAPISource) Tier() domain.Tier {
	return domain.TierDirectAPI
}

// Fetch runs one warm-up + quote attempt for symbol
func (s *DirectAPISource) Fetch(ctx context.Context, symbol string) domain.FetchOutcome {
	c := s.client
	sess := c.newSession()
	if out, ok := sess.warmUp(ctx); !ok {
		return out
	}

	endpoint := c.baseURL + "/api/quote-equity?symbol=" + url.QueryEscape(symbol)
	body, out, ok := sess.get(ctx, endpoint, c.quotePageURL(symbol), acceptJSON)
	if !ok {
		return out
	}
	return extractQuotePE(body)
}

// QuotePageSource scrapes the P/E from the public quote page
type QuotePageSource struct {
	client *Client
}

// Tier identifies the HTML page lookup
func (s *QuotePageSource) Tier() domain.Tier {
	return domain.TierHTMLPage
}

// Fetch runs one warm-up + page attempt for symbol
func (s *QuotePageSource) Fetch(ctx context.Context, symbol string) domain.FetchOutcome {
	c := s.client
	sess := c.newSession()
	if out, ok := sess.warmUp(ctx); !ok {
		return out
	}

	body, out, ok := sess.get(ctx, c.quotePageURL(symbol), c.baseURL+"/", acceptHTML)
	if !ok {
		return out
	}
	return extractPagePE(body)
}
