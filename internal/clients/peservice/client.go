// Package peservice provides a client for the P/E intermediary service.
// The service fronts the exchange and exposes per-symbol and batch lookups.
package peservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultBatchTimeout = 120 * time.Second
	// Bodies larger than this are not a P/E response
	maxBodyBytes = 4 << 20
)

// ErrBatchUnavailable is returned when the batch envelope cannot be trusted
var ErrBatchUnavailable = errors.New("batch service unavailable")

// Config holds the service endpoint and per-call timeouts
type Config struct {
	BaseURL      string
	Timeout      time.Duration // per-symbol calls
	BatchTimeout time.Duration // one call covers the whole universe
}

// SymbolResponse is the per-symbol service payload
type SymbolResponse struct {
	Symbol  string          `json:"symbol"`
	PERatio json.RawMessage `json:"pe_ratio"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
}

// BatchRequest is the body of POST /api/pe/batch
type BatchRequest struct {
	Symbols []string `json:"symbols"`
}

// batchEnvelope keeps results raw so a non-array value is detectable
type batchEnvelope struct {
	Success *bool           `json:"success"`
	Results json.RawMessage `json:"results"`
}

// Client is the intermediary service client. It is both the batch tier and
// the per-symbol service tier.
type Client struct {
	baseURL      string
	timeout      time.Duration
	batchTimeout time.Duration
	httpClient   *http.Client
	log          zerolog.Logger
}

// NewClient creates a new service client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		timeout:      cfg.Timeout,
		batchTimeout: cfg.BatchTimeout,
		httpClient: &http.Client{
			Timeout: cfg.BatchTimeout,
		},
		log: log.With().Str("client", "peservice").Logger(),
	}
}

// Tier identifies the per-symbol lookup
func (c *Client) Tier() domain.Tier {
	return domain.TierService
}

// Fetch looks up one symbol via GET /api/pe/{symbol}
func (c *Client) Fetch(ctx context.Context, symbol string) domain.FetchOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/pe/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Unavailable(domain.ReasonTransport, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	body, outcome, ok := c.do(req)
	if !ok {
		return outcome
	}

	var payload SymbolResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Unavailable(domain.ReasonMalformed, err.Error())
	}
	if !payload.Success {
		return domain.Unavailable(domain.ReasonMissing, payload.Error)
	}
	return parseRatio(payload.PERatio)
}

// FetchBatch looks up all symbols via POST /api/pe/batch.
// A non-nil error means the envelope was unusable: transport failure,
// non-200 status, missing or false success flag, or results that are not an
// array. Otherwise every returned entry is trusted as-is, failures included.
func (c *Client) FetchBatch(ctx context.Context, symbols []string) (map[string]domain.FetchOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	reqBody, err := json.Marshal(BatchRequest{Symbols: symbols})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pe/batch", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Int("count", len(symbols)).Msg("Requesting batch P/E")

	body, outcome, ok := c.do(req)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchUnavailable, outcome.Detail())
	}

	var envelope batchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode envelope: %v", ErrBatchUnavailable, err)
	}
	if envelope.Success == nil {
		return nil, fmt.Errorf("%w: success flag missing", ErrBatchUnavailable)
	}
	if !*envelope.Success {
		return nil, fmt.Errorf("%w: service reported failure", ErrBatchUnavailable)
	}
	trimmed := bytes.TrimSpace(envelope.Results)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: results is not an array", ErrBatchUnavailable)
	}

	var items []SymbolResponse
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to decode results: %v", ErrBatchUnavailable, err)
	}

	outcomes := make(map[string]domain.FetchOutcome, len(items))
	for _, item := range items {
		if item.Symbol == "" {
			continue
		}
		if !item.Success {
			outcomes[item.Symbol] = domain.Unavailable(domain.ReasonMissing, item.Error)
			continue
		}
		outcomes[item.Symbol] = parseRatio(item.PERatio)
	}

	return outcomes, nil
}

// do executes req and returns the body of a 200 response. On failure the
// returned outcome says why.
func (c *Client) do(req *http.Request) ([]byte, domain.FetchOutcome, bool) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, domain.Unavailable(domain.ReasonBadStatus, fmt.Sprintf("status %d", resp.StatusCode)), false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}
	return body, domain.FetchOutcome{}, true
}

func parseRatio(raw json.RawMessage) domain.FetchOutcome {
	if len(raw) == 0 {
		return domain.Unavailable(domain.ReasonMissing, "pe_ratio absent")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return domain.Unavailable(domain.ReasonMalformed, err.Error())
	}
	return domain.ParseOutcome(v)
}
