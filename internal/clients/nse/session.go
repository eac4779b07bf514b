package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/aristath/petracker/internal/domain"
)

const (
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptJSON = "application/json, text/plain, */*"

	maxBodyBytes = 8 << 20
)

// session is one attempt's cookie-carrying conversation with the exchange.
// It is never shared between attempts or symbols.
type session struct {
	client *Client
	http   *http.Client
}

func (c *Client) newSession() *session {
	// cookiejar.New only fails for a bad PublicSuffixList; nil never does.
	jar, _ := cookiejar.New(nil)
	return &session{
		client: c,
		http: &http.Client{
			Jar:     jar,
			Timeout: c.timeout,
		},
	}
}

// warmUp loads the home page so the exchange sets its session cookies
func (s *session) warmUp(ctx context.Context) (domain.FetchOutcome, bool) {
	_, out, ok := s.get(ctx, s.client.baseURL+"/", "", acceptHTML)
	if !ok {
		s.client.log.Debug().Str("reason", string(out.Reason())).Str("detail", out.Detail()).Msg("Warm-up failed")
	}
	return out, ok
}

// get performs one throttled GET and returns the body of a 200 response.
// The request timeout starts once the throttle lets the request go, so time
// spent queued behind other goroutines is bounded only by ctx.
func (s *session) get(ctx context.Context, target, referer, accept string) ([]byte, domain.FetchOutcome, bool) {
	if err := s.client.throttle.Wait(ctx); err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.client.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, domain.Unavailable(domain.ReasonBadStatus, fmt.Sprintf("status %d from %s", resp.StatusCode, req.URL.Path)), false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.Unavailable(domain.ReasonTransport, err.Error()), false
	}
	return body, domain.FetchOutcome{}, true
}
