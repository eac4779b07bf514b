package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/domain"
	testingpkg "github.com/aristath/petracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExchange requires the warm-up cookie on data requests, like the real site
type fakeExchange struct {
	warmUpStatus int
	quoteBody    string
	pageBody     string
	dataCalls    atomic.Int32
}

func (f *fakeExchange) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		if f.warmUpStatus != 0 {
			w.WriteHeader(f.warmUpStatus)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "session-token", Path: "/"})
		_, _ = w.Write([]byte("<html>home</html>"))
	})
	mux.HandleFunc("/api/quote-equity", func(w http.ResponseWriter, r *http.Request) {
		f.dataCalls.Add(1)
		if _, err := r.Cookie("nsit"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "M&M", r.URL.Query().Get("symbol"))
		assert.Contains(t, r.Header.Get("Referer"), "/get-quotes/equity?symbol=")
		_, _ = w.Write([]byte(f.quoteBody))
	})
	mux.HandleFunc("/get-quotes/equity", func(w http.ResponseWriter, r *http.Request) {
		f.dataCalls.Add(1)
		if _, err := r.Cookie("nsit"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(f.pageBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string, delay time.Duration) *Client {
	return NewClient(Config{BaseURL: url, Timeout: 2 * time.Second, RequestDelay: delay}, zerolog.Nop())
}

func TestDirectAPI_Success(t *testing.T) {
	fake := &fakeExchange{quoteBody: testingpkg.QuoteEquityJSON("M&M", 27.35)}
	srv := fake.server(t)

	source := newTestClient(srv.URL, 0).DirectAPI()
	assert.Equal(t, domain.TierDirectAPI, source.Tier())

	out := source.Fetch(context.Background(), "M&M")
	require.True(t, out.OK(), out.String())
	assert.Equal(t, 27.35, out.Value())
}

func TestDirectAPI_WarmUpFailureSkipsDataRequest(t *testing.T) {
	fake := &fakeExchange{warmUpStatus: http.StatusForbidden}
	srv := fake.server(t)

	out := newTestClient(srv.URL, 0).DirectAPI().Fetch(context.Background(), "M&M")
	assert.Equal(t, domain.ReasonBadStatus, out.Reason())
	assert.Zero(t, fake.dataCalls.Load())
}

func TestDirectAPI_FreshSessionPerAttempt(t *testing.T) {
	var warmUps atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		warmUps.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "x", Path: "/"})
	})
	mux.HandleFunc("/api/quote-equity", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"priceInfo":{"pe":10}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	source := newTestClient(srv.URL, 0).DirectAPI()
	source.Fetch(context.Background(), "A")
	source.Fetch(context.Background(), "B")

	assert.Equal(t, int32(2), warmUps.Load())
}

func TestDirectAPI_ThrottlesEveryRequest(t *testing.T) {
	fake := &fakeExchange{quoteBody: testingpkg.QuoteEquityJSON("M&M", 10)}
	srv := fake.server(t)

	source := newTestClient(srv.URL, 60*time.Millisecond).DirectAPI()
	start := time.Now()
	out := source.Fetch(context.Background(), "M&M")
	require.True(t, out.OK())

	// warm-up and data request must be spaced by the delay
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestDirectAPI_ConcurrentCallersQueuedBehindThrottle(t *testing.T) {
	fake := &fakeExchange{quoteBody: testingpkg.QuoteEquityJSON("M&M", 21.4)}
	srv := fake.server(t)

	// six callers make twelve requests 100ms apart, far past one timeout
	client := NewClient(Config{BaseURL: srv.URL, Timeout: 250 * time.Millisecond, RequestDelay: 100 * time.Millisecond}, zerolog.Nop())
	source := client.DirectAPI()

	const callers = 6
	outcomes := make([]domain.FetchOutcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = source.Fetch(context.Background(), "M&M")
		}(i)
	}
	wg.Wait()

	for i, out := range outcomes {
		require.True(t, out.OK(), "caller %d: %s", i, out.String())
		assert.Equal(t, 21.4, out.Value())
	}
	assert.Equal(t, int32(callers), fake.dataCalls.Load())
}

func TestDirectAPI_MalformedPayload(t *testing.T) {
	fake := &fakeExchange{quoteBody: `{"error":"Resource not found"`}
	srv := fake.server(t)

	out := newTestClient(srv.URL, 0).DirectAPI().Fetch(context.Background(), "M&M")
	assert.Equal(t, domain.ReasonMalformed, out.Reason())
}

func TestDirectAPI_CancelledContext(t *testing.T) {
	fake := &fakeExchange{quoteBody: testingpkg.QuoteEquityJSON("M&M", 10)}
	srv := fake.server(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestClient(srv.URL, 0).DirectAPI().Fetch(ctx, "M&M")
	assert.Equal(t, domain.ReasonTransport, out.Reason())
}

func TestQuotePage_Success(t *testing.T) {
	fake := &fakeExchange{pageBody: testingpkg.QuotePageHTML("19.62")}
	srv := fake.server(t)

	source := newTestClient(srv.URL, 0).QuotePage()
	assert.Equal(t, domain.TierHTMLPage, source.Tier())

	out := source.Fetch(context.Background(), "TCS")
	require.True(t, out.OK(), out.String())
	assert.Equal(t, 19.62, out.Value())
}

func TestQuotePage_NoLabel(t *testing.T) {
	fake := &fakeExchange{pageBody: `<html><body>Please enable JavaScript</body></html>`}
	srv := fake.server(t)

	out := newTestClient(srv.URL, 0).QuotePage().Fetch(context.Background(), "TCS")
	assert.Equal(t, domain.ReasonMissing, out.Reason())
}
