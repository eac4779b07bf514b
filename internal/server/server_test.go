package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/di"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBatchService answers every batch request with a P/E of 20 for each
// requested symbol, except ITC which the service cannot resolve
func newBatchService(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pe/batch" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Symbols []string `json:"symbols"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		results := make([]map[string]interface{}, 0, len(req.Symbols))
		for _, symbol := range req.Symbols {
			if symbol == "ITC" {
				results = append(results, map[string]interface{}{"symbol": symbol, "pe_ratio": nil, "success": false, "error": "not found"})
				continue
			}
			results = append(results, map[string]interface{}{"symbol": symbol, "pe_ratio": 20.0, "success": true})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "results": results})
	}))
}

func newTestServer(t *testing.T, serviceURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		DataDir:        t.TempDir(),
		DatabaseDriver: config.DriverSQLite,
		Port:           0,
		DevMode:        true,
		CORSOrigins:    []string{"*"},
		Workers:        4,
		Market: config.MarketConfig{
			Timezone: "Asia/Kolkata",
			Schedule: "30 15 * * MON-FRI",
		},
		Sources: config.SourcesConfig{
			ServiceURL:     serviceURL,
			ServiceTimeout: time.Second,
			BatchTimeout:   5 * time.Second,
			NSEBaseURL:     "http://127.0.0.1:1",
			NSETimeout:     time.Second,
		},
	}

	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := do(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sqlite", body["database"])
}

func TestScrapeNowThenQuery(t *testing.T) {
	service := newBatchService(t)
	defer service.Close()
	s := newTestServer(t, service.URL)

	rec := do(s, http.MethodPost, "/api/scrape-now")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var trigger struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Report  struct {
			SymbolsAttempted int            `json:"symbols_attempted"`
			RowsWritten      int            `json:"rows_written"`
			ByTier           map[string]int `json:"by_tier"`
		} `json:"report"`
	}
	decode(t, rec, &trigger)
	assert.True(t, trigger.Success)
	assert.Equal(t, 49, trigger.Count)
	assert.Equal(t, 50, trigger.Report.SymbolsAttempted)
	assert.Equal(t, 49, trigger.Report.RowsWritten)
	assert.Equal(t, 49, trigger.Report.ByTier["service_batch"])

	// A second trigger on the same day writes nothing new
	rec = do(s, http.MethodPost, "/api/scrape-now")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &trigger)
	assert.Equal(t, 0, trigger.Report.RowsWritten)

	var stats struct {
		TotalCompanies int `json:"total_companies"`
		TotalRecords   int `json:"total_records"`
		DateRange      struct {
			Min *string `json:"min"`
			Max *string `json:"max"`
		} `json:"date_range"`
	}
	rec = do(s, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &stats)
	assert.Equal(t, 49, stats.TotalCompanies)
	assert.Equal(t, 49, stats.TotalRecords)
	require.NotNil(t, stats.DateRange.Min)
	assert.Equal(t, stats.DateRange.Min, stats.DateRange.Max)

	var companies []struct {
		ID     int64  `json:"id"`
		Symbol string `json:"symbol"`
	}
	rec = do(s, http.MethodGet, "/api/companies")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &companies)
	require.Len(t, companies, 49)

	var series []struct {
		Symbol string `json:"symbol"`
		Data   []struct {
			Date    string  `json:"date"`
			PERatio float64 `json:"pe_ratio"`
		} `json:"data"`
	}
	rec = do(s, http.MethodGet, "/api/pe-data/all")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &series)
	require.Len(t, series, 49)
	require.Len(t, series[0].Data, 1)
	assert.Equal(t, *stats.DateRange.Min, series[0].Data[0].Date)

	var runs struct {
		Data []struct {
			Trigger string `json:"trigger"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	rec = do(s, http.MethodGet, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &runs)
	require.Len(t, runs.Data, 2)
	assert.Equal(t, "manual", runs.Data[0].Trigger)
	assert.Equal(t, "degraded", runs.Data[0].Status)

	var status SystemStatusResponse
	rec = do(s, http.MethodGet, "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 50, status.UniverseSize)
	assert.Equal(t, 49, status.CoveredToday)
	assert.Equal(t, "idle", status.SchedulerState)
	require.NotNil(t, status.LastRun)
}

func TestScrapeNow_AllSourcesDown(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := do(s, http.MethodPost, "/api/scrape-now")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "No data acquired", body.Message)
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := do(s, http.MethodGet, "/api/system/database/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var dbStats DatabaseStatsResponse
	decode(t, rec, &dbStats)
	assert.Equal(t, "petracker", dbStats.Name)
	assert.Positive(t, dbStats.PageCount)

	rec = do(s, http.MethodGet, "/api/system/disk")
	require.Equal(t, http.StatusOK, rec.Code)
	var diskUsage DiskUsageResponse
	decode(t, rec, &diskUsage)
	assert.Positive(t, diskUsage.TotalMB)

	rec = do(s, http.MethodGet, "/api/market/status")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/companies")
	require.Equal(t, http.StatusOK, rec.Code)
}
