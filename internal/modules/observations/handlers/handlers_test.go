package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/observations"
	testingpkg "github.com/aristath/petracker/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, *observations.Repository) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "observations_handlers")
	t.Cleanup(cleanup)

	repo := observations.NewRepository(db.Conn(), database.DriverSQLite, zerolog.Nop())
	universe := testingpkg.NewStaticUniverse(testingpkg.NewSecurityFixtures()...)
	writer := observations.NewWriter(repo, universe, zerolog.Nop())

	_, err := writer.Persist(context.Background(), []domain.AcquisitionResult{
		{Symbol: "TCS", Value: 29.1, Date: "2026-10-12", Tier: domain.TierServiceBatch},
		{Symbol: "TCS", Value: 29.5, Date: "2026-10-14", Tier: domain.TierServiceBatch},
		{Symbol: "RELIANCE", Value: 24.2, Date: "2026-10-14", Tier: domain.TierDirectAPI},
	})
	require.NoError(t, err)

	return NewHandler(repo, zerolog.Nop()), repo
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandleGetCompanies(t *testing.T) {
	h, _ := setupHandler(t)

	w := serve(h, "/companies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	companies := decodeList(t, w)
	require.Len(t, companies, 2)
	first := companies[0]
	assert.Equal(t, "RELIANCE", first["symbol"])
	assert.Equal(t, "Reliance Industries Ltd", first["name"])
	assert.NotZero(t, first["id"])
	assert.Contains(t, first, "sector")
	assert.NotContains(t, first, "created_at")
}

func TestHandleGetAllSeries(t *testing.T) {
	h, _ := setupHandler(t)

	w := serve(h, "/pe-data/all")
	require.Equal(t, http.StatusOK, w.Code)
	series := decodeList(t, w)
	require.Len(t, series, 2)
	tcs := series[1]
	assert.Equal(t, "TCS", tcs["symbol"])
	assert.Equal(t, "Tata Consultancy Services Ltd", tcs["name"])
	assert.NotContains(t, tcs, "company_id")
	points := tcs["data"].([]interface{})
	require.Len(t, points, 2)
	assert.Equal(t, "2026-10-12", points[0].(map[string]interface{})["date"])
	assert.Equal(t, 29.5, points[1].(map[string]interface{})["pe_ratio"])

	w = serve(h, "/pe-data/all?start_date=2026-10-13&end_date=2026-10-14")
	require.Equal(t, http.StatusOK, w.Code)
	series = decodeList(t, w)
	require.Len(t, series, 2)
	assert.Len(t, series[1]["data"], 1)

	w = serve(h, "/pe-data/all?start_date=14-10-2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, "/pe-data/all?start_date=2026-10-14&end_date=2026-10-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetCompanySeries(t *testing.T) {
	h, repo := setupHandler(t)
	sec, err := repo.GetSecurityBySymbol(context.Background(), "TCS")
	require.NoError(t, err)

	w := serve(h, "/pe-data/"+strconv.FormatInt(sec.ID, 10))
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeList(t, w)
	require.Len(t, rows, 2)
	first := rows[0]
	assert.NotZero(t, first["id"])
	assert.Equal(t, float64(sec.ID), first["company_id"])
	assert.Equal(t, "2026-10-12", first["date"])
	assert.Equal(t, 29.1, first["pe_ratio"])
	_, err = time.Parse(time.RFC3339, first["timestamp"].(string))
	assert.NoError(t, err)
	assert.Equal(t, "2026-10-14", rows[1]["date"])

	w = serve(h, "/pe-data/"+strconv.FormatInt(sec.ID, 10)+"?start_date=2026-10-13")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)

	w = serve(h, "/pe-data/"+strconv.FormatInt(sec.ID, 10)+"?end_date=2026-10-01")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(h, "/pe-data/9999").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "/pe-data/abc").Code)
}

func TestHandleGetStats(t *testing.T) {
	h, _ := setupHandler(t)

	w := serve(h, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(2), stats["total_companies"])
	assert.Equal(t, float64(3), stats["total_records"])
	dateRange := stats["date_range"].(map[string]interface{})
	assert.Equal(t, "2026-10-12", dateRange["min"])
	assert.Equal(t, "2026-10-14", dateRange["max"])
}

func TestHandleGetStats_Empty(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "observations_handlers_empty")
	t.Cleanup(cleanup)
	h := NewHandler(observations.NewRepository(db.Conn(), database.DriverSQLite, zerolog.Nop()), zerolog.Nop())

	w := serve(h, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(0), stats["total_records"])
	dateRange := stats["date_range"].(map[string]interface{})
	assert.Nil(t, dateRange["min"])
	assert.Nil(t, dateRange["max"])

	w = serve(h, "/companies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleGetRuns(t *testing.T) {
	h, repo := setupHandler(t)
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordRun(context.Background(), domain.RunRecord{
		RunReport: domain.RunReport{
			RunID: "abc", Trigger: domain.TriggerManual, Date: "2026-10-14",
			SymbolsAttempted: 4, SymbolsSucceeded: 4, RowsWritten: 3,
			StartedAt: now, FinishedAt: now,
		},
		Status: domain.RunStatusSucceeded,
	}))

	w := serve(h, "/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 1)

	assert.Equal(t, http.StatusBadRequest, serve(h, "/runs?limit=0").Code)
}
