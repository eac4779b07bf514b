package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/modules/market_hours"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedNextRun struct {
	at time.Time
	ok bool
}

func (f fixedNextRun) NextRun() (time.Time, bool) { return f.at, f.ok }

func newTestCalendar(t *testing.T, now time.Time) *market_hours.Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	cal, err := market_hours.NewCalendar(loc, []string{"2026-11-09"}, func() time.Time { return now })
	require.NoError(t, err)
	return cal
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGetStatus(t *testing.T) {
	// Wednesday 14 Oct 2026, 11:00 IST
	now := time.Date(2026, 10, 14, 5, 30, 0, 0, time.UTC)
	next := fixedNextRun{at: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC), ok: true}
	h := NewHandler(newTestCalendar(t, now), next, zerolog.Nop())

	w := serve(h, http.MethodGet, "/market/status")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})

	assert.Equal(t, "XNSE", data["exchange"])
	assert.Equal(t, true, data["open"])
	assert.Equal(t, "15:30", data["closes_at"])
	assert.Equal(t, "2026-10-14T15:30:00+05:30", data["next_acquisition"])
	assert.NotNil(t, response["metadata"])
}

func TestHandleGetStatus_ClosedWithoutScheduler(t *testing.T) {
	// Saturday
	now := time.Date(2026, 10, 17, 5, 30, 0, 0, time.UTC)
	h := NewHandler(newTestCalendar(t, now), nil, zerolog.Nop())

	w := serve(h, http.MethodGet, "/market/status")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})

	assert.Equal(t, false, data["trading_day"])
	assert.Equal(t, "2026-10-19", data["next_session"])
	assert.NotContains(t, data, "next_acquisition")
}

func TestHandleGetHolidays(t *testing.T) {
	now := time.Date(2026, 10, 14, 5, 30, 0, 0, time.UTC)
	h := NewHandler(newTestCalendar(t, now), nil, zerolog.Nop())

	w := serve(h, http.MethodGet, "/market/holidays")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Year     int      `json:"year"`
			Holidays []string `json:"holidays"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2026, response.Data.Year)
	assert.Contains(t, response.Data.Holidays, "2026-11-09")
	assert.Contains(t, response.Data.Holidays, "2026-04-03")

	w = serve(h, http.MethodGet, "/market/holidays?year=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
