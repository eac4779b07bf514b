// Package handlers provides HTTP handlers for market calendar operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/petracker/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

// NextRunProvider reports the next scheduled acquisition, if armed
type NextRunProvider interface {
	NextRun() (time.Time, bool)
}

// Handler handles market calendar HTTP requests
type Handler struct {
	calendar *market_hours.Calendar
	next     NextRunProvider
	log      zerolog.Logger
}

// NewHandler creates a new market calendar handler. next may be nil.
func NewHandler(
	calendar *market_hours.Calendar,
	next NextRunProvider,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		calendar: calendar,
		next:     next,
		log:      log.With().Str("handler", "market_hours").Logger(),
	}
}

// HandleGetStatus handles GET /api/market/status
// Returns the exchange status and the next scheduled acquisition
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	now := h.calendar.Now()
	status := h.calendar.Status(now)

	data := map[string]interface{}{
		"exchange":    status.Exchange,
		"open":        status.Open,
		"trading_day": status.TradingDay,
		"timezone":    status.Timezone,
		"date":        status.Date,
	}
	if status.Open {
		data["closes_at"] = status.ClosesAt
	} else if status.NextSession != "" {
		data["next_session"] = status.NextSession
	}

	if h.next != nil {
		if at, ok := h.next.NextRun(); ok {
			data["next_acquisition"] = at.In(h.calendar.Location()).Format(time.RFC3339)
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHolidays handles GET /api/market/holidays?year=YYYY
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.calendar.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil || parsed < 1900 || parsed > 2200 {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"year":     year,
			"holidays": h.calendar.Holidays(year),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
