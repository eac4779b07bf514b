// Package handlers provides the HTTP handler for manual acquisition runs.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/acquisition"
	"github.com/rs/zerolog"
)

// Trigger starts a manual run and waits for its report
type Trigger interface {
	TriggerNow(ctx context.Context) (*domain.RunReport, error)
}

// Handler handles acquisition HTTP requests
type Handler struct {
	trigger Trigger
	log     zerolog.Logger
}

// NewHandler creates a new acquisition handler
func NewHandler(trigger Trigger, log zerolog.Logger) *Handler {
	return &Handler{
		trigger: trigger,
		log:     log.With().Str("handler", "acquisition").Logger(),
	}
}

// HandleScrapeNow handles POST /api/scrape-now
// Runs acquire → persist synchronously. A run that stores nothing still
// answers 200 with success=false; only store faults and interrupted runs are 500s.
func (h *Handler) HandleScrapeNow(w http.ResponseWriter, r *http.Request) {
	h.log.Info().Msg("Manual acquisition triggered")

	report, err := h.trigger.TriggerNow(r.Context())
	if err != nil {
		event := h.log.Error().Err(err)
		if acquisition.IsPersistenceFault(err) {
			event = event.Bool("persistence_fault", true)
		}
		event.Msg("Manual acquisition failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := scrapeResponse{Report: report}
	if report.SymbolsSucceeded > 0 {
		resp.Success = true
		resp.Count = report.SymbolsSucceeded
		resp.Message = fmt.Sprintf("Acquired P/E data for %d companies", report.SymbolsSucceeded)
	} else {
		resp.Message = "No data acquired"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// scrapeResponse is the bare body of POST /api/scrape-now. count is omitted
// when nothing was acquired.
type scrapeResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Count   int               `json:"count,omitempty"`
	Report  *domain.RunReport `json:"report"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
