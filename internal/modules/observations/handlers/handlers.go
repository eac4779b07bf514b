// Package handlers provides HTTP handlers for querying stored P/E data.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/observations"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Reader is the read side of the observations repository
type Reader interface {
	ListSecurities(ctx context.Context) ([]domain.Security, error)
	GetSecurity(ctx context.Context, id int64) (*domain.Security, error)
	ListObservations(ctx context.Context, securityID int64, dates observations.DateRange) ([]domain.Observation, error)
	ListSeries(ctx context.Context, dates observations.DateRange) ([]observations.CompanySeries, error)
	GetStats(ctx context.Context) (*observations.Stats, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Handler handles P/E data HTTP requests
type Handler struct {
	reader Reader
	log    zerolog.Logger
}

// NewHandler creates a new observations handler
func NewHandler(reader Reader, log zerolog.Logger) *Handler {
	return &Handler{
		reader: reader,
		log:    log.With().Str("handler", "observations").Logger(),
	}
}

// HandleGetCompanies handles GET /api/companies
func (h *Handler) HandleGetCompanies(w http.ResponseWriter, r *http.Request) {
	securities, err := h.reader.ListSecurities(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list companies")
		http.Error(w, "Failed to list companies", http.StatusInternalServerError)
		return
	}

	companies := make([]companyResponse, 0, len(securities))
	for _, sec := range securities {
		companies = append(companies, companyResponse{
			ID:     sec.ID,
			Symbol: sec.Symbol,
			Name:   sec.Name,
			Sector: sec.Sector,
		})
	}
	h.writeJSON(w, http.StatusOK, companies)
}

// HandleGetAllSeries handles GET /api/pe-data/all?start_date=&end_date=
func (h *Handler) HandleGetAllSeries(w http.ResponseWriter, r *http.Request) {
	dates, ok := h.parseDateRange(w, r)
	if !ok {
		return
	}

	series, err := h.reader.ListSeries(r.Context(), dates)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list P/E series")
		http.Error(w, "Failed to list P/E data", http.StatusInternalServerError)
		return
	}

	out := make([]seriesResponse, 0, len(series))
	for _, cs := range series {
		points := cs.Data
		if points == nil {
			points = []observations.SeriesPoint{}
		}
		out = append(out, seriesResponse{Symbol: cs.Symbol, Name: cs.Name, Data: points})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HandleGetCompanySeries handles GET /api/pe-data/{company_id}
// Answers the stored rows in ascending date order; an unknown id is a 404.
func (h *Handler) HandleGetCompanySeries(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "company_id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}
	dates, ok := h.parseDateRange(w, r)
	if !ok {
		return
	}

	sec, err := h.reader.GetSecurity(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", id).Msg("Failed to get company")
		http.Error(w, "Failed to get company", http.StatusInternalServerError)
		return
	}
	if sec == nil {
		http.Error(w, "company not found", http.StatusNotFound)
		return
	}

	obs, err := h.reader.ListObservations(r.Context(), id, dates)
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", id).Msg("Failed to list observations")
		http.Error(w, "Failed to list P/E data", http.StatusInternalServerError)
		return
	}

	rows := make([]observationRow, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, observationRow{
			ID:        o.ID,
			CompanyID: o.SecurityID,
			Date:      o.Date,
			PERatio:   o.PERatio,
			Timestamp: o.CapturedAt.UTC().Format(time.RFC3339),
		})
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleGetStats handles GET /api/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reader.GetStats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get stats")
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, statsResponse{
		TotalCompanies: stats.TotalCompanies,
		TotalRecords:   stats.TotalObservations,
		DateRange: dateRangeResponse{
			Min: stats.EarliestDate,
			Max: stats.LatestDate,
		},
	})
}

// HandleGetRuns handles GET /api/runs?limit=N
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.reader.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"count":     len(runs),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) parseDateRange(w http.ResponseWriter, r *http.Request) (observations.DateRange, bool) {
	dates := observations.DateRange{
		From: r.URL.Query().Get("start_date"),
		To:   r.URL.Query().Get("end_date"),
	}
	for _, d := range []string{dates.From, dates.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			http.Error(w, "dates must be YYYY-MM-DD", http.StatusBadRequest)
			return dates, false
		}
	}
	if dates.From != "" && dates.To != "" && dates.From > dates.To {
		http.Error(w, "start_date is after end_date", http.StatusBadRequest)
		return dates, false
	}
	return dates, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
