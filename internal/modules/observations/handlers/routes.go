package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the P/E data query routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companies", h.HandleGetCompanies)
	r.Get("/stats", h.HandleGetStats)
	r.Get("/runs", h.HandleGetRuns)

	r.Route("/pe-data", func(r chi.Router) {
		r.Get("/all", h.HandleGetAllSeries)
		r.Get("/{company_id}", h.HandleGetCompanySeries)
	})
}
