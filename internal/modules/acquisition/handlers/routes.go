package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the manual trigger route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/scrape-now", h.HandleScrapeNow)
}
