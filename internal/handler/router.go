package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the ops endpoints and the metrics handler
func NewRouter(h *OpsHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics)
	r.Post("/jobs/price-check", h.TriggerPriceCheck)
	r.Get("/products/{id}/trend", h.PriceTrend)

	return r
}
