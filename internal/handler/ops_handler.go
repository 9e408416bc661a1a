// Package handler serves the worker's operational endpoints.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

// HealthReporter reports scraper health given the next scheduled run
type HealthReporter interface {
	GetHealthStatus(nextRunTime time.Time) scraper.HealthStatus
}

// JobRunner exposes the scheduler to the ops endpoints
type JobRunner interface {
	RunNow()
	GetNextRunTime() time.Time
}

// ProductGetter loads a product
type ProductGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// TrendAnalyzer summarizes a product's recent price history
type TrendAnalyzer interface {
	AnalyzePriceTrend(ctx context.Context, product *model.Product, days int) (*service.PriceTrend, error)
}

// OpsHandler serves health, manual trigger and trend endpoints
type OpsHandler struct {
	health   HealthReporter
	jobs     JobRunner
	products ProductGetter
	trends   TrendAnalyzer
}

// NewOpsHandler creates an OpsHandler. A nil jobs runner disables the trigger endpoint.
func NewOpsHandler(health HealthReporter, jobs JobRunner, products ProductGetter, trends TrendAnalyzer) *OpsHandler {
	return &OpsHandler{health: health, jobs: jobs, products: products, trends: trends}
}

// Health reports the scraper status; 503 when too many marketplaces are failing
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	var next time.Time
	if h.jobs != nil {
		next = h.jobs.GetNextRunTime()
	}

	status := h.health.GetHealthStatus(next)
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}

// TriggerPriceCheck starts a price check in the background
func (h *OpsHandler) TriggerPriceCheck(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "scheduler is disabled")
		return
	}
	h.jobs.RunNow()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// PriceTrend returns the trend of a product over ?days= (default 30)
func (h *OpsHandler) PriceTrend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondAppError(w, apperror.ValidationError("id", "invalid product id"))
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			respondAppError(w, apperror.ValidationError("days", "must be a positive integer"))
			return
		}
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	trend, err := h.trends.AnalyzePriceTrend(r.Context(), product, days)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trend)
}
