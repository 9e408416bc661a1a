package scraper

import (
	"sync"
	"time"
)

// ScrapeMetrics holds metrics for scrapes of a single marketplace within a run
type ScrapeMetrics struct {
	Marketplace  string
	StartedAt    time.Time
	CompletedAt  time.Time
	Attempts     int
	Successes    int
	Failures     int
	CacheHits    int
	Success      bool
	ErrorMessage string
	Duration     time.Duration
}

// MetricsCollector collects and aggregates scrape metrics per marketplace
type MetricsCollector struct {
	mu             sync.RWMutex
	currentRun     map[string]*ScrapeMetrics
	lastRun        map[string]*ScrapeMetrics
	totalRuns      int
	successfulRuns int
	failedRuns     int
	lastRunTime    time.Time
}

// NewMetricsCollector creates a new MetricsCollector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[string]*ScrapeMetrics),
		lastRun:    make(map[string]*ScrapeMetrics),
	}
}

func (mc *MetricsCollector) entry(mp string) *ScrapeMetrics {
	m, ok := mc.currentRun[mp]
	if !ok {
		m = &ScrapeMetrics{Marketplace: mp, StartedAt: time.Now()}
		mc.currentRun[mp] = m
	}
	return m
}

// StartScrape records the start of a scrape for a marketplace
func (mc *MetricsCollector) StartScrape(mp string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entry(mp).Attempts++
}

// RecordCacheHit records a scrape answered from the cache
func (mc *MetricsCollector) RecordCacheHit(mp string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := mc.entry(mp)
	m.CacheHits++
	m.Success = true
}

// RecordSuccess records a successful scrape
func (mc *MetricsCollector) RecordSuccess(mp string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := mc.entry(mp)
	m.CompletedAt = time.Now()
	m.Duration += duration
	m.Successes++
	m.Success = true
}

// RecordFailure records a failed scrape. A marketplace stays healthy for the
// run as long as at least one of its scrapes succeeded.
func (mc *MetricsCollector) RecordFailure(mp string, duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := mc.entry(mp)
	m.CompletedAt = time.Now()
	m.Duration += duration
	m.Failures++
	if m.Successes == 0 && m.CacheHits == 0 {
		m.Success = false
	}
	if err != nil {
		m.ErrorMessage = err.Error()
	}
}

// FinishRun marks the current run as complete and moves metrics to lastRun
func (mc *MetricsCollector) FinishRun() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, m := range mc.currentRun {
		if m.Success {
			mc.successfulRuns++
		} else {
			mc.failedRuns++
		}
	}

	mc.totalRuns++
	mc.lastRunTime = time.Now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[string]*ScrapeMetrics)
}

// GetLastRunMetrics returns metrics from the last completed run
func (mc *MetricsCollector) GetLastRunMetrics() map[string]*ScrapeMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*ScrapeMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		metricsCopy := *v
		result[k] = &metricsCopy
	}
	return result
}

// GetSummary returns a summary of all scrape runs
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	summary := MetricsSummary{
		TotalRuns:       mc.totalRuns,
		TotalSuccessful: mc.successfulRuns,
		TotalFailed:     mc.failedRuns,
		LastRunTime:     mc.lastRunTime,
	}
	for _, m := range mc.lastRun {
		summary.LastRunScrapes += m.Attempts
		summary.LastRunSuccesses += m.Successes
		summary.LastRunFailures += m.Failures
		summary.LastRunCacheHits += m.CacheHits
		summary.LastRunDuration += m.Duration
	}
	return summary
}

// MetricsSummary provides an overview of scraping performance
type MetricsSummary struct {
	TotalRuns        int           `json:"total_runs"`
	TotalSuccessful  int           `json:"total_successful"`
	TotalFailed      int           `json:"total_failed"`
	LastRunTime      time.Time     `json:"last_run_time"`
	LastRunScrapes   int           `json:"last_run_scrapes"`
	LastRunSuccesses int           `json:"last_run_successes"`
	LastRunFailures  int           `json:"last_run_failures"`
	LastRunCacheHits int           `json:"last_run_cache_hits"`
	LastRunDuration  time.Duration `json:"last_run_duration"`
}

// HealthStatus represents the health of the scraper
type HealthStatus struct {
	Healthy               bool              `json:"healthy"`
	LastRunTime           time.Time         `json:"last_run_time"`
	NextRunTime           time.Time         `json:"next_run_time"`
	TotalMarketplaces     int               `json:"total_marketplaces"`
	HealthyMarketplaces   int               `json:"healthy_marketplaces"`
	UnhealthyMarketplaces []string          `json:"unhealthy_marketplaces,omitempty"`
	MarketplaceStatuses   map[string]string `json:"marketplace_statuses"`
	Message               string            `json:"message,omitempty"`
}

// GetHealthStatus reports healthy when at least 70% of the marketplaces seen
// in the last run succeeded, or when nothing has run yet
func (mc *MetricsCollector) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		LastRunTime:         mc.lastRunTime,
		NextRunTime:         nextRunTime,
		TotalMarketplaces:   len(mc.lastRun),
		MarketplaceStatuses: make(map[string]string),
	}

	for mp, m := range mc.lastRun {
		if m.Success {
			status.HealthyMarketplaces++
			status.MarketplaceStatuses[mp] = "healthy"
		} else {
			status.UnhealthyMarketplaces = append(status.UnhealthyMarketplaces, mp)
			status.MarketplaceStatuses[mp] = "unhealthy: " + m.ErrorMessage
		}
	}

	if status.TotalMarketplaces > 0 {
		successRate := float64(status.HealthyMarketplaces) / float64(status.TotalMarketplaces)
		status.Healthy = successRate >= 0.7
	}

	switch {
	case len(mc.lastRun) == 0:
		status.Healthy = true
		status.Message = "No scrape runs recorded yet"
	case status.Healthy:
		status.Message = "Scraper is operating normally"
	default:
		status.Message = "Some marketplaces are experiencing issues"
	}

	return status
}
