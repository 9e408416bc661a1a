// Package metrics holds the process-wide Prometheus collectors and the tracer
// used by the scraping and alerting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

var (
	ScrapeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_requests_total",
		Help: "Total number of product scrapes by marketplace and result",
	}, []string{"marketplace", "result"})

	ScrapeCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_cache_hits_total",
		Help: "Total number of scrapes served from the result cache",
	})

	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scrape_duration_seconds",
		Help:    "Latency of uncached product scrapes",
		Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30, 45, 60, 120},
	})

	BotChallengesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_challenges_total",
		Help: "Total number of bot challenge pages received",
	}, []string{"marketplace"})

	PriceChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_changes_total",
		Help: "Total number of detected price changes by direction",
	}, []string{"direction"})

	AlertsTriggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_triggered_total",
		Help: "Total number of alerts triggered by type",
	}, []string{"type"})

	NotificationsHandedOffTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_handed_off_total",
		Help: "Total number of notification hand-offs by channel and result",
	}, []string{"channel", "result"})

	PriceCheckRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_check_runs_total",
		Help: "Total number of price check batch runs",
	}, []string{"result"})
)
