package scraper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_HealthStatus(t *testing.T) {
	t.Parallel()

	t.Run("no runs yet", func(t *testing.T) {
		t.Parallel()

		status := NewMetricsCollector().GetHealthStatus(time.Time{})
		assert.True(t, status.Healthy)
		assert.Equal(t, "No scrape runs recorded yet", status.Message)
	})

	t.Run("healthy when most marketplaces succeed", func(t *testing.T) {
		t.Parallel()

		mc := NewMetricsCollector()
		for _, mp := range []string{"US", "FR", "DE"} {
			mc.StartScrape(mp)
			mc.RecordSuccess(mp, time.Second)
		}
		mc.StartScrape("UK")
		mc.RecordFailure("UK", time.Second, errors.New("HTTP 503 error"))
		mc.FinishRun()

		status := mc.GetHealthStatus(time.Time{})
		assert.True(t, status.Healthy)
		assert.Equal(t, 4, status.TotalMarketplaces)
		assert.Equal(t, 3, status.HealthyMarketplaces)
		assert.Equal(t, []string{"UK"}, status.UnhealthyMarketplaces)
		assert.Equal(t, "unhealthy: HTTP 503 error", status.MarketplaceStatuses["UK"])
	})

	t.Run("unhealthy below threshold", func(t *testing.T) {
		t.Parallel()

		mc := NewMetricsCollector()
		mc.StartScrape("US")
		mc.RecordSuccess("US", time.Second)
		mc.StartScrape("FR")
		mc.RecordFailure("FR", time.Second, errors.New("captcha"))
		mc.FinishRun()

		status := mc.GetHealthStatus(time.Time{})
		assert.False(t, status.Healthy)
		assert.Equal(t, "Some marketplaces are experiencing issues", status.Message)
	})

	t.Run("a later failure keeps a marketplace healthy", func(t *testing.T) {
		t.Parallel()

		mc := NewMetricsCollector()
		mc.RecordCacheHit("US")
		mc.StartScrape("US")
		mc.RecordFailure("US", time.Second, errors.New("HTTP 500 error"))
		mc.FinishRun()

		summary := mc.GetSummary()
		assert.Equal(t, 1, summary.LastRunCacheHits)
		assert.Equal(t, 1, summary.LastRunFailures)
		assert.True(t, mc.GetHealthStatus(time.Time{}).Healthy)
	})
}
