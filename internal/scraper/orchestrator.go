package scraper

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/metrics"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// CacheKeyPrefix namespaces scraped snapshots in the shared cache
const CacheKeyPrefix = "amazon_enriched_"

// Cache is the key/value store holding serialized snapshots
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OrchestratorConfig holds configuration for the scraper orchestrator
type OrchestratorConfig struct {
	// CacheTTL is how long a fresh snapshot is served from the cache
	CacheTTL time.Duration
	// RetryConfig drives ScrapeWithRetry
	RetryConfig RetryConfig
}

// DefaultOrchestratorConfig returns a one hour cache and two attempts
func DefaultOrchestratorConfig() OrchestratorConfig {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = 2
	return OrchestratorConfig{
		CacheTTL:    time.Hour,
		RetryConfig: retry,
	}
}

// ScrapeResult holds the outcome of a successful scrape
type ScrapeResult struct {
	Snapshot *model.ProductSnapshot
	Cached   bool
	Duration time.Duration
}

// Orchestrator resolves, fetches, extracts and caches product pages
type Orchestrator struct {
	config   OrchestratorConfig
	fetcher  Fetcher
	resolver ShortLinkResolver
	cache    Cache
	metrics  *MetricsCollector
	logger   *slog.Logger
}

// NewOrchestrator creates a new scraper orchestrator. A nil cache disables caching.
func NewOrchestrator(cfg OrchestratorConfig, fetcher Fetcher, resolver ShortLinkResolver, cache Cache, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	return &Orchestrator{
		config:   cfg,
		fetcher:  fetcher,
		resolver: resolver,
		cache:    cache,
		metrics:  NewMetricsCollector(),
		logger:   logger,
	}
}

// CacheKey derives the cache key of a normalized product URL
func CacheKey(normalizedURL string) string {
	sum := md5.Sum([]byte(normalizedURL))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Scrape returns a snapshot for rawURL. With useCache a cached snapshot is
// returned when present; a fresh snapshot is always written back to the cache.
func (o *Orchestrator) Scrape(ctx context.Context, rawURL string, useCache bool) (result *ScrapeResult, err error) {
	ctx, span := metrics.StartSpan(ctx, "scraper.Scrape",
		attribute.String("url", truncate(rawURL, 100)),
		attribute.Bool("use_cache", useCache),
	)
	defer func() { metrics.EndSpan(span, err) }()

	pageURL, err := o.resolveURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	info, err := marketplace.Resolve(pageURL)
	if err != nil {
		o.logger.Warn("Could not resolve product URL", slog.String("url", truncate(pageURL, 100)))
		return nil, &ResolutionError{URL: pageURL, Err: err}
	}
	mp := string(info.Marketplace)
	span.SetAttributes(attribute.String("marketplace", mp), attribute.String("asin", info.ASIN))

	key := CacheKey(pageURL)
	if useCache {
		if snap, ok := o.fromCache(ctx, key); ok {
			o.metrics.RecordCacheHit(mp)
			metrics.ScrapeCacheHitsTotal.Inc()
			o.logger.Info("Returning cached product data", slog.String("asin", info.ASIN))
			return &ScrapeResult{Snapshot: snap, Cached: true}, nil
		}
	}

	o.metrics.StartScrape(mp)
	start := time.Now()

	snap, err := o.fetchAndExtract(ctx, pageURL, info)
	duration := time.Since(start)
	if err != nil {
		o.metrics.RecordFailure(mp, duration, err)
		metrics.ScrapeRequestsTotal.WithLabelValues(mp, metrics.ResultFailure).Inc()
		var challenge *BotChallengeError
		if errors.As(err, &challenge) {
			metrics.BotChallengesTotal.WithLabelValues(mp).Inc()
		}
		o.logger.Error("Failed to scrape product",
			slog.String("asin", info.ASIN),
			slog.String("marketplace", mp),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return nil, err
	}

	o.metrics.RecordSuccess(mp, duration)
	metrics.ScrapeRequestsTotal.WithLabelValues(mp, metrics.ResultSuccess).Inc()
	metrics.ScrapeDuration.Observe(duration.Seconds())
	o.toCache(ctx, key, snap)

	o.logger.Info("Successfully scraped product",
		slog.String("asin", snap.ASIN),
		slog.String("marketplace", mp),
		slog.Bool("has_price", snap.Price.Valid),
		slog.Duration("duration", duration),
	)

	return &ScrapeResult{Snapshot: snap, Duration: duration}, nil
}

// ScrapeWithRetry scrapes with up to maxAttempts attempts. Only the first
// attempt may be served from the cache. maxAttempts <= 0 uses the configured default.
func (o *Orchestrator) ScrapeWithRetry(ctx context.Context, rawURL string, maxAttempts int) (*ScrapeResult, error) {
	cfg := o.config.RetryConfig
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}

	var result *ScrapeResult
	err := WithRetry(ctx, cfg, o.logger, func(attempt int) error {
		o.logger.Info("Scraping attempt",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.String("url", truncate(rawURL, 100)),
		)
		var err error
		result, err = o.Scrape(ctx, rawURL, attempt == 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveURL normalizes rawURL, following a short link when needed
func (o *Orchestrator) resolveURL(ctx context.Context, rawURL string) (string, error) {
	pageURL := marketplace.Normalize(rawURL)
	if !marketplace.IsShortLink(pageURL) {
		return pageURL, nil
	}

	if o.resolver == nil {
		return "", &ResolutionError{URL: pageURL, Err: ErrNoShortLinkResolver}
	}

	resolved, err := o.resolver.ResolveShortLink(ctx, pageURL)
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) || ctx.Err() != nil {
			return "", err
		}
		return "", &ResolutionError{URL: pageURL, Err: err}
	}

	pageURL = marketplace.Normalize(resolved)
	if marketplace.IsShortLink(pageURL) {
		return "", &ResolutionError{URL: pageURL, Err: ErrShortLinkLoop}
	}
	return pageURL, nil
}

func (o *Orchestrator) fetchAndExtract(ctx context.Context, pageURL string, info marketplace.Info) (*model.ProductSnapshot, error) {
	if o.fetcher == nil {
		return nil, &TransportError{URL: pageURL, Err: errors.New("no fetcher configured")}
	}

	html, err := o.fetcher.Fetch(ctx, pageURL, info.Marketplace)
	if err != nil {
		return nil, err
	}

	snap := Extract(html, pageURL, info.ASIN, info.Marketplace)
	if !snap.Valid() {
		return nil, &ExtractionIncompleteError{ASIN: info.ASIN, Missing: snap.MissingFields()}
	}
	return snap, nil
}

func (o *Orchestrator) fromCache(ctx context.Context, key string) (*model.ProductSnapshot, bool) {
	if o.cache == nil {
		return nil, false
	}

	data, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		o.logger.Warn("Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snap model.ProductSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		o.logger.Warn("Discarding unreadable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	return &snap, true
}

func (o *Orchestrator) toCache(ctx context.Context, key string, snap *model.ProductSnapshot) {
	if o.cache == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		o.logger.Warn("Could not encode snapshot for cache", slog.String("error", err.Error()))
		return
	}
	if err := o.cache.Set(ctx, key, data, o.config.CacheTTL); err != nil {
		o.logger.Warn("Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// FinishRun closes the current metrics run
func (o *Orchestrator) FinishRun() {
	o.metrics.FinishRun()
}

// GetMetrics returns the metrics collector
func (o *Orchestrator) GetMetrics() *MetricsCollector {
	return o.metrics
}

// GetHealthStatus returns the current health status
func (o *Orchestrator) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	return o.metrics.GetHealthStatus(nextRunTime)
}
