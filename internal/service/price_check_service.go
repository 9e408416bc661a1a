package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/metrics"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
)

// ErrNoPrice is returned when a scrape succeeded without finding a price
var ErrNoPrice = errors.New("no price data found")

// Scraper fetches fresh product snapshots
type Scraper interface {
	ScrapeWithRetry(ctx context.Context, rawURL string, maxAttempts int) (*scraper.ScrapeResult, error)
	FinishRun()
}

// AlertEvaluator triggers the alerts of a product
type AlertEvaluator interface {
	Evaluate(ctx context.Context, product *model.Product, sendNotifications bool) ([]model.Alert, error)
}

// PriceCheckConfig holds the batch settings
type PriceCheckConfig struct {
	Limit       int
	ItemDelay   time.Duration
	StaleAfter  time.Duration
	MaxAttempts int
}

// DefaultPriceCheckConfig returns 50 products per run, half a second between
// products and a one hour staleness window
func DefaultPriceCheckConfig() PriceCheckConfig {
	return PriceCheckConfig{
		Limit:      50,
		ItemDelay:  500 * time.Millisecond,
		StaleAfter: time.Hour,
	}
}

// PriceCheckOptions narrows a run; ProductID wins over UserID
type PriceCheckOptions struct {
	Limit     int
	UserID    *int64
	ProductID *int64
}

// PriceCheckReport summarizes a run
type PriceCheckReport struct {
	RunID        string
	Checked      int
	Updated      int
	PriceChanges int
	Errors       int
	Triggered    int
	Duration     time.Duration
}

// PriceCheckService refreshes product prices and evaluates alerts on change
type PriceCheckService struct {
	products  repository.ProductRepositoryInterface
	history   repository.PriceHistoryRepositoryInterface
	scraper   Scraper
	evaluator AlertEvaluator
	config    PriceCheckConfig
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewPriceCheckService creates a new price check service
func NewPriceCheckService(
	products repository.ProductRepositoryInterface,
	history repository.PriceHistoryRepositoryInterface,
	s Scraper,
	evaluator AlertEvaluator,
	cfg PriceCheckConfig,
	logger *slog.Logger,
) *PriceCheckService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Hour
	}
	return &PriceCheckService{
		products:  products,
		history:   history,
		scraper:   s,
		evaluator: evaluator,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
		sleep:     scraper.Sleep,
	}
}

// CheckPrices scrapes a batch of products one at a time. Item failures are
// counted and never abort the run; only listing failures and cancellation
// return an error.
func (s *PriceCheckService) CheckPrices(ctx context.Context, opts PriceCheckOptions) (report *PriceCheckReport, err error) {
	start := s.now()
	report = &PriceCheckReport{RunID: uuid.NewString()}
	ctx = logger.WithRunID(ctx, report.RunID)
	log := logger.FromContext(ctx, s.logger)

	defer func() {
		s.scraper.FinishRun()
		report.Duration = s.now().Sub(start)
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailure
		}
		metrics.PriceCheckRunsTotal.WithLabelValues(result).Inc()
	}()

	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.Limit
	}

	products, err := s.products.ListForPriceCheck(ctx, model.ProductFilter{
		ProductID:     opts.ProductID,
		UserID:        opts.UserID,
		CheckedBefore: start.Add(-s.config.StaleAfter),
		Limit:         limit,
	})
	if err != nil {
		return report, fmt.Errorf("check prices: %w", err)
	}

	if len(products) == 0 {
		log.Info("No products to check")
		return report, nil
	}
	log.Info("Checking prices", slog.Int("products", len(products)))

	for i := range products {
		if i > 0 {
			if err := s.sleep(ctx, s.config.ItemDelay); err != nil {
				return report, err
			}
		}

		report.Checked++
		outcome, err := s.CheckProduct(ctx, &products[i])
		if err != nil {
			report.Errors++
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Warn("Failed to check price",
				slog.Int64("product_id", products[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		report.Updated++
		if outcome.Change.Changed {
			report.PriceChanges++
		}
		report.Triggered += len(outcome.Triggered)
	}

	log.Info("Price check completed",
		slog.Int("updated", report.Updated),
		slog.Int("price_changes", report.PriceChanges),
		slog.Int("errors", report.Errors),
	)
	return report, nil
}

// ProductCheck is the outcome of checking one product
type ProductCheck struct {
	Change    PriceChange
	Triggered []model.Alert
}

// CheckProduct scrapes product, persists the new price and, when the price
// moved significantly, records history and evaluates alerts against the
// reloaded product
func (s *PriceCheckService) CheckProduct(ctx context.Context, product *model.Product) (*ProductCheck, error) {
	ctx = logger.WithProductID(ctx, product.ID)
	log := logger.FromContext(ctx, s.logger)

	result, err := s.scraper.ScrapeWithRetry(ctx, product.AmazonURL, s.config.MaxAttempts)
	if err != nil {
		return nil, err
	}
	snap := result.Snapshot
	if snap == nil || !snap.Price.Valid {
		return nil, ErrNoPrice
	}

	// thresholds follow the snapshot's currency until the product has one of its own
	currencyCode := product.Currency
	if currencyCode == "" {
		currencyCode = snap.Currency
	}
	change := DetectPriceChange(product.CurrentPrice, snap.Price, currencyCode)

	if err := s.products.Update(ctx, product.ID, s.buildUpdate(product, snap)); err != nil {
		return nil, err
	}

	check := &ProductCheck{Change: change}
	if !change.Changed {
		return check, nil
	}

	metrics.PriceChangesTotal.WithLabelValues(string(change.Direction)).Inc()
	log.Info("Price changed",
		slog.String("old_price", product.CurrentPrice.Decimal.String()),
		slog.String("new_price", snap.Price.Decimal.String()),
		slog.String("direction", string(change.Direction)),
	)

	if _, err := s.history.Append(ctx, product.ID, snap.Price.Decimal); err != nil {
		return nil, err
	}

	refreshed, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	check.Triggered, err = s.evaluator.Evaluate(ctx, refreshed, true)
	if err != nil {
		return nil, err
	}
	return check, nil
}

// buildUpdate maps a snapshot onto the product. Currency and marketplace are
// only filled in when the product has none yet.
func (s *PriceCheckService) buildUpdate(product *model.Product, snap *model.ProductSnapshot) model.ProductUpdate {
	price := snap.Price.Decimal
	checked := s.now()
	update := model.ProductUpdate{
		CurrentPrice:   &price,
		LastPriceCheck: &checked,
	}

	if snap.Title != "" {
		update.Title = &snap.Title
	}
	if snap.ImageURL != "" {
		update.ImageURL = &snap.ImageURL
	}
	if snap.ASIN != "" {
		update.ASIN = &snap.ASIN
	}
	if product.Currency == "" && snap.Currency != "" {
		update.Currency = &snap.Currency
	}
	if product.Marketplace == "" && snap.Marketplace != "" {
		update.Marketplace = &snap.Marketplace
	}
	return update
}
