// Package service implements the price pipeline: change detection, alert
// evaluation, notification dispatch and batch price checks.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
	"github.com/Kevram73/jungle-alert-api-sub000/pkg/currency"
)

// Direction is the way a price moved
type Direction string

const (
	DirectionNew    Direction = "new"
	DirectionStable Direction = "stable"
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
)

// Trend labels returned by AnalyzePriceTrend
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

var (
	hundred          = decimal.NewFromInt(100)
	trendThreshold   = decimal.NewFromInt(5)
	minDropPercent   = decimal.NewFromInt(5)
	dropAbsoluteMult = decimal.NewFromInt(10)
)

// PriceChange is the outcome of comparing a stored price with a scraped one
type PriceChange struct {
	Changed bool
	// PercentChange is nil when there was no previous price
	PercentChange  *decimal.Decimal
	AbsoluteChange decimal.Decimal
	Direction      Direction
}

// DetectPriceChange decides whether the move from oldPrice to newPrice is
// significant for the currency. A change counts when either the percent or
// the absolute threshold is strictly exceeded.
func DetectPriceChange(oldPrice, newPrice decimal.NullDecimal, currencyCode string) PriceChange {
	hasNew := newPrice.Valid && newPrice.Decimal.IsPositive()

	if !oldPrice.Valid || oldPrice.Decimal.IsZero() {
		change := PriceChange{Changed: hasNew, Direction: DirectionStable}
		if hasNew {
			change.Direction = DirectionNew
			change.AbsoluteChange = newPrice.Decimal
		}
		return change
	}

	// missing scrape data is never a drop to zero
	if !newPrice.Valid || newPrice.Decimal.IsZero() {
		zero := decimal.Zero
		return PriceChange{PercentChange: &zero, Direction: DirectionStable}
	}

	old, current := oldPrice.Decimal, newPrice.Decimal
	absChange := current.Sub(old).Abs()
	pctChange := absChange.Div(old).Mul(hundred)

	minPercent, minAbsolute := currency.Thresholds(currencyCode)
	changed := pctChange.GreaterThan(minPercent) || absChange.GreaterThan(minAbsolute)

	direction := DirectionStable
	if changed {
		switch current.Cmp(old) {
		case 1:
			direction = DirectionUp
		case -1:
			direction = DirectionDown
		}
	}

	pct := pctChange.Round(2)
	return PriceChange{
		Changed:        changed,
		PercentChange:  &pct,
		AbsoluteChange: absChange.Round(2),
		Direction:      direction,
	}
}

// IsSignificantPriceDrop reports whether current sits meaningfully below target:
// by more than 5% of the target, or by more than ten times the currency's
// minimum absolute change
func IsSignificantPriceDrop(current, target decimal.Decimal, currencyCode string) bool {
	if current.GreaterThanOrEqual(target) {
		return false
	}

	drop := target.Sub(current)
	if target.IsPositive() && drop.Div(target).Mul(hundred).GreaterThan(minDropPercent) {
		return true
	}

	_, minAbsolute := currency.Thresholds(currencyCode)
	return drop.GreaterThan(minAbsolute.Mul(dropAbsoluteMult))
}

// PriceTrend summarizes a product's recent price history
type PriceTrend struct {
	Trend        string              `json:"trend"`
	AveragePrice decimal.NullDecimal `json:"average_price"`
	MinPrice     decimal.NullDecimal `json:"min_price"`
	MaxPrice     decimal.NullDecimal `json:"max_price"`
	Volatility   decimal.Decimal     `json:"volatility"`
	DataPoints   int                 `json:"data_points"`
}

// PriceDetectionService analyzes stored price history
type PriceDetectionService struct {
	history repository.PriceHistoryRepositoryInterface
	now     func() time.Time
}

// NewPriceDetectionService creates a new price detection service
func NewPriceDetectionService(history repository.PriceHistoryRepositoryInterface) *PriceDetectionService {
	return &PriceDetectionService{history: history, now: time.Now}
}

// AnalyzePriceTrend compares the first and second half of the last days of
// history, with the product's current price appended as the newest point
func (s *PriceDetectionService) AnalyzePriceTrend(ctx context.Context, product *model.Product, days int) (*PriceTrend, error) {
	if days <= 0 {
		days = 30
	}

	entries, err := s.history.ListSince(ctx, product.ID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("analyze price trend: %w", err)
	}

	if len(entries) == 0 {
		return &PriceTrend{
			Trend:        TrendInsufficientData,
			AveragePrice: product.CurrentPrice,
			MinPrice:     product.CurrentPrice,
			MaxPrice:     product.CurrentPrice,
			Volatility:   decimal.Zero,
		}, nil
	}

	prices := make([]decimal.Decimal, 0, len(entries)+1)
	for _, e := range entries {
		prices = append(prices, e.Price)
	}
	if product.CurrentPrice.Valid {
		prices = append(prices, product.CurrentPrice.Decimal)
	}

	n := decimal.NewFromInt(int64(len(prices)))
	avg := decimal.Sum(prices[0], prices[1:]...).Div(n)

	variance := decimal.Zero
	for _, p := range prices {
		diff := p.Sub(avg)
		variance = variance.Add(diff.Mul(diff))
	}
	volatility := decimal.NewFromFloat(math.Sqrt(variance.Div(n).InexactFloat64()))

	trend := TrendStable
	if len(prices) >= 2 {
		split := (len(prices) + 1) / 2
		first := decimal.Avg(prices[0], prices[1:split]...)
		second := decimal.Avg(prices[split], prices[split+1:]...)
		if first.IsPositive() {
			pct := second.Sub(first).Div(first).Mul(hundred)
			switch {
			case pct.GreaterThan(trendThreshold):
				trend = TrendIncreasing
			case pct.LessThan(trendThreshold.Neg()):
				trend = TrendDecreasing
			}
		}
	}

	return &PriceTrend{
		Trend:        trend,
		AveragePrice: decimal.NewNullDecimal(avg.Round(2)),
		MinPrice:     decimal.NewNullDecimal(decimal.Min(prices[0], prices[1:]...).Round(2)),
		MaxPrice:     decimal.NewNullDecimal(decimal.Max(prices[0], prices[1:]...).Round(2)),
		Volatility:   volatility.Round(2),
		DataPoints:   len(prices),
	}, nil
}
