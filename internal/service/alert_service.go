package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/metrics"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
)

// Dispatcher hands a triggered alert to the notification channels
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *model.Alert) (*DispatchResult, error)
}

// AlertService evaluates pending alerts against a product's stored price
type AlertService struct {
	alerts     repository.AlertRepositoryInterface
	products   repository.ProductRepositoryInterface
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	alerts repository.AlertRepositoryInterface,
	products repository.ProductRepositoryInterface,
	dispatcher Dispatcher,
	logger *slog.Logger,
) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		alerts:     alerts,
		products:   products,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// ShouldTrigger applies the alert's predicate to the product. Price
// predicates never fire while the product has no known price.
func ShouldTrigger(alert *model.Alert, product *model.Product) bool {
	switch alert.AlertType {
	case model.AlertTypePriceDrop:
		return product.CurrentPrice.Valid && product.CurrentPrice.Decimal.LessThanOrEqual(alert.TargetPrice)
	case model.AlertTypePriceIncrease:
		return product.CurrentPrice.Valid && product.CurrentPrice.Decimal.GreaterThanOrEqual(alert.TargetPrice)
	case model.AlertTypeStockAvailable:
		// stock is not tracked yet, so the product always counts as available
		return true
	}
	return false
}

// Evaluate triggers every pending alert of product whose predicate holds and
// returns the alerts transitioned by this call. With sendNotifications each
// of them is dispatched right away.
func (s *AlertService) Evaluate(ctx context.Context, product *model.Product, sendNotifications bool) (triggered []model.Alert, err error) {
	ctx, span := metrics.StartSpan(ctx, "alert.Evaluate",
		attribute.Int64("product_id", product.ID),
		attribute.Bool("send_notifications", sendNotifications),
	)
	defer func() { metrics.EndSpan(span, err) }()

	ctx = logger.WithProductID(ctx, product.ID)
	log := logger.FromContext(ctx, s.logger)

	pending, err := s.alerts.ListPendingByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("evaluate product %d: %w", product.ID, err)
	}

	for i := range pending {
		alert := pending[i]
		if !alert.Pending() || !ShouldTrigger(&alert, product) {
			continue
		}

		won, err := s.alerts.MarkTriggered(ctx, alert.ID)
		if err != nil {
			log.Error("Failed to mark alert triggered",
				slog.Int64("alert_id", alert.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !won {
			log.Debug("Alert already triggered elsewhere", slog.Int64("alert_id", alert.ID))
			continue
		}

		now := s.now()
		alert.TriggeredAt = &now
		metrics.AlertsTriggeredTotal.WithLabelValues(string(alert.AlertType)).Inc()

		log.Info("Alert triggered",
			slog.Int64("alert_id", alert.ID),
			slog.String("alert_type", string(alert.AlertType)),
			slog.String("target_price", alert.TargetPrice.String()),
		)

		if sendNotifications && s.dispatcher != nil {
			if _, err := s.dispatcher.Dispatch(logger.WithAlertID(ctx, alert.ID), &alert); err != nil {
				log.Error("Failed to dispatch alert notifications",
					slog.Int64("alert_id", alert.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		triggered = append(triggered, alert)
	}

	return triggered, nil
}

// AlertCheckOptions selects the products of an alert check
type AlertCheckOptions struct {
	ProductID         *int64
	SendNotifications bool
}

// AlertCheckReport summarizes an alert check
type AlertCheckReport struct {
	ProductsChecked int
	Errors          int
	Triggered       []model.Alert
}

// CheckAlerts evaluates one product, or every product with pending alerts,
// against its stored price. A missing product is an error; failures on
// individual products are counted and the run continues.
func (s *AlertService) CheckAlerts(ctx context.Context, opts AlertCheckOptions) (*AlertCheckReport, error) {
	var products []model.Product
	if opts.ProductID != nil {
		product, err := s.products.GetByID(ctx, *opts.ProductID)
		if err != nil {
			return nil, err
		}
		products = []model.Product{*product}
	} else {
		var err error
		products, err = s.products.ListWithPendingAlerts(ctx)
		if err != nil {
			return nil, err
		}
	}

	report := &AlertCheckReport{}
	for i := range products {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.ProductsChecked++
		triggered, err := s.Evaluate(ctx, &products[i], opts.SendNotifications)
		if err != nil {
			report.Errors++
			s.logger.Error("Alert check failed for product",
				slog.Int64("product_id", products[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Triggered = append(report.Triggered, triggered...)
	}

	return report, nil
}
