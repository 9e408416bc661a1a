package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/metrics"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/notification"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/queue"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
)

// DispatchResult lists what happened to each channel of one dispatch
type DispatchResult struct {
	HandedOff []model.Channel
	// Skipped channels were not wanted, already sent, or unconfigured
	Skipped []model.Channel
	Failed  []model.Channel
}

// NotificationService hands triggered alerts to the notification queue,
// one job per channel
type NotificationService struct {
	alerts repository.AlertRepositoryInterface
	users  repository.UserRepositoryInterface
	queue  queue.Queue
	logger *slog.Logger
}

// NewNotificationService creates a new notification dispatcher
func NewNotificationService(
	alerts repository.AlertRepositoryInterface,
	users repository.UserRepositoryInterface,
	q queue.Queue,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{alerts: alerts, users: users, queue: q, logger: logger}
}

// Dispatch enqueues a job for every channel the user wants and the alert has
// not been sent on yet. A successful hand-off sets the channel's sent flag.
// Channels are independent: a failure is logged and leaves the flag unset
// so a later dispatch can try that channel again.
func (s *NotificationService) Dispatch(ctx context.Context, alert *model.Alert) (result *DispatchResult, err error) {
	ctx, span := metrics.StartSpan(ctx, "notification.Dispatch", attribute.Int64("alert_id", alert.ID))
	defer func() { metrics.EndSpan(span, err) }()

	log := logger.FromContext(logger.WithAlertID(ctx, alert.ID), s.logger)

	user, err := s.users.GetByID(ctx, alert.UserID)
	if err != nil {
		return nil, fmt.Errorf("dispatch alert %d: %w", alert.ID, err)
	}

	result = &DispatchResult{}
	for _, ch := range model.Channels {
		if !user.WantsChannel(ch) || alert.Sent(ch) {
			result.Skipped = append(result.Skipped, ch)
			continue
		}

		if err := s.queue.Enqueue(ctx, queue.NewJob(ch, alert)); err != nil {
			if apperror.IsUnconfigured(err) {
				log.Warn("Notification channel not configured, skipping", slog.String("channel", string(ch)))
				metrics.NotificationsHandedOffTotal.WithLabelValues(string(ch), metrics.ResultSkipped).Inc()
				result.Skipped = append(result.Skipped, ch)
				continue
			}
			log.Error("Failed to hand off notification",
				slog.String("channel", string(ch)),
				slog.String("error", err.Error()),
			)
			metrics.NotificationsHandedOffTotal.WithLabelValues(string(ch), metrics.ResultFailure).Inc()
			result.Failed = append(result.Failed, ch)
			continue
		}
		metrics.NotificationsHandedOffTotal.WithLabelValues(string(ch), metrics.ResultSuccess).Inc()

		marked, err := s.alerts.MarkChannelSent(ctx, alert.ID, ch)
		if err != nil {
			log.Error("Failed to record notification as sent",
				slog.String("channel", string(ch)),
				slog.String("error", err.Error()),
			)
		} else if !marked {
			log.Warn("Notification was already recorded as sent", slog.String("channel", string(ch)))
		}
		alert.MarkSent(ch)
		result.HandedOff = append(result.HandedOff, ch)
	}

	log.Info("Alert dispatched",
		slog.Int("handed_off", len(result.HandedOff)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// NotificationWorker performs queued channel sends. It reloads the alert,
// its owner and the product so a job carries only identifiers.
type NotificationWorker struct {
	alerts   repository.AlertRepositoryInterface
	users    repository.UserRepositoryInterface
	products repository.ProductRepositoryInterface
	history  repository.PriceHistoryRepositoryInterface
	senders  map[model.Channel]notification.Sender
	logger   *slog.Logger
}

// NewNotificationWorker creates a worker sending through senders
func NewNotificationWorker(
	alerts repository.AlertRepositoryInterface,
	users repository.UserRepositoryInterface,
	products repository.ProductRepositoryInterface,
	history repository.PriceHistoryRepositoryInterface,
	senders []notification.Sender,
	logger *slog.Logger,
) *NotificationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	bySend := make(map[model.Channel]notification.Sender, len(senders))
	for _, s := range senders {
		bySend[s.Channel()] = s
	}
	return &NotificationWorker{
		alerts:   alerts,
		users:    users,
		products: products,
		history:  history,
		senders:  bySend,
		logger:   logger,
	}
}

// Handle sends one job. It implements queue.Handler.
func (w *NotificationWorker) Handle(ctx context.Context, job queue.Job) error {
	sender, ok := w.senders[job.Channel]
	if !ok {
		return apperror.Unconfigured(string(job.Channel))
	}

	notice, err := w.notice(ctx, job)
	if err != nil {
		return err
	}

	return sender.Send(ctx, notice)
}

func (w *NotificationWorker) notice(ctx context.Context, job queue.Job) (*notification.Notice, error) {
	alert, err := w.alerts.GetByID(ctx, job.AlertID)
	if err != nil {
		return nil, fmt.Errorf("load alert %d: %w", job.AlertID, err)
	}
	user, err := w.users.GetByID(ctx, alert.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", alert.UserID, err)
	}
	product, err := w.products.GetByID(ctx, alert.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", alert.ProductID, err)
	}

	n := &notification.Notice{Alert: alert, User: user, Product: product}

	if job.Channel == model.ChannelEmail && w.history != nil && product.CurrentPrice.Valid {
		previous, err := w.history.PreviousPrice(ctx, product.ID)
		if err != nil {
			w.logger.Warn("Could not load previous price",
				slog.Int64("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		} else if previous != nil {
			change := product.CurrentPrice.Decimal.Sub(*previous)
			n.PriceChange = &change
		}
	}

	return n, nil
}
