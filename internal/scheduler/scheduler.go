// Package scheduler provides cron-based scheduling of price and alert checks.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/cache"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

const (
	priceCheckLock = "price-check"
	alertCheckLock = "alert-check"
)

// Config holds the scheduler configuration
type Config struct {
	// PriceCheckSchedule is a standard 5 field cron expression (e.g. "0 * * * *" for hourly)
	PriceCheckSchedule string
	// AlertCheckSchedule is a standard cron expression; empty disables the job
	AlertCheckSchedule string
	// Timeout is the maximum duration of one run
	Timeout time.Duration
	// SendNotifications is passed to scheduled alert checks
	SendNotifications bool
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		PriceCheckSchedule: "0 * * * *",    // Every hour at minute 0
		AlertCheckSchedule: "*/15 * * * *", // Every 15 minutes
		Timeout:            30 * time.Minute,
		SendNotifications:  true,
		Enabled:            true,
	}
}

// PriceChecker runs a batch price check
type PriceChecker interface {
	CheckPrices(ctx context.Context, opts service.PriceCheckOptions) (*service.PriceCheckReport, error)
}

// AlertChecker runs a batch alert check
type AlertChecker interface {
	CheckAlerts(ctx context.Context, opts service.AlertCheckOptions) (*service.AlertCheckReport, error)
}

// Scheduler manages the scheduled jobs
type Scheduler struct {
	cron         *cron.Cron
	prices       PriceChecker
	alerts       AlertChecker
	locker       cache.Locker
	config       Config
	logger       *slog.Logger
	priceEntryID cron.EntryID
	alertEntryID cron.EntryID
}

// New creates a new Scheduler instance. A nil locker runs jobs without
// cross-process locking.
func New(cfg Config, prices PriceChecker, alerts AlertChecker, locker cache.Locker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		prices: prices,
		alerts: alerts,
		locker: locker,
		config: cfg,
		logger: logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	entryID, err := s.cron.AddFunc("0 "+s.config.PriceCheckSchedule, s.runPriceCheck)
	if err != nil {
		return err
	}
	s.priceEntryID = entryID

	if s.config.AlertCheckSchedule != "" && s.alerts != nil {
		entryID, err = s.cron.AddFunc("0 "+s.config.AlertCheckSchedule, s.runAlertCheck)
		if err != nil {
			return err
		}
		s.alertEntryID = entryID
	}

	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("price_check_schedule", s.config.PriceCheckSchedule),
		slog.String("alert_check_schedule", s.config.AlertCheckSchedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler. The returned context is done once
// running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate price check (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runPriceCheck()
}

func (s *Scheduler) runPriceCheck() {
	s.withLock(priceCheckLock, func(ctx context.Context) {
		report, err := s.prices.CheckPrices(ctx, service.PriceCheckOptions{})
		if err != nil {
			s.logger.Error("Price check job failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("Price check job completed",
			slog.String("run_id", report.RunID),
			slog.Int("updated", report.Updated),
			slog.Int("price_changes", report.PriceChanges),
			slog.Int("errors", report.Errors),
			slog.Duration("duration", report.Duration),
		)
	})
}

func (s *Scheduler) runAlertCheck() {
	s.withLock(alertCheckLock, func(ctx context.Context) {
		report, err := s.alerts.CheckAlerts(ctx, service.AlertCheckOptions{SendNotifications: s.config.SendNotifications})
		if err != nil {
			s.logger.Error("Alert check job failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("Alert check job completed",
			slog.Int("products_checked", report.ProductsChecked),
			slog.Int("triggered", len(report.Triggered)),
			slog.Int("errors", report.Errors),
		)
	})
}

// withLock runs job under the named lock with the configured timeout. A
// run is skipped when another process holds the lock.
func (s *Scheduler) withLock(name string, job func(ctx context.Context)) {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, name, timeout)
		if err != nil {
			s.logger.Error("Failed to acquire job lock", slog.String("job", name), slog.String("error", err.Error()))
			return
		}
		if !acquired {
			s.logger.Info("Job already running elsewhere, skipping", slog.String("job", name))
			return
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), name); err != nil {
				s.logger.Warn("Failed to release job lock", slog.String("job", name), slog.String("error", err.Error()))
			}
		}()
	}

	startTime := time.Now()
	s.logger.Info("Starting scheduled job", slog.String("job", name))
	job(ctx)
	s.logger.Debug("Scheduled job finished", slog.String("job", name), slog.Duration("duration", time.Since(startTime)))
}

// GetNextRunTime returns the next scheduled price check
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.priceEntryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.priceEntryID)
	return entry.Next
}

// GetLastRunTime returns the last price check run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.priceEntryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.priceEntryID)
	return entry.Prev
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
