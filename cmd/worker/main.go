package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/app"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/config"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/handler"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/queue"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scheduler"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		fatal(log, "Failed to initialize", err)
	}
	defer func() { _ = a.Close() }()

	var wg sync.WaitGroup

	// Notification consumer
	var consumer *queue.Consumer
	if cfg.NotificationQueue == config.QueueKafka {
		consumer = queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic, cfg.Kafka.ConsumerGroup, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, a.Worker); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Notification consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// Scheduler for price and alert checks
	var sched *scheduler.Scheduler
	var jobs handler.JobRunner
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Config{
			PriceCheckSchedule: cfg.Scheduler.PriceCheckSchedule,
			AlertCheckSchedule: cfg.Scheduler.AlertCheckSchedule,
			Timeout:            cfg.Scheduler.PriceCheckTimeout,
			SendNotifications:  true,
			Enabled:            true,
		}, a.PriceCheck, a.AlertSvc, a.Cache, log)
		if err := sched.Start(); err != nil {
			fatal(log, "Failed to start scheduler", err)
		}
		jobs = sched
	}

	h := handler.NewOpsHandler(a.Scraper, jobs, a.Products, a.Detection)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(h, promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down worker...")

		// Stop scheduler first
		if sched != nil {
			<-sched.Stop().Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Worker started",
		slog.String("port", cfg.Port),
		slog.String("env", cfg.Env),
		slog.String("notification_queue", cfg.NotificationQueue),
		slog.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(log, "Server error", err)
	}

	wg.Wait()
	if consumer != nil {
		_ = consumer.Close()
	}
	log.Info("Worker stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
