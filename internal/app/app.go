// Package app assembles the price pipeline from configuration. The commands
// under cmd/ share it so they run the same services against the same stores.
package app

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/cache"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/config"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/notification"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/queue"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper/browser"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

// Store is a cache that also hands out run locks
type Store interface {
	cache.Cache
	cache.Locker
}

// App holds the wired services and the resources they share
type App struct {
	DB    *sqlx.DB
	Cache Store

	Products *repository.ProductRepository
	Alerts   *repository.AlertRepository
	History  *repository.PriceHistoryRepository
	Users    *repository.UserRepository

	Scraper    *scraper.Orchestrator
	Queue      queue.Queue
	Worker     *service.NotificationWorker
	Dispatcher *service.NotificationService
	AlertSvc   *service.AlertService
	PriceCheck *service.PriceCheckService
	Detection  *service.PriceDetectionService

	closers []func() error
	logger  *slog.Logger
}

// New connects to the database and builds every service. Close releases
// whatever New opened.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	a, err := NewWithDB(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.closers = append([]func() error{db.Close}, a.closers...)
	return a, nil
}

// NewWithDB builds the services on an already open database
func NewWithDB(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		DB:       db,
		Products: repository.NewProductRepository(db),
		Alerts:   repository.NewAlertRepository(db),
		History:  repository.NewPriceHistoryRepository(db),
		Users:    repository.NewUserRepository(db),
		logger:   logger,
	}

	if err := a.buildCache(cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.buildScraper(cfg); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Worker = service.NewNotificationWorker(a.Alerts, a.Users, a.Products, a.History, Senders(cfg.Notifications, logger), logger)
	a.buildQueue(cfg)

	a.Dispatcher = service.NewNotificationService(a.Alerts, a.Users, a.Queue, logger)
	a.AlertSvc = service.NewAlertService(a.Alerts, a.Products, a.Dispatcher, logger)
	a.Detection = service.NewPriceDetectionService(a.History)
	a.PriceCheck = service.NewPriceCheckService(a.Products, a.History, a.Scraper, a.AlertSvc, service.PriceCheckConfig{
		Limit:       cfg.Scheduler.PriceCheckLimit,
		ItemDelay:   cfg.Scheduler.ItemDelay,
		StaleAfter:  cfg.Scheduler.StaleAfter,
		MaxAttempts: cfg.Scraper.MaxAttempts,
	}, logger)

	return a, nil
}

func (a *App) buildCache(cfg *config.Config) error {
	store, closeFn, err := NewStore(cfg, a.logger)
	if err != nil {
		return err
	}
	a.Cache = store
	a.closers = append(a.closers, closeFn)
	return nil
}

func (a *App) buildScraper(cfg *config.Config) error {
	orch, closeFn, err := NewScraper(cfg.Scraper, a.Cache, a.logger)
	if err != nil {
		return err
	}
	a.Scraper = orch
	a.closers = append(a.closers, closeFn)
	return nil
}

// NewStore returns the configured snapshot cache and lock store
func NewStore(cfg *config.Config, logger *slog.Logger) (Store, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheBackend != config.CacheRedis {
		logger.Info("Using in-memory cache")
		return cache.NewMemoryCache(), noopClose, nil
	}

	rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("Using redis cache", slog.String("addr", cfg.Redis.Addr))
	rc := cache.NewRedisCache(rdb, cfg.Redis.Prefix)
	return rc, rc.Close, nil
}

// NewScraper builds the orchestrator with an HTTP fetcher, or a headless
// browser fetcher when BrowserEnabled is set. A nil store disables caching.
func NewScraper(cfg config.ScraperConfig, store scraper.Cache, logger *slog.Logger) (*scraper.Orchestrator, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	delays := &scraper.RandomDelays{
		MinRequestDelay: cfg.MinDelay,
		MaxRequestDelay: cfg.MaxDelay,
		MinBackoff:      cfg.RetryMinWait,
		MaxBackoff:      cfg.RetryMaxWait,
	}
	headers := scraper.NewRandomHeaders()

	client := scraper.NewHTTPClient(scraper.FetcherConfig{
		RequestTimeout: cfg.RequestTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	httpFetcher := scraper.NewHTTPFetcher(client, headers, delays, logger)

	var fetcher scraper.Fetcher = httpFetcher
	closeFn := noopClose
	if cfg.BrowserEnabled {
		poolCfg := browser.DefaultPoolConfig()
		if cfg.RequestTimeout > 0 {
			poolCfg.PageTimeout = cfg.RequestTimeout
		}
		pool, err := browser.NewPool(poolCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("starting browser pool: %w", err)
		}
		closeFn = pool.Close
		fetcher = browser.NewFetcher(pool, headers, delays, logger)
	}

	orchCfg := scraper.DefaultOrchestratorConfig()
	orchCfg.CacheTTL = cfg.CacheTTL
	orchCfg.RetryConfig = scraper.RetryConfig{MaxAttempts: cfg.MaxAttempts, Delays: delays}

	// short links are always followed over plain HTTP
	return scraper.NewOrchestrator(orchCfg, fetcher, httpFetcher, store, logger), closeFn, nil
}

func noopClose() error { return nil }

func (a *App) buildQueue(cfg *config.Config) {
	switch cfg.NotificationQueue {
	case config.QueueKafka:
		kq := queue.NewKafkaQueue(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic, a.logger)
		a.Queue = kq
		a.closers = append(a.closers, kq.Close)
		a.logger.Info("Notifications handed off to kafka",
			slog.String("topic", cfg.Kafka.NotificationTopic),
			slog.Any("brokers", cfg.Kafka.Brokers),
		)
	default:
		a.Queue = queue.NewInlineQueue(a.Worker)
	}
}

// Senders builds one sender per channel from the provider settings.
// Unconfigured providers still get a sender; it reports itself unconfigured on Send.
func Senders(cfg config.NotificationConfig, logger *slog.Logger) []notification.Sender {
	client := notification.NewHTTPClient(cfg.RequestTimeout)
	return []notification.Sender{
		notification.NewEmailSender(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     strconv.Itoa(cfg.SMTPPort),
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, logger),
		notification.NewPushSender(notification.FCMConfig{
			ServerKey: cfg.FCMServerKey,
			Endpoint:  cfg.FCMEndpoint,
		}, client, logger),
		notification.NewWhatsAppSender(notification.WhatsAppConfig{
			APIURL: cfg.WhatsAppAPIURL,
			APIKey: cfg.WhatsAppAPIKey,
		}, client, logger),
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
