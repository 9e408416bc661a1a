package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Queue backends for notification hand-off
const (
	QueueInline = "inline"
	QueueKafka  = "kafka"
)

// Cache backends for scraped snapshots
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// RedisConfig holds the shared cache and lock store settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// KafkaConfig holds the notification queue settings
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	ConsumerGroup     string
}

// ScraperConfig holds fetch pipeline and orchestrator settings
type ScraperConfig struct {
	// Pause before each product request
	MinDelay       time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	CacheTTL       time.Duration
	MaxAttempts    int
	// Pause between attempts
	RetryMinWait time.Duration
	RetryMaxWait time.Duration
	// Render pages with headless Chromium instead of plain HTTP
	BrowserEnabled bool
}

// SchedulerConfig holds the worker's cron settings
type SchedulerConfig struct {
	Enabled            bool
	PriceCheckSchedule string        // Cron expression (e.g., "0 * * * *" for hourly)
	AlertCheckSchedule string        // Cron expression
	PriceCheckTimeout  time.Duration // Timeout for a complete price check run
	PriceCheckLimit    int           // Products per run
	ItemDelay          time.Duration // Pause between products in a batch
	StaleAfter         time.Duration // Products checked more recently are skipped
}

// NotificationConfig holds the channel provider settings
type NotificationConfig struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailFrom       string
	FCMServerKey   string
	FCMEndpoint    string
	WhatsAppAPIURL string
	WhatsAppAPIKey string
	RequestTimeout time.Duration
}

type Config struct {
	// Server
	Port string // Ops endpoint (/health, /metrics)
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// Cache
	CacheBackend string
	Redis        RedisConfig

	// Notification queue
	NotificationQueue string
	Kafka             KafkaConfig

	Scraper       ScraperConfig
	Scheduler     SchedulerConfig
	Notifications NotificationConfig
}

// Load reads configuration from the environment, after an optional .env file
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		Port: getEnv("PORT", "9090"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/jungle_alert?sslmode=disable"),

		// Cache
		CacheBackend: getEnv("CACHE_BACKEND", CacheMemory),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "jungle:"),
		},

		// Notification queue
		NotificationQueue: getEnv("NOTIFICATION_QUEUE", QueueInline),
		Kafka: KafkaConfig{
			Brokers:           getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "notification-jobs"),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "jungle-alert-notifier"),
		},

		Scraper: ScraperConfig{
			MinDelay:       getDurationEnv("SCRAPER_MIN_DELAY", 5*time.Second),
			MaxDelay:       getDurationEnv("SCRAPER_MAX_DELAY", 10*time.Second),
			RequestTimeout: getDurationEnv("SCRAPER_REQUEST_TIMEOUT", 45*time.Second),
			ConnectTimeout: getDurationEnv("SCRAPER_CONNECT_TIMEOUT", 15*time.Second),
			CacheTTL:       getDurationEnv("SCRAPER_CACHE_TTL", time.Hour),
			MaxAttempts:    getIntEnv("SCRAPER_MAX_ATTEMPTS", 2),
			RetryMinWait:   getDurationEnv("SCRAPER_RETRY_MIN_WAIT", 30*time.Second),
			RetryMaxWait:   getDurationEnv("SCRAPER_RETRY_MAX_WAIT", 60*time.Second),
			BrowserEnabled: getBoolEnv("SCRAPER_BROWSER_ENABLED", false),
		},

		Scheduler: SchedulerConfig{
			Enabled:            getBoolEnv("SCHEDULER_ENABLED", true),
			PriceCheckSchedule: getEnv("PRICE_CHECK_SCHEDULE", "0 * * * *"),
			AlertCheckSchedule: getEnv("ALERT_CHECK_SCHEDULE", "*/15 * * * *"),
			PriceCheckTimeout:  getDurationEnv("PRICE_CHECK_TIMEOUT", 30*time.Minute),
			PriceCheckLimit:    getIntEnv("PRICE_CHECK_LIMIT", 50),
			ItemDelay:          getDurationEnv("PRICE_CHECK_ITEM_DELAY", 500*time.Millisecond),
			StaleAfter:         getDurationEnv("PRICE_CHECK_STALE_AFTER", time.Hour),
		},

		Notifications: NotificationConfig{
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       getIntEnv("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			MailFrom:       getEnv("MAIL_FROM", "alerts@jungle-alert.app"),
			FCMServerKey:   os.Getenv("FCM_SERVER_KEY"),
			FCMEndpoint:    getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			WhatsAppAPIURL: os.Getenv("WHATSAPP_API_URL"),
			WhatsAppAPIKey: os.Getenv("WHATSAPP_API_KEY"),
			RequestTimeout: getDurationEnv("NOTIFICATION_TIMEOUT", 15*time.Second),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
