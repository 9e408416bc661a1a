package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	for _, key := range []string{"PORT", "ENV", "DATABASE_URL", "CACHE_BACKEND", "NOTIFICATION_QUEUE", "KAFKA_BROKERS", "SCRAPER_MAX_ATTEMPTS", "PRICE_CHECK_LIMIT"} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, QueueInline, cfg.NotificationQueue)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)

	assert.Equal(t, 5*time.Second, cfg.Scraper.MinDelay)
	assert.Equal(t, 10*time.Second, cfg.Scraper.MaxDelay)
	assert.Equal(t, 45*time.Second, cfg.Scraper.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.Scraper.ConnectTimeout)
	assert.Equal(t, time.Hour, cfg.Scraper.CacheTTL)
	assert.Equal(t, 2, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Scraper.RetryMinWait)
	assert.Equal(t, 60*time.Second, cfg.Scraper.RetryMaxWait)

	assert.Equal(t, 50, cfg.Scheduler.PriceCheckLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.ItemDelay)
	assert.Equal(t, time.Hour, cfg.Scheduler.StaleAfter)
	assert.Equal(t, "https://fcm.googleapis.com/fcm/send", cfg.Notifications.FCMEndpoint)
}

func TestLoad_WithEnvVars(t *testing.T) {
	// Set test environment variables
	t.Setenv("PORT", "9191")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://test:5432/testdb")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NOTIFICATION_QUEUE", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("SCRAPER_MAX_ATTEMPTS", "4")
	t.Setenv("SCRAPER_CACHE_TTL", "30m")
	t.Setenv("PRICE_CHECK_LIMIT", "not-a-number")
	t.Setenv("WHATSAPP_API_URL", "https://wa.example.com/send")

	cfg := Load()

	assert.Equal(t, "9191", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://test:5432/testdb", cfg.DatabaseURL)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, QueueKafka, cfg.NotificationQueue)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 4, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Scraper.CacheTTL)
	assert.Equal(t, 50, cfg.Scheduler.PriceCheckLimit, "invalid values fall back to the default")
	assert.Equal(t, "https://wa.example.com/send", cfg.Notifications.WhatsAppAPIURL)
}

func TestConfig_IsDevelopment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Env: tt.env}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Env: tt.env}
			assert.Equal(t, tt.expected, cfg.IsProduction())
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	assert.Equal(t, "test_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT_VAR", "default"))
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue bool
		expected     bool
	}{
		{"true value", "true", true, false, true},
		{"false value", "false", true, true, false},
		{"1 value", "1", true, false, true},
		{"0 value", "0", true, true, false},
		{"invalid value uses default", "invalid", true, true, true},
		{"unset uses default true", "", false, true, true},
		{"unset uses default false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_BOOL", tt.envValue)
			} else {
				_ = os.Unsetenv("TEST_BOOL")
			}
			assert.Equal(t, tt.expected, getBoolEnv("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("TEST_LIST", " a , b ,,c")
	assert.Equal(t, []string{"a", "b", "c"}, getListEnv("TEST_LIST", nil))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, getListEnv("TEST_LIST", []string{"x"}))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	assert.Equal(t, 12, getIntEnv("TEST_INT", 1))

	t.Setenv("TEST_INT", "twelve")
	assert.Equal(t, 1, getIntEnv("TEST_INT", 1))
}
