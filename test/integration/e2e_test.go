//go:build integration
// +build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/notification"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/queue"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/repository"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

// Schema for test database
const testSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    first_name VARCHAR(255),
    email_notifications BOOLEAN NOT NULL DEFAULT true,
    push_notifications BOOLEAN NOT NULL DEFAULT false,
    whatsapp_notifications BOOLEAN NOT NULL DEFAULT false,
    whatsapp_number VARCHAR(32),
    fcm_token TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amazon_url TEXT NOT NULL,
    asin VARCHAR(10),
    title TEXT,
    image_url TEXT,
    current_price DECIMAL(12, 2),
    target_price DECIMAL(12, 2),
    currency VARCHAR(3) NOT NULL DEFAULT '',
    marketplace VARCHAR(32) NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT true,
    last_price_check TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS alerts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    target_price DECIMAL(12, 2) NOT NULL,
    alert_type VARCHAR(20) NOT NULL CHECK (alert_type IN ('PRICE_DROP', 'PRICE_INCREASE', 'STOCK_AVAILABLE')),
    is_active BOOLEAN NOT NULL DEFAULT true,
    email_sent BOOLEAN NOT NULL DEFAULT false,
    whatsapp_sent BOOLEAN NOT NULL DEFAULT false,
    push_sent BOOLEAN NOT NULL DEFAULT false,
    triggered_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_histories (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    price DECIMAL(12, 2) NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

// TestEnv holds the test environment
type TestEnv struct {
	DB        *sqlx.DB
	Container testcontainers.Container
	Products  *repository.ProductRepository
	Alerts    *repository.AlertRepository
	History   *repository.PriceHistoryRepository
	Users     *repository.UserRepository
}

// SetupTestEnv creates a test environment with a real PostgreSQL database
func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err)

	// Run migrations
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return &TestEnv{
		DB:        db,
		Container: pgContainer,
		Products:  repository.NewProductRepository(db),
		Alerts:    repository.NewAlertRepository(db),
		History:   repository.NewPriceHistoryRepository(db),
		Users:     repository.NewUserRepository(db),
	}
}

// Cleanup tears down the test environment
func (e *TestEnv) Cleanup(t *testing.T) {
	e.DB.Close()
	if err := e.Container.Terminate(context.Background()); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}

// SeedProduct inserts a user with email notifications, a product priced at
// price and a price drop alert at target
func (e *TestEnv) SeedProduct(t *testing.T, email string, price, target string) (userID, productID, alertID int64) {
	t.Helper()

	require.NoError(t, e.DB.Get(&userID,
		`INSERT INTO users (email, first_name) VALUES ($1, 'Ada') RETURNING id`, email))
	require.NoError(t, e.DB.Get(&productID,
		`INSERT INTO products (user_id, amazon_url, current_price, currency, marketplace)
		 VALUES ($1, 'https://www.amazon.fr/dp/B08N5WRWNW', $2, 'EUR', 'amazon.fr') RETURNING id`,
		userID, price))
	require.NoError(t, e.DB.Get(&alertID,
		`INSERT INTO alerts (user_id, product_id, target_price, alert_type)
		 VALUES ($1, $2, $3, 'PRICE_DROP') RETURNING id`,
		userID, productID, target))
	return userID, productID, alertID
}

type fixedScraper struct {
	price decimal.Decimal
}

func (s *fixedScraper) ScrapeWithRetry(_ context.Context, rawURL string, _ int) (*scraper.ScrapeResult, error) {
	return &scraper.ScrapeResult{Snapshot: &model.ProductSnapshot{
		ASIN:        "B08N5WRWNW",
		AmazonURL:   rawURL,
		Marketplace: "amazon.fr",
		Country:     "FR",
		Currency:    "EUR",
		Title:       "Echo Dot",
		Price:       decimal.NullDecimal{Decimal: s.price, Valid: true},
	}}, nil
}

func (s *fixedScraper) FinishRun() {}

type recordingSender struct {
	mu      sync.Mutex
	channel model.Channel
	notices []*notification.Notice
}

func (s *recordingSender) Channel() model.Channel { return s.channel }

func (s *recordingSender) Send(_ context.Context, n *notification.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func (e *TestEnv) pipeline(price string, email *recordingSender) *service.PriceCheckService {
	worker := service.NewNotificationWorker(e.Alerts, e.Users, e.Products, e.History,
		[]notification.Sender{email}, nil)
	dispatcher := service.NewNotificationService(e.Alerts, e.Users, queue.NewInlineQueue(worker), nil)
	alerts := service.NewAlertService(e.Alerts, e.Products, dispatcher, nil)

	cfg := service.DefaultPriceCheckConfig()
	cfg.ItemDelay = 0
	return service.NewPriceCheckService(e.Products, e.History, &fixedScraper{price: decimal.RequireFromString(price)}, alerts, cfg, nil)
}

func TestE2E_PriceDropTriggersAlertOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)
	ctx := context.Background()

	_, productID, alertID := env.SeedProduct(t, "drop@example.com", "120.00", "100.00")
	email := &recordingSender{channel: model.ChannelEmail}

	report, err := env.pipeline("95.00", email).CheckPrices(ctx, service.PriceCheckOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.PriceChanges)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 1, report.Triggered)

	product, err := env.Products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, product.CurrentPrice.Decimal.Equal(decimal.RequireFromString("95")))
	assert.NotNil(t, product.LastPriceCheck)
	require.NotNil(t, product.Title)
	assert.Equal(t, "Echo Dot", *product.Title)

	history, err := env.History.ListSince(ctx, productID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("95")))

	alert, err := env.Alerts.GetByID(ctx, alertID)
	require.NoError(t, err)
	assert.NotNil(t, alert.TriggeredAt)
	assert.True(t, alert.EmailSent)
	assert.False(t, alert.PushSent)
	assert.Equal(t, 1, email.count())

	// same price again: no change, no history, no second notification
	report, err = env.pipeline("95.00", email).CheckPrices(ctx, service.PriceCheckOptions{ProductID: &productID})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.PriceChanges)
	assert.Equal(t, 0, report.Triggered)

	history, err = env.History.ListSince(ctx, productID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, email.count())
}

func TestE2E_StaleFilterSkipsFreshProducts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)
	ctx := context.Background()

	_, staleID, _ := env.SeedProduct(t, "stale@example.com", "50.00", "10.00")
	_, freshID, _ := env.SeedProduct(t, "fresh@example.com", "50.00", "10.00")
	_, err := env.DB.Exec(`UPDATE products SET last_price_check = NOW() - INTERVAL '10 minutes' WHERE id = $1`, freshID)
	require.NoError(t, err)

	products, err := env.Products.ListForPriceCheck(ctx, model.ProductFilter{Limit: 50, CheckedBefore: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, staleID, products[0].ID)
}

func TestE2E_MarkTriggeredIsCompareAndSet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnv(t)
	defer env.Cleanup(t)
	ctx := context.Background()

	_, _, alertID := env.SeedProduct(t, "cas@example.com", "120.00", "100.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := env.Alerts.MarkTriggered(ctx, alertID)
			assert.NoError(t, err)
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	first, err := env.Alerts.MarkChannelSent(ctx, alertID, model.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := env.Alerts.MarkChannelSent(ctx, alertID, model.ChannelEmail)
	require.NoError(t, err)
	assert.False(t, again)
}
