package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/notification"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/queue"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
)

// MockProductRepository is a mock implementation of ProductRepositoryInterface
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) ListForPriceCheck(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) ListWithPendingAlerts(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id int64, update model.ProductUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

// MockAlertRepository is a mock implementation of AlertRepositoryInterface
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id int64) (*model.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Alert), args.Error(1)
}

func (m *MockAlertRepository) ListPendingByProduct(ctx context.Context, productID int64) ([]model.Alert, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockAlertRepository) MarkTriggered(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAlertRepository) MarkChannelSent(ctx context.Context, id int64, ch model.Channel) (bool, error) {
	args := m.Called(ctx, id, ch)
	return args.Bool(0), args.Error(1)
}

// MockPriceHistoryRepository is a mock implementation of PriceHistoryRepositoryInterface
type MockPriceHistoryRepository struct {
	mock.Mock
}

func (m *MockPriceHistoryRepository) Append(ctx context.Context, productID int64, price decimal.Decimal) (*model.PriceHistory, error) {
	args := m.Called(ctx, productID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceHistory), args.Error(1)
}

func (m *MockPriceHistoryRepository) ListSince(ctx context.Context, productID int64, since time.Time) ([]model.PriceHistory, error) {
	args := m.Called(ctx, productID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceHistory), args.Error(1)
}

func (m *MockPriceHistoryRepository) PreviousPrice(ctx context.Context, productID int64) (*decimal.Decimal, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*decimal.Decimal), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockQueue is a mock implementation of queue.Queue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, job queue.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockScraper is a mock implementation of Scraper
type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) ScrapeWithRetry(ctx context.Context, rawURL string, maxAttempts int) (*scraper.ScrapeResult, error) {
	args := m.Called(ctx, rawURL, maxAttempts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scraper.ScrapeResult), args.Error(1)
}

func (m *MockScraper) FinishRun() {
	m.Called()
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, alert *model.Alert) (*DispatchResult, error) {
	args := m.Called(ctx, alert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DispatchResult), args.Error(1)
}

// MockSender is a mock implementation of notification.Sender
type MockSender struct {
	mock.Mock
	channel model.Channel
}

func (m *MockSender) Channel() model.Channel {
	return m.channel
}

func (m *MockSender) Send(ctx context.Context, n *notification.Notice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullPrice(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(price(s))
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

var mockAnyTime = mock.AnythingOfType("time.Time")
