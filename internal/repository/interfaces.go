package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

//go:generate mockery --name=ProductRepositoryInterface --output=../mocks --outpkg=mocks
type ProductRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	ListForPriceCheck(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	ListWithPendingAlerts(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, id int64, update model.ProductUpdate) error
}

//go:generate mockery --name=AlertRepositoryInterface --output=../mocks --outpkg=mocks
type AlertRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*model.Alert, error)
	ListPendingByProduct(ctx context.Context, productID int64) ([]model.Alert, error)
	MarkTriggered(ctx context.Context, id int64) (bool, error)
	MarkChannelSent(ctx context.Context, id int64, ch model.Channel) (bool, error)
}

//go:generate mockery --name=PriceHistoryRepositoryInterface --output=../mocks --outpkg=mocks
type PriceHistoryRepositoryInterface interface {
	Append(ctx context.Context, productID int64, price decimal.Decimal) (*model.PriceHistory, error)
	ListSince(ctx context.Context, productID int64, since time.Time) ([]model.PriceHistory, error)
	PreviousPrice(ctx context.Context, productID int64) (*decimal.Decimal, error)
}

//go:generate mockery --name=UserRepositoryInterface --output=../mocks --outpkg=mocks
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
