package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

type PriceHistoryRepository struct {
	db *sqlx.DB
}

func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// Append records price for a product at the current time
func (r *PriceHistoryRepository) Append(ctx context.Context, productID int64, price decimal.Decimal) (*model.PriceHistory, error) {
	query := `
		INSERT INTO price_histories (product_id, price, recorded_at)
		VALUES ($1, $2, NOW())
		RETURNING id, recorded_at`

	entry := &model.PriceHistory{ProductID: productID, Price: price}
	if err := r.db.QueryRowxContext(ctx, query, productID, price).Scan(&entry.ID, &entry.RecordedAt); err != nil {
		return nil, fmt.Errorf("append price history for product %d: %w", productID, err)
	}
	return entry, nil
}

// ListSince returns the product's history recorded at or after since, oldest first
func (r *PriceHistoryRepository) ListSince(ctx context.Context, productID int64, since time.Time) ([]model.PriceHistory, error) {
	var entries []model.PriceHistory
	query := `
		SELECT id, product_id, price, recorded_at
		FROM price_histories
		WHERE product_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &entries, query, productID, since); err != nil {
		return nil, fmt.Errorf("list price history for product %d: %w", productID, err)
	}
	return entries, nil
}

// PreviousPrice returns the price recorded before the latest history entry,
// or nil when fewer than two entries exist
func (r *PriceHistoryRepository) PreviousPrice(ctx context.Context, productID int64) (*decimal.Decimal, error) {
	var price decimal.Decimal
	query := `
		SELECT price FROM price_histories
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id DESC
		OFFSET 1 LIMIT 1`
	err := r.db.GetContext(ctx, &price, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous price for product %d: %w", productID, err)
	}
	return &price, nil
}
