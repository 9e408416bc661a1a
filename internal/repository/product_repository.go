package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

const productColumns = `id, user_id, amazon_url, asin, title, image_url, current_price, target_price,
		currency, marketplace, is_active, last_price_check, created_at, updated_at`

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListForPriceCheck returns active products for a price check run. A product
// filter takes precedence over a user filter; without either, only products
// never checked or last checked before filter.CheckedBefore are returned.
func (r *ProductRepository) ListForPriceCheck(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true`
	args := []interface{}{}
	argNum := 1

	switch {
	case filter.ProductID != nil:
		query += fmt.Sprintf(" AND id = $%d", argNum)
		args = append(args, *filter.ProductID)
		argNum++
	case filter.UserID != nil:
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	default:
		query += fmt.Sprintf(" AND (last_price_check IS NULL OR last_price_check < $%d)", argNum)
		args = append(args, filter.CheckedBefore)
		argNum++
	}

	query += " ORDER BY last_price_check ASC NULLS FIRST, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	var products []model.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products for price check: %w", err)
	}
	return products, nil
}

// ListWithPendingAlerts returns every product that has at least one pending alert
func (r *ProductRepository) ListWithPendingAlerts(ctx context.Context) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id IN (
			SELECT product_id FROM alerts
			WHERE is_active = true AND triggered_at IS NULL
		)
		ORDER BY id ASC`

	var products []model.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list products with pending alerts: %w", err)
	}
	return products, nil
}

// Update writes the non-nil fields of update
func (r *ProductRepository) Update(ctx context.Context, id int64, update model.ProductUpdate) error {
	query := `
		UPDATE products
		SET current_price = COALESCE($2, current_price),
		    last_price_check = COALESCE($3, last_price_check),
		    title = COALESCE($4, title),
		    image_url = COALESCE($5, image_url),
		    asin = COALESCE($6, asin),
		    currency = COALESCE($7, currency),
		    marketplace = COALESCE($8, marketplace),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id,
		update.CurrentPrice, update.LastPriceCheck, update.Title, update.ImageURL,
		update.ASIN, update.Currency, update.Marketplace,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.NotFound("product", id)
	}
	return nil
}
