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

const alertColumns = `id, user_id, product_id, target_price, alert_type, is_active,
		email_sent, whatsapp_sent, push_sent, triggered_at, created_at, updated_at`

// sentColumns maps each channel to its idempotency latch column
var sentColumns = map[model.Channel]string{
	model.ChannelEmail:    "email_sent",
	model.ChannelPush:     "push_sent",
	model.ChannelWhatsApp: "whatsapp_sent",
}

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*model.Alert, error) {
	var alert model.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	err := r.db.GetContext(ctx, &alert, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("alert", id)
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListPendingByProduct returns the active, untriggered alerts of a product
func (r *AlertRepository) ListPendingByProduct(ctx context.Context, productID int64) ([]model.Alert, error) {
	var alerts []model.Alert
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE product_id = $1 AND is_active = true AND triggered_at IS NULL
		ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &alerts, query, productID); err != nil {
		return nil, fmt.Errorf("list pending alerts of product %d: %w", productID, err)
	}
	return alerts, nil
}

// MarkTriggered sets triggered_at if it is still unset. It reports false
// when another run got there first.
func (r *AlertRepository) MarkTriggered(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE alerts SET triggered_at = NOW(), updated_at = NOW() WHERE id = $1 AND triggered_at IS NULL`
	return r.compareAndSet(ctx, query, id)
}

// MarkChannelSent flips the channel's sent flag from false to true. It
// reports false when the flag was already set.
func (r *AlertRepository) MarkChannelSent(ctx context.Context, id int64, ch model.Channel) (bool, error) {
	column, ok := sentColumns[ch]
	if !ok {
		return false, apperror.ValidationError("channel", fmt.Sprintf("unknown channel %q", ch))
	}
	query := fmt.Sprintf(`UPDATE alerts SET %[1]s = true, updated_at = NOW() WHERE id = $1 AND %[1]s = false`, column)
	return r.compareAndSet(ctx, query, id)
}

func (r *AlertRepository) compareAndSet(ctx context.Context, query string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("update alert %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
