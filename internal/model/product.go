package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a tracked Amazon product owned by a user
type Product struct {
	ID             int64               `db:"id" json:"id"`
	UserID         int64               `db:"user_id" json:"userId"`
	AmazonURL      string              `db:"amazon_url" json:"amazonUrl"`
	ASIN           *string             `db:"asin" json:"asin,omitempty"`
	Title          *string             `db:"title" json:"title,omitempty"`
	ImageURL       *string             `db:"image_url" json:"imageUrl,omitempty"`
	CurrentPrice   decimal.NullDecimal `db:"current_price" json:"currentPrice"`
	TargetPrice    decimal.NullDecimal `db:"target_price" json:"targetPrice"`
	Currency       string              `db:"currency" json:"currency"`
	Marketplace    string              `db:"marketplace" json:"marketplace"`
	IsActive       bool                `db:"is_active" json:"isActive"`
	LastPriceCheck *time.Time          `db:"last_price_check" json:"lastPriceCheck,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updatedAt"`
}

// DisplayTitle returns the product title or the Amazon URL when the title is unknown
func (p *Product) DisplayTitle() string {
	if p.Title != nil && *p.Title != "" {
		return *p.Title
	}
	return p.AmazonURL
}

// ProductUpdate carries the fields written back after a price check.
// Nil fields are left untouched.
type ProductUpdate struct {
	CurrentPrice   *decimal.Decimal
	LastPriceCheck *time.Time
	Title          *string
	ImageURL       *string
	ASIN           *string
	Currency       *string
	Marketplace    *string
}

// ProductFilter selects products for a batch price check
type ProductFilter struct {
	ProductID     *int64
	UserID        *int64
	CheckedBefore time.Time
	Limit         int
}

// PriceHistory is an append-only record of a meaningful price move
type PriceHistory struct {
	ID         int64           `db:"id" json:"id"`
	ProductID  int64           `db:"product_id" json:"productId"`
	Price      decimal.Decimal `db:"price" json:"price"`
	RecordedAt time.Time       `db:"recorded_at" json:"recordedAt"`
}
