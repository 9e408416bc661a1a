package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AlertType is the canonical trigger kind of an alert
type AlertType string

const (
	AlertTypePriceDrop      AlertType = "PRICE_DROP"
	AlertTypePriceIncrease  AlertType = "PRICE_INCREASE"
	AlertTypeStockAvailable AlertType = "STOCK_AVAILABLE"
)

// alertTypeAliases maps the free-form tokens sent by mobile clients
// to canonical alert types. Keys are lower case.
var alertTypeAliases = map[string]AlertType{
	"email_notification": AlertTypePriceDrop,
	"price_drop":         AlertTypePriceDrop,
	"immediate":          AlertTypePriceDrop,
	"daily":              AlertTypePriceDrop,
	"weekly":             AlertTypePriceDrop,
	"price_increase":     AlertTypePriceIncrease,
	"stock_available":    AlertTypeStockAvailable,
}

// ParseAlertType maps a client supplied token to an AlertType.
// Matching is case-insensitive and unknown tokens fall back to PRICE_DROP.
func ParseAlertType(token string) AlertType {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if t, ok := alertTypeAliases[normalized]; ok {
		return t
	}
	return AlertTypePriceDrop
}

// Valid reports whether t is one of the canonical alert types
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePriceDrop, AlertTypePriceIncrease, AlertTypeStockAvailable:
		return true
	}
	return false
}

// Label returns the human readable alert type used in email bodies
func (t AlertType) Label() string {
	switch t {
	case AlertTypePriceDrop:
		return "Price Drop Alert"
	case AlertTypePriceIncrease:
		return "Price Increase Alert"
	case AlertTypeStockAvailable:
		return "Stock Available Alert"
	default:
		return "Price Alert"
	}
}

// Channel is a notification delivery channel
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists every channel in dispatch order
var Channels = []Channel{ChannelEmail, ChannelPush, ChannelWhatsApp}

// Alert is a user's price target on a product
type Alert struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"userId"`
	ProductID    int64           `db:"product_id" json:"productId"`
	TargetPrice  decimal.Decimal `db:"target_price" json:"targetPrice"`
	AlertType    AlertType       `db:"alert_type" json:"alertType"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	EmailSent    bool            `db:"email_sent" json:"emailSent"`
	WhatsAppSent bool            `db:"whatsapp_sent" json:"whatsappSent"`
	PushSent     bool            `db:"push_sent" json:"pushSent"`
	TriggeredAt  *time.Time      `db:"triggered_at" json:"triggeredAt,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// Sent reports whether the channel's idempotency latch is already set
func (a *Alert) Sent(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return a.EmailSent
	case ChannelPush:
		return a.PushSent
	case ChannelWhatsApp:
		return a.WhatsAppSent
	}
	return false
}

// MarkSent sets the in-memory latch for ch
func (a *Alert) MarkSent(ch Channel) {
	switch ch {
	case ChannelEmail:
		a.EmailSent = true
	case ChannelPush:
		a.PushSent = true
	case ChannelWhatsApp:
		a.WhatsAppSent = true
	}
}

// Pending reports whether the alert is still eligible for evaluation
func (a *Alert) Pending() bool {
	return a.IsActive && a.TriggeredAt == nil
}
