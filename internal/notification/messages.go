// Package notification renders alert messages and delivers them over email,
// Firebase Cloud Messaging and a WhatsApp HTTP gateway.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// PushTitle is the notification title of every push message
const PushTitle = "🎯 Price Alert!"

// Notice is everything a sender needs to describe one triggered alert
type Notice struct {
	Alert   *model.Alert
	User    *model.User
	Product *model.Product
	// PriceChange is the move from the previous history point, nil when unknown
	PriceChange *decimal.Decimal
}

// Sender delivers a notice over one channel
type Sender interface {
	Channel() model.Channel
	Send(ctx context.Context, n *Notice) error
}

// EmailSubject returns the subject line of the alert email
func EmailSubject(n *Notice) string {
	return "🎯 Price Alert: " + n.Product.DisplayTitle()
}

// EmailBody returns the plain text body of the alert email
func EmailBody(n *Notice) string {
	var b strings.Builder
	b.WriteString("Hello!\n\n")
	b.WriteString("Your price alert has been triggered!\n\n")
	fmt.Fprintf(&b, "Product: %s\n", n.Product.DisplayTitle())
	fmt.Fprintf(&b, "Current Price: %s\n", formatPrice(n.Product.CurrentPrice))
	fmt.Fprintf(&b, "Target Price: %s\n", n.Alert.TargetPrice.StringFixed(2))
	fmt.Fprintf(&b, "Alert Type: %s\n\n", n.Alert.AlertType.Label())

	if n.PriceChange != nil {
		direction := "decreased"
		if n.PriceChange.IsPositive() {
			direction = "increased"
		}
		fmt.Fprintf(&b, "Price has %s by %s\n\n", direction, n.PriceChange.Abs().StringFixed(2))
	}

	fmt.Fprintf(&b, "View product: %s\n\n", n.Product.AmazonURL)
	b.WriteString("Thank you for using Jungle Alert!")
	return b.String()
}

// PushBody returns the one line body of a push notification
func PushBody(n *Notice) string {
	var action string
	switch n.Alert.AlertType {
	case model.AlertTypePriceDrop:
		action = "Price dropped"
	case model.AlertTypePriceIncrease:
		action = "Price increased"
	case model.AlertTypeStockAvailable:
		action = "Back in stock"
	default:
		action = "Alert triggered"
	}
	return fmt.Sprintf("%s - %s to %s", shorten(n.Product.DisplayTitle(), 50), action, formatPrice(n.Product.CurrentPrice))
}

// WhatsAppBody returns the WhatsApp message, written in French for the app's audience
func WhatsAppBody(n *Notice) string {
	var headline string
	switch n.Alert.AlertType {
	case model.AlertTypePriceDrop:
		headline = "💰 Prix en baisse"
	case model.AlertTypePriceIncrease:
		headline = "📈 Prix en hausse"
	case model.AlertTypeStockAvailable:
		headline = "✅ Disponible"
	default:
		headline = "🔔 Alerte"
	}

	var b strings.Builder
	b.WriteString("🎯 *Alerte Prix Jungle Alert*\n\n")
	b.WriteString(headline + "\n\n")
	fmt.Fprintf(&b, "*Produit:* %s\n", shorten(n.Product.DisplayTitle(), 60))
	fmt.Fprintf(&b, "*Prix actuel:* %s\n", formatPrice(n.Product.CurrentPrice))
	fmt.Fprintf(&b, "*Prix cible:* %s\n\n", n.Alert.TargetPrice.StringFixed(2))
	b.WriteString("Voir le produit:\n" + n.Product.AmazonURL)
	return b.String()
}

// shorten cuts s to max runes, replacing the tail with "..." when it is too long
func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "N/A"
	}
	return p.Decimal.StringFixed(2)
}
