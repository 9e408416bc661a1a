// Package currency provides the currencies of the supported Amazon marketplaces.
// All monetary amounts are handled as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CAD Currency = "CAD" // Canadian Dollar
	BRL Currency = "BRL" // Brazilian Real
	INR Currency = "INR" // Indian Rupee
)

// DefaultCurrency is the default currency when none is specified.
const DefaultCurrency = USD

// CurrencyInfo contains metadata about a currency.
type CurrencyInfo struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int  // Number of decimal places
	SymbolBefore  bool // Whether symbol appears before amount

	// MinChangePercent is the percentage move above which a price change is significant.
	MinChangePercent decimal.Decimal
	// MinChangeAbsolute is the absolute move above which a price change is significant.
	MinChangeAbsolute decimal.Decimal
}

var (
	onePercent = decimal.NewFromInt(1)
	oneCent    = decimal.RequireFromString("0.01")
)

// currencies maps currency codes to their info.
var currencies = map[Currency]CurrencyInfo{
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, SymbolBefore: true, MinChangePercent: onePercent, MinChangeAbsolute: oneCent},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", DecimalPlaces: 2, SymbolBefore: false, MinChangePercent: onePercent, MinChangeAbsolute: oneCent},
	GBP: {Code: GBP, Name: "British Pound", Symbol: "£", DecimalPlaces: 2, SymbolBefore: true, MinChangePercent: onePercent, MinChangeAbsolute: oneCent},
	CAD: {Code: CAD, Name: "Canadian Dollar", Symbol: "C$", DecimalPlaces: 2, SymbolBefore: true, MinChangePercent: onePercent, MinChangeAbsolute: oneCent},
	BRL: {Code: BRL, Name: "Brazilian Real", Symbol: "R$", DecimalPlaces: 2, SymbolBefore: true, MinChangePercent: onePercent, MinChangeAbsolute: decimal.RequireFromString("0.05")},
	INR: {Code: INR, Name: "Indian Rupee", Symbol: "₹", DecimalPlaces: 2, SymbolBefore: true, MinChangePercent: onePercent, MinChangeAbsolute: decimal.RequireFromString("0.50")},
}

// SupportedCurrencies returns a list of all supported currency codes.
func SupportedCurrencies() []Currency {
	return []Currency{USD, EUR, GBP, CAD, BRL, INR}
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (CurrencyInfo, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Thresholds returns the significance thresholds for a currency code.
// Unknown or empty codes get the defaults of 1% and 0.01.
func Thresholds(code string) (minPercent, minAbsolute decimal.Decimal) {
	if info, ok := currencies[Currency(code)]; ok {
		return info.MinChangePercent, info.MinChangeAbsolute
	}
	return onePercent, oneCent
}

// Money represents a monetary amount with currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a new Money value.
func NewMoney(amount decimal.Decimal, curr Currency) Money {
	if curr == "" {
		curr = DefaultCurrency
	}
	return Money{Amount: amount, Currency: curr}
}

// Format returns a formatted string representation.
func (m Money) Format() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
	}

	rounded := m.Amount.Round(int32(info.DecimalPlaces))

	if info.SymbolBefore {
		return fmt.Sprintf("%s%s", info.Symbol, rounded.StringFixed(int32(info.DecimalPlaces)))
	}
	return fmt.Sprintf("%s%s", rounded.StringFixed(int32(info.DecimalPlaces)), info.Symbol)
}

// String returns the amount as a plain string with the currency's precision.
func (m Money) String() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return m.Amount.StringFixed(2)
	}
	return m.Amount.StringFixed(int32(info.DecimalPlaces))
}
