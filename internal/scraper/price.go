package scraper

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
)

var (
	numericRunRe = regexp.MustCompile(`\d[\d\s.,\x{00a0}\x{202f}]*`)
	nonPriceRe   = regexp.MustCompile(`[^\d.]`)
)

// ParsePrice converts a scraped price string into a decimal.
// EU-style marketplaces read "." as thousands and "," as decimal separator,
// all others the reverse. It returns false when no positive amount is found.
func ParsePrice(raw string, mp marketplace.Code) (decimal.Decimal, bool) {
	run := numericRunRe.FindString(raw)
	if run == "" {
		return decimal.Zero, false
	}

	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ' ', ' ':
			return -1
		}
		return r
	}, run)

	if marketplace.UsesCommaDecimal(mp) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = nonPriceRe.ReplaceAllString(s, "")

	// keep the first decimal point only
	if first := strings.IndexByte(s, '.'); first >= 0 {
		if second := strings.IndexByte(s[first+1:], '.'); second >= 0 {
			s = s[:first+1+second]
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
