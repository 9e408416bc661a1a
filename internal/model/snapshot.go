package model

import "github.com/shopspring/decimal"

// ProductSnapshot is the structured result of extracting an Amazon product page.
// It is mapped onto a Product by the caller and never stored as is.
type ProductSnapshot struct {
	ASIN           string              `json:"asin"`
	AmazonURL      string              `json:"amazon_url"`
	Marketplace    string              `json:"marketplace"`
	Country        string              `json:"country"`
	Currency       string              `json:"currency"`
	Title          string              `json:"title,omitempty"`
	Price          decimal.NullDecimal `json:"price"`
	OriginalPrice  decimal.NullDecimal `json:"original_price"`
	DiscountPct    *int                `json:"discount_percentage,omitempty"`
	Availability   string              `json:"availability"`
	InStock        bool                `json:"in_stock"`
	StockQuantity  *int                `json:"stock_quantity,omitempty"`
	ImageURL       string              `json:"image_url,omitempty"`
	Images         []string            `json:"images"`
	Description    string              `json:"description,omitempty"`
	Features       []string            `json:"features"`
	Rating         *float64            `json:"rating,omitempty"`
	RatingCount    *int                `json:"rating_count,omitempty"`
	ReviewCount    *int                `json:"review_count,omitempty"`
	Categories     []string            `json:"categories"`
	Brand          string              `json:"brand,omitempty"`
	Seller         string              `json:"seller,omitempty"`
	Specifications map[string]string   `json:"specifications"`
	PrimeEligible  bool                `json:"prime_eligible"`
}

// Valid reports whether the snapshot carries the minimum identifying data
func (s *ProductSnapshot) Valid() bool {
	return s != nil && s.Title != "" && s.ASIN != ""
}

// MissingFields lists the required fields that are empty
func (s *ProductSnapshot) MissingFields() []string {
	var missing []string
	if s == nil || s.Title == "" {
		missing = append(missing, "title")
	}
	if s == nil || s.ASIN == "" {
		missing = append(missing, "asin")
	}
	return missing
}
