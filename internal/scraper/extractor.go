package scraper

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

var (
	titleSuffixRe = regexp.MustCompile(`^(.*?)\s*:\s*Amazon\.`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	percentRe     = regexp.MustCompile(`(\d+)\s*%`)
	digitsRe      = regexp.MustCompile(`\D`)

	discountRes = []*regexp.Regexp{
		regexp.MustCompile(`-(\d+)\s*%`),
		regexp.MustCompile(`(?i)Save\s+(\d+)\s*%`),
		regexp.MustCompile(`(?i)(\d+)\s*%\s+off`),
	}

	stockQuantityRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Only\s+(\d+)\s+left\s+in\s+stock`),
		regexp.MustCompile(`(?i)(\d+)\s+disponibles?`),
		regexp.MustCompile(`(?i)Nur\s+noch\s+(\d+)\s+auf\s+Lager`),
	}

	hiResImageRe   = regexp.MustCompile(`"hiRes":"(https://[^"]+\.jpg)"`)
	largeImageRe   = regexp.MustCompile(`"large":"(https://[^"]+\.jpg)"`)
	acImageRe      = regexp.MustCompile(`"(https://[^"\s]+_AC_[^"\s]*\.jpg)"`)
	colorImagesRe  = regexp.MustCompile(`["']colorImages["']\s*:\s*\{\s*["']initial["']\s*:\s*`)
	ratingRe       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s+(?:out of 5 stars|sur 5 étoiles|von 5 Sternen|de 5 estrellas|su 5 stelle)`)
	reviewCountRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([\d.,\x{00a0}]+)\s+customer\s+reviews?`),
		regexp.MustCompile(`(?i)([\d.,\x{00a0}\x{202f}]+)\s+commentaires?\s+client`),
		regexp.MustCompile(`(?i)([\d.,\x{00a0}]+)\s+Kundenrezensionen`),
	}
	sellerRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Ships from and sold by\s+([^.<]+)`),
		regexp.MustCompile(`(?i)Expédié et vendu par\s+([^.<]+)`),
	}
	brandPrefixes = []string{"Brand:", "Marque :", "Marque:", "Marke:"}

	outOfStockIndicators = []string{
		"currently unavailable",
		"out of stock",
		"temporairement en rupture",
		"derzeit nicht verfügbar",
		"non disponibile",
		"agotado",
	}
	inStockIndicators = []string{
		"in stock",
		"en stock",
		"auf lager",
		"disponibile",
		"en existencia",
		"add to cart",
		"ajouter au panier",
		"in den einkaufswagen",
	}
)

// IsInStock scans the page for availability phrases. Out-of-stock phrases win
// over in-stock ones and a page matching neither is treated as unavailable.
func IsInStock(html string) bool {
	lower := strings.ToLower(html)
	for _, indicator := range outOfStockIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	for _, indicator := range inStockIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// Extract builds a snapshot from a product page. Every field is optional:
// a selector that finds nothing leaves the field empty rather than failing.
func Extract(html, pageURL, asin string, mp marketplace.Code) *model.ProductSnapshot {
	// parsing from an in-memory reader never fails
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(html))

	snap := &model.ProductSnapshot{
		ASIN:           asin,
		AmazonURL:      pageURL,
		Marketplace:    string(mp),
		Country:        marketplace.CountryName(mp),
		Currency:       string(marketplace.CurrencyFor(mp)),
		Title:          extractTitle(doc),
		Availability:   extractAvailability(doc),
		InStock:        IsInStock(html),
		StockQuantity:  firstInt(html, stockQuantityRes),
		Description:    extractDescription(doc),
		Features:       extractFeatures(doc),
		Rating:         extractRating(doc, html),
		RatingCount:    extractRatingCount(doc),
		ReviewCount:    extractReviewCount(doc),
		Categories:     extractCategories(doc),
		Brand:          extractBrand(doc),
		Seller:         extractSeller(doc, html),
		Specifications: extractSpecifications(doc),
		PrimeEligible:  doc.Find("i.a-icon-prime").Length() > 0,
	}

	if price, ok := extractPrice(doc, mp); ok {
		snap.Price = decimal.NewNullDecimal(price)
	}
	if original, ok := extractOriginalPrice(doc, mp); ok {
		snap.OriginalPrice = decimal.NewNullDecimal(original)
	}
	snap.DiscountPct = extractDiscount(doc, html)

	snap.ImageURL = extractMainImage(doc, html)
	snap.Images = extractImages(html)
	if snap.ImageURL == "" && len(snap.Images) > 0 {
		snap.ImageURL = snap.Images[0]
	}

	return snap
}

func clean(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// firstText returns the first non-empty text among the selectors, in order
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = clean(s.Text())
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	var found string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.TrimSpace(s.AttrOr(attr, ""))
		return found == ""
	})
	return found
}

func firstInt(text string, patterns []*regexp.Regexp) *int {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(digitsRe.ReplaceAllString(m[1], "")); err == nil {
				return &n
			}
		}
	}
	return nil
}

func extractTitle(doc *goquery.Document) string {
	if title := firstText(doc, "span#productTitle", "h1#title"); title != "" {
		return title
	}
	if m := titleSuffixRe.FindStringSubmatch(clean(doc.Find("title").First().Text())); m != nil {
		if title := clean(m[1]); title != "" {
			return title
		}
	}
	return clean(firstAttr(doc, `meta[property="og:title"]`, "content"))
}

func extractPrice(doc *goquery.Document, mp marketplace.Code) (decimal.Decimal, bool) {
	var price decimal.Decimal
	var found bool

	doc.Find("span.a-price-whole").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		whole, ok := ParsePrice(s.Text(), mp)
		if !ok {
			return true
		}
		whole = whole.Truncate(0)
		fraction := digitsRe.ReplaceAllString(s.Parent().Find("span.a-price-fraction").First().Text(), "")
		if len(fraction) == 2 {
			if cents, err := decimal.NewFromString(fraction); err == nil {
				whole = whole.Add(cents.Shift(-2))
			}
		}
		price, found = whole, true
		return false
	})
	if found {
		return price, true
	}

	for _, sel := range []string{"span.a-offscreen", "#priceblock_ourprice", "#priceblock_dealprice", ".apexPriceToPay"} {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			price, found = ParsePrice(s.Text(), mp)
			return !found
		})
		if found {
			return price, true
		}
	}
	return decimal.Zero, false
}

func extractOriginalPrice(doc *goquery.Document, mp marketplace.Code) (decimal.Decimal, bool) {
	for _, sel := range []string{".a-price.a-text-price .a-offscreen", ".a-text-strike", ".basisPrice .a-offscreen"} {
		if text := firstText(doc, sel); text != "" {
			if price, ok := ParsePrice(text, mp); ok {
				return price, true
			}
		}
	}
	return decimal.Zero, false
}

func extractDiscount(doc *goquery.Document, html string) *int {
	if text := firstText(doc, ".savingsPercentage"); text != "" {
		if m := percentRe.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n
			}
		}
	}
	return firstInt(html, discountRes)
}

func extractAvailability(doc *goquery.Document) string {
	if text := firstText(doc, "#availability span", ".a-color-success", ".a-color-price"); text != "" {
		return text
	}
	return "Unknown"
}

func usableImage(src string) bool {
	return src != "" && !strings.HasPrefix(src, "data:image")
}

func extractMainImage(doc *goquery.Document, html string) string {
	for _, re := range []*regexp.Regexp{hiResImageRe, largeImageRe} {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	for _, candidate := range []string{
		firstAttr(doc, "img#landingImage", "data-old-hires"),
		firstAttr(doc, "img#landingImage", "src"),
		firstAttr(doc, "img.a-dynamic-image", "src"),
		firstAttr(doc, `meta[property="og:image"]`, "content"),
	} {
		if usableImage(candidate) {
			return candidate
		}
	}
	return ""
}

type galleryImage struct {
	HiRes string `json:"hiRes"`
	Large string `json:"large"`
}

// extractImages reads the gallery from the embedded colorImages script data,
// falling back to any _AC_ image URL found in the page
func extractImages(html string) []string {
	images := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(src string) {
		if !usableImage(src) {
			return
		}
		if _, ok := seen[src]; ok {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	}

	if loc := colorImagesRe.FindStringIndex(html); loc != nil {
		var gallery []galleryImage
		if err := json.NewDecoder(strings.NewReader(html[loc[1]:])).Decode(&gallery); err == nil {
			for _, img := range gallery {
				if img.HiRes != "" {
					add(img.HiRes)
				} else {
					add(img.Large)
				}
			}
		}
	}

	if len(images) == 0 {
		for _, m := range acImageRe.FindAllStringSubmatch(html, -1) {
			add(m[1])
		}
	}
	return images
}

func extractDescription(doc *goquery.Document) string {
	if text := firstText(doc, "#feature-bullets", "#productDescription"); text != "" {
		return text
	}
	return clean(firstAttr(doc, `meta[name="description"]`, "content"))
}

func extractFeatures(doc *goquery.Document) []string {
	features := make([]string, 0)
	doc.Find("#feature-bullets li span").Each(func(_ int, s *goquery.Selection) {
		if text := clean(s.Text()); text != "" {
			features = append(features, text)
		}
	})
	return features
}

func extractRating(doc *goquery.Document, html string) *float64 {
	candidates := []string{firstText(doc, "span.a-icon-alt"), firstAttr(doc, "#acrPopover", "title"), html}
	for _, text := range candidates {
		m := ratingRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if rating, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			return &rating
		}
	}
	return nil
}

func extractRatingCount(doc *goquery.Document) *int {
	text := digitsRe.ReplaceAllString(firstText(doc, "#acrCustomerReviewText"), "")
	if text == "" {
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	return &n
}

func extractReviewCount(doc *goquery.Document) *int {
	return firstInt(clean(doc.Text()), reviewCountRes)
}

func extractCategories(doc *goquery.Document) []string {
	categories := make([]string, 0)
	doc.Find("#wayfinding-breadcrumbs_feature_div a").Each(func(_ int, s *goquery.Selection) {
		if text := clean(s.Text()); text != "" {
			categories = append(categories, text)
		}
	})
	return categories
}

func extractBrand(doc *goquery.Document) string {
	brand := firstText(doc, "a#bylineInfo", "span.a-size-base.po-break-word")
	for _, prefix := range brandPrefixes {
		brand = strings.TrimPrefix(brand, prefix)
	}
	return strings.TrimSpace(brand)
}

func extractSpecifications(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)
	doc.Find("table#productDetails_techSpec_section_1 tr").Each(func(_ int, row *goquery.Selection) {
		key := clean(row.Find("th").First().Text())
		value := clean(row.Find("td").First().Text())
		if key != "" && value != "" {
			specs[key] = value
		}
	})
	return specs
}

func extractSeller(doc *goquery.Document, html string) string {
	if seller := firstText(doc, "#merchant-info a", "#sellerProfileTriggerId"); seller != "" {
		return seller
	}
	for _, re := range sellerRes {
		if m := re.FindStringSubmatch(html); m != nil {
			if seller := clean(m[1]); seller != "" {
				return seller
			}
		}
	}
	return ""
}
