// Package marketplace maps Amazon URLs to marketplace, currency, base domain and ASIN.
// Everything here is a pure function of its input.
package marketplace

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/Kevram73/jungle-alert-api-sub000/pkg/currency"
)

// Code identifies an Amazon marketplace
type Code string

const (
	US Code = "US"
	UK Code = "UK"
	DE Code = "DE"
	FR Code = "FR"
	IT Code = "IT"
	ES Code = "ES"
	BR Code = "BR"
	IN Code = "IN"
	CA Code = "CA"
	EU Code = "EU"
)

// ErrNoASIN is returned when no ASIN pattern matches the URL
var ErrNoASIN = errors.New("could not extract ASIN from URL")

// Info is the resolution result for a product URL
type Info struct {
	Marketplace Code
	Currency    currency.Currency
	BaseURL     string
	ASIN        string
	Country     string
}

type hostEntry struct {
	domain string
	code   Code
	base   string
}

// hosts is matched in order against the lower-cased host. More specific
// domains come first so amazon.com.br is never shadowed by amazon.com.
var hosts = []hostEntry{
	{"amzn.com.br", BR, "https://www.amazon.com.br"},
	{"amzn.co.uk", UK, "https://www.amazon.co.uk"},
	{"amzn.de", DE, "https://www.amazon.de"},
	{"amzn.fr", FR, "https://www.amazon.fr"},
	{"amzn.it", IT, "https://www.amazon.it"},
	{"amzn.es", ES, "https://www.amazon.es"},
	{"amzn.in", IN, "https://www.amazon.in"},
	{"amzn.ca", CA, "https://www.amazon.ca"},
	{"amzn.eu", EU, "https://www.amazon.eu"},
	{"amazon.com.br", BR, "https://www.amazon.com.br"},
	{"amazon.co.uk", UK, "https://www.amazon.co.uk"},
	{"amazon.de", DE, "https://www.amazon.de"},
	{"amazon.fr", FR, "https://www.amazon.fr"},
	{"amazon.it", IT, "https://www.amazon.it"},
	{"amazon.es", ES, "https://www.amazon.es"},
	{"amazon.in", IN, "https://www.amazon.in"},
	{"amazon.ca", CA, "https://www.amazon.ca"},
	{"amazon.eu", EU, "https://www.amazon.eu"},
	{"amazon.com", US, "https://www.amazon.com"},
}

const defaultBaseURL = "https://www.amazon.com"

// asinPatterns are tried in order; the first match wins
var asinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/gp/aw/d/([A-Z0-9]{10})`),
	regexp.MustCompile(`/aw/d/([A-Z0-9]{10})`),
	regexp.MustCompile(`/d/([A-Z0-9]{10})`),
}

var shortLinkHosts = []string{"amzn.to", "amzn.eu", "a.co"}

// amazonDomains are the hosts accepted by IsAmazonURL
var amazonDomains = []string{
	"amazon.com", "amazon.de", "amazon.co.uk", "amazon.fr",
	"amazon.it", "amazon.es", "amazon.com.br", "amazon.in",
	"amazon.ca", "amazon.eu", "a.co", "amzn.to", "amzn.eu",
	"amzn.com", "amzn.com.br", "amzn.co.uk", "amzn.de",
	"amzn.fr", "amzn.it", "amzn.es", "amzn.in", "amzn.ca",
}

var currencies = map[Code]currency.Currency{
	US: currency.USD,
	UK: currency.GBP,
	DE: currency.EUR,
	FR: currency.EUR,
	IT: currency.EUR,
	ES: currency.EUR,
	EU: currency.EUR,
	BR: currency.BRL,
	IN: currency.INR,
	CA: currency.CAD,
}

var countries = map[Code]string{
	US: "United States",
	UK: "United Kingdom",
	DE: "Germany",
	FR: "France",
	IT: "Italy",
	ES: "Spain",
	BR: "Brazil",
	IN: "India",
	CA: "Canada",
	EU: "Europe",
}

var acceptLanguages = map[Code]string{
	FR: "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7",
	DE: "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7",
	ES: "es-ES,es;q=0.9,en-US;q=0.8,en;q=0.7",
	IT: "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7",
	UK: "en-GB,en;q=0.9,en-US;q=0.8",
	BR: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
	IN: "en-IN,en;q=0.9,hi;q=0.8,en-US;q=0.7",
	CA: "en-CA,en;q=0.9,fr-CA;q=0.8,fr;q=0.7",
	EU: "en-GB,en;q=0.9,de;q=0.8,fr;q=0.7",
}

// Resolve maps a product URL to its marketplace context.
// It returns ErrNoASIN when the URL carries no recognisable ASIN.
func Resolve(rawURL string) (Info, error) {
	host := hostOf(rawURL)
	code := FromHost(host)

	info := Info{
		Marketplace: code,
		Currency:    CurrencyFor(code),
		BaseURL:     baseURLForHost(host),
		Country:     CountryName(code),
	}

	asin, ok := ExtractASIN(rawURL)
	if !ok {
		return info, ErrNoASIN
	}
	info.ASIN = asin
	return info, nil
}

// ExtractASIN returns the first ASIN matched by the ordered URL patterns
func ExtractASIN(rawURL string) (string, bool) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	for _, re := range asinPatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FromHost returns the marketplace for a host, defaulting to US
func FromHost(host string) Code {
	host = strings.ToLower(host)
	for _, h := range hosts {
		if strings.Contains(host, h.domain) {
			return h.code
		}
	}
	return US
}

// CurrencyFor returns the currency of a marketplace
func CurrencyFor(code Code) currency.Currency {
	if c, ok := currencies[code]; ok {
		return c
	}
	return currency.DefaultCurrency
}

// CountryName returns the country label of a marketplace
func CountryName(code Code) string {
	if c, ok := countries[code]; ok {
		return c
	}
	return countries[US]
}

// AcceptLanguage returns the Accept-Language header value for a marketplace
func AcceptLanguage(code Code) string {
	if v, ok := acceptLanguages[code]; ok {
		return v
	}
	return "en-US,en;q=0.9"
}

// UsesCommaDecimal reports whether prices on the marketplace use "." for
// thousands and "," for decimals
func UsesCommaDecimal(code Code) bool {
	switch code {
	case FR, DE, IT, ES, EU:
		return true
	}
	return false
}

// BaseURL returns the canonical https://www host for a URL
func BaseURL(rawURL string) string {
	return baseURLForHost(hostOf(rawURL))
}

func baseURLForHost(host string) string {
	host = strings.ReplaceAll(strings.ToLower(host), "m.amazon", "www.amazon")
	for _, h := range hosts {
		if strings.Contains(host, h.domain) {
			return h.base
		}
	}
	return defaultBaseURL
}

// Normalize rewrites a product URL to its canonical {base}/dp/{asin} form.
// URLs without an ASIN are returned unchanged.
func Normalize(rawURL string) string {
	asin, ok := ExtractASIN(rawURL)
	if !ok {
		return rawURL
	}
	return BaseURL(rawURL) + "/dp/" + asin
}

// IsShortLink reports whether the URL host is an Amazon short-link service
func IsShortLink(rawURL string) bool {
	host := strings.ToLower(hostOf(rawURL))
	for _, h := range shortLinkHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// IsAmazonURL reports whether the URL points at a known Amazon or short-link domain
func IsAmazonURL(rawURL string) bool {
	host := strings.ToLower(hostOf(rawURL))
	if host == "" {
		return false
	}
	for _, d := range amazonDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
