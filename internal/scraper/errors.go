package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common scraper errors
var (
	ErrNoPrice             = errors.New("no price data found")
	ErrShortLinkLoop       = errors.New("short link did not resolve to a product page")
	ErrNoShortLinkResolver = errors.New("short link found but no resolver is configured")
)

// ResolutionError means no ASIN could be derived from the URL. It is never retried.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", truncate(e.URL, 100), e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransportError covers timeouts, connection failures and non-2xx responses.
// StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d error", e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", truncate(e.URL, 100), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BotChallengeError means the response was a captcha or robot-check page
type BotChallengeError struct {
	URL       string
	Indicator string
}

func (e *BotChallengeError) Error() string {
	return fmt.Sprintf("amazon bot challenge detected (%s), automated access blocked", e.Indicator)
}

// ExtractionIncompleteError means the page was fetched but required fields are missing
type ExtractionIncompleteError struct {
	ASIN    string
	Missing []string
}

func (e *ExtractionIncompleteError) Error() string {
	return fmt.Sprintf("scraped data is incomplete or invalid: missing %s", strings.Join(e.Missing, ", "))
}

// IsRetryable determines if a scrape error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var resolution *ResolutionError
	if errors.As(err, &resolution) {
		return false
	}

	var transport *TransportError
	var challenge *BotChallengeError
	var incomplete *ExtractionIncompleteError
	return errors.As(err, &transport) || errors.As(err, &challenge) || errors.As(err, &incomplete)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
