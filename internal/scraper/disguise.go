package scraper

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
)

// Desktop browser user agents for rotation
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
}

var searchReferers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://duckduckgo.com/",
}

// UserAgents returns a copy of the rotation pool
func UserAgents() []string {
	out := make([]string, len(userAgents))
	copy(out, userAgents)
	return out
}

// HeaderProvider supplies the request headers used to disguise a fetch
type HeaderProvider interface {
	Headers(mp marketplace.Code) http.Header
}

// DelayProvider supplies the waits the pipeline introduces
type DelayProvider interface {
	// PreRequest is the pause before each product page request.
	PreRequest() time.Duration
	// Backoff is the pause before the given retry attempt (2, 3, ...).
	Backoff(attempt int) time.Duration
}

// RandomHeaders picks a user agent and referer uniformly at random
type RandomHeaders struct {
	UserAgents []string
	Referers   []string
}

// NewRandomHeaders returns a RandomHeaders using the built-in pools
func NewRandomHeaders() *RandomHeaders {
	return &RandomHeaders{UserAgents: userAgents, Referers: searchReferers}
}

// Headers builds browser-like headers for a marketplace
func (r *RandomHeaders) Headers(mp marketplace.Code) http.Header {
	h := http.Header{}
	h.Set("User-Agent", pick(r.UserAgents, userAgents))
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", marketplace.AcceptLanguage(mp))
	h.Set("Referer", pick(r.Referers, searchReferers))
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
	return h
}

func pick(pool, fallback []string) string {
	if len(pool) == 0 {
		pool = fallback
	}
	return pool[rand.Intn(len(pool))]
}

// RandomDelays draws waits uniformly from configured ranges
type RandomDelays struct {
	MinRequestDelay time.Duration
	MaxRequestDelay time.Duration
	MinBackoff      time.Duration
	MaxBackoff      time.Duration
}

// DefaultRandomDelays returns 5-10s before requests and 30-60s between attempts
func DefaultRandomDelays() *RandomDelays {
	return &RandomDelays{
		MinRequestDelay: 5 * time.Second,
		MaxRequestDelay: 10 * time.Second,
		MinBackoff:      30 * time.Second,
		MaxBackoff:      60 * time.Second,
	}
}

// PreRequest returns a random delay between MinRequestDelay and MaxRequestDelay
func (d *RandomDelays) PreRequest() time.Duration {
	return between(d.MinRequestDelay, d.MaxRequestDelay)
}

// Backoff returns a random delay between MinBackoff and MaxBackoff
func (d *RandomDelays) Backoff(int) time.Duration {
	return between(d.MinBackoff, d.MaxBackoff)
}

func between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
