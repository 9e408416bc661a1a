package scraper

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
)

type staticHeaders struct{}

func (staticHeaders) Headers(mp marketplace.Code) http.Header {
	h := http.Header{}
	h.Set("User-Agent", "jungle-test-agent")
	h.Set("Accept-Language", marketplace.AcceptLanguage(mp))
	return h
}

// noDelays never sleeps and records the attempts it was asked to back off for
type noDelays struct {
	mu       sync.Mutex
	backoffs []int
}

func (d *noDelays) PreRequest() time.Duration { return 0 }

func (d *noDelays) Backoff(attempt int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backoffs = append(d.backoffs, attempt)
	return 0
}

type fakeFetcher struct {
	mu    sync.Mutex
	page  string
	errs  []error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string, _ marketplace.Code) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.calls)
	f.calls = append(f.calls, pageURL)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.page, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeResolver struct {
	target string
	err    error
}

func (r fakeResolver) ResolveShortLink(context.Context, string) (string, error) {
	return r.target, r.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}
