// Package browser renders product pages in a headless Chromium when plain
// HTTP fetches are not enough.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
)

// Pool manages browser pages for concurrent scraping
type Pool struct {
	browser  *rod.Browser
	pagePool chan *rod.Page
	maxPages int
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// PoolConfig holds configuration for the browser pool
type PoolConfig struct {
	MaxPages    int           // Maximum concurrent pages (default: 2)
	PageTimeout time.Duration // Timeout for page operations (default: 45s)
	Headless    bool
	UserDataDir string
}

// DefaultPoolConfig returns the default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxPages:    2,
		PageTimeout: 45 * time.Second,
		Headless:    true,
	}
}

// NewPool launches a browser and pre-warms MaxPages pages
func NewPool(cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 45 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	pool := &Pool{
		browser:  browser,
		pagePool: make(chan *rod.Page, cfg.MaxPages),
		maxPages: cfg.MaxPages,
		logger:   logger,
	}

	for i := 0; i < cfg.MaxPages; i++ {
		page, err := pool.createPage(cfg.PageTimeout)
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("creating page %d: %w", i, err)
		}
		pool.pagePool <- page
	}

	logger.Info("Browser pool initialized",
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("headless", cfg.Headless),
	)

	return pool, nil
}

func (p *Pool) createPage(timeout time.Duration) (*rod.Page, error) {
	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	page = page.Timeout(timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		return nil, err
	}

	// hide the webdriver flag on every document the page loads
	if _, err := page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', { get: () => undefined })`); err != nil {
		p.logger.Warn("Failed to apply stealth script", slog.String("error", err.Error()))
	}

	return page, nil
}

// Acquire gets a page from the pool (blocks if none available)
func (p *Pool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool is closed")
	}
	p.mu.Unlock()

	select {
	case page := <-p.pagePool:
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release clears the page and returns it to the pool
func (p *Pool) Release(page *rod.Page) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = page.Close()
		return
	}

	_ = page.Navigate("about:blank")
	_ = page.SetCookies(nil)

	select {
	case p.pagePool <- page:
	default:
		_ = page.Close()
	}
}

// Close shuts down the browser pool
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.pagePool)
	for page := range p.pagePool {
		_ = page.Close()
	}

	if err := p.browser.Close(); err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}

	p.logger.Info("Browser pool closed")
	return nil
}

// Fetcher renders product pages through the pool. It satisfies scraper.Fetcher.
type Fetcher struct {
	pool    *Pool
	headers scraper.HeaderProvider
	delays  scraper.DelayProvider
	logger  *slog.Logger
}

// NewFetcher creates a browser-backed fetcher
func NewFetcher(pool *Pool, headers scraper.HeaderProvider, delays scraper.DelayProvider, logger *slog.Logger) *Fetcher {
	if headers == nil {
		headers = scraper.NewRandomHeaders()
	}
	if delays == nil {
		delays = scraper.DefaultRandomDelays()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{pool: pool, headers: headers, delays: delays, logger: logger}
}

// Fetch navigates to pageURL with a disguised user agent and returns the
// rendered HTML after screening it for bot challenges
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, mp marketplace.Code) (string, error) {
	if err := scraper.Sleep(ctx, f.delays.PreRequest()); err != nil {
		return "", err
	}

	page, err := f.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer f.pool.Release(page)

	h := f.headers.Headers(mp)
	p := page.Context(ctx)
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      h.Get("User-Agent"),
		AcceptLanguage: h.Get("Accept-Language"),
	}); err != nil {
		return "", &scraper.TransportError{URL: pageURL, Err: fmt.Errorf("setting user agent: %w", err)}
	}

	f.logger.Info("Rendering product page",
		slog.String("url", pageURL),
		slog.String("marketplace", string(mp)),
	)

	if err := p.Navigate(pageURL); err != nil {
		return "", f.pageError(ctx, pageURL, fmt.Errorf("navigating: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return "", f.pageError(ctx, pageURL, fmt.Errorf("waiting for load: %w", err))
	}

	html, err := p.HTML()
	if err != nil {
		return "", f.pageError(ctx, pageURL, fmt.Errorf("reading html: %w", err))
	}

	if err := scraper.DetectBotChallenge(pageURL, html); err != nil {
		return "", err
	}
	return html, nil
}

func (f *Fetcher) pageError(ctx context.Context, pageURL string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &scraper.TransportError{URL: pageURL, Err: err}
}
