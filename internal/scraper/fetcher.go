package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/marketplace"
)

// maxBodyBytes bounds how much of a product page is read
const maxBodyBytes = 8 << 20

// Fetcher retrieves the raw HTML of a normalized product URL
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, mp marketplace.Code) (string, error)
}

// ShortLinkResolver follows a short link to its final URL
type ShortLinkResolver interface {
	ResolveShortLink(ctx context.Context, shortURL string) (string, error)
}

// FetcherConfig holds transport settings for the HTTP fetcher
type FetcherConfig struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	MaxRedirects   int
}

// DefaultFetcherConfig returns a 45s request timeout and 15s connect timeout
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		RequestTimeout: 45 * time.Second,
		ConnectTimeout: 15 * time.Second,
		MaxRedirects:   5,
	}
}

// HTTPFetcher fetches product pages over plain HTTP with disguised headers
type HTTPFetcher struct {
	client  *http.Client
	headers HeaderProvider
	delays  DelayProvider
	logger  *slog.Logger
}

// NewHTTPClient builds the client used for product page requests.
// TLS verification stays enabled.
func NewHTTPClient(cfg FetcherConfig) *http.Client {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}

	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.ConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: cfg.RequestTimeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// NewHTTPFetcher creates a fetcher. Nil providers fall back to the random defaults.
func NewHTTPFetcher(client *http.Client, headers HeaderProvider, delays DelayProvider, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient(DefaultFetcherConfig())
	}
	if headers == nil {
		headers = NewRandomHeaders()
	}
	if delays == nil {
		delays = DefaultRandomDelays()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		client:  client,
		headers: headers,
		delays:  delays,
		logger:  logger,
	}
}

// Fetch waits the pre-request delay, performs a single GET and screens the
// body for bot challenges
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, mp marketplace.Code) (string, error) {
	delay := f.delays.PreRequest()
	f.logger.Debug("Waiting before product request",
		slog.String("url", truncate(pageURL, 100)),
		slog.Duration("delay", delay),
	)
	if err := Sleep(ctx, delay); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header = f.headers.Headers(mp)

	f.logger.Info("Fetching product page",
		slog.String("url", truncate(pageURL, 100)),
		slog.String("marketplace", string(mp)),
		slog.String("accept_language", req.Header.Get("Accept-Language")),
	)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransportError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("HTTP request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("url", truncate(pageURL, 100)),
		)
		return "", &TransportError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: fmt.Errorf("reading response: %w", err)}
	}
	html := string(body)

	if err := DetectBotChallenge(pageURL, html); err != nil {
		f.logger.Error("Bot challenge detected",
			slog.String("url", truncate(pageURL, 100)),
			slog.String("marketplace", string(mp)),
		)
		return "", err
	}

	f.logger.Info("Fetched product page",
		slog.String("url", truncate(pageURL, 100)),
		slog.Int("html_size", len(html)),
	)
	return html, nil
}

// ResolveShortLink follows redirects from a short link and returns the final URL
func (f *HTTPFetcher) ResolveShortLink(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", &TransportError{URL: shortURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header = f.headers.Headers(marketplace.US)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransportError{URL: shortURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{URL: shortURL, StatusCode: resp.StatusCode}
	}

	final := resp.Request.URL.String()
	f.logger.Info("Short URL resolved",
		slog.String("short_url", shortURL),
		slog.String("url", truncate(final, 100)),
	)
	return final, nil
}
