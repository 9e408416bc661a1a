package scraper

import (
	"context"
	"fmt"
	"log/slog"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int
	Delays      DelayProvider
}

// DefaultRetryConfig returns three attempts with a 30-60s pause between them
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delays:      DefaultRandomDelays(),
	}
}

// WithRetry runs fn up to MaxAttempts times, pausing for the configured
// backoff between attempts. Errors that IsRetryable rejects end the loop early.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func(attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Delays == nil {
		cfg.Delays = DefaultRandomDelays()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if logger != nil {
			logger.Warn("scrape attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}

		if !IsRetryable(err) {
			return err
		}

		// Don't wait after the last attempt
		if attempt < cfg.MaxAttempts {
			wait := cfg.Delays.Backoff(attempt + 1)
			if logger != nil {
				logger.Info("Waiting before retry",
					slog.Int("next_attempt", attempt+1),
					slog.Duration("delay", wait),
				)
			}
			if err := Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
