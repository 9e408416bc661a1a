package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on second attempt", func(t *testing.T) {
		t.Parallel()

		delays := &noDelays{}
		var attempts []int
		err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3, Delays: delays}, nil, func(attempt int) error {
			attempts = append(attempts, attempt)
			if attempt == 1 {
				return &TransportError{URL: "u", StatusCode: 503}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, attempts)
		assert.Equal(t, []int{2}, delays.backoffs)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		t.Parallel()

		delays := &noDelays{}
		calls := 0
		err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 2, Delays: delays}, nil, func(int) error {
			calls++
			return &BotChallengeError{URL: "u", Indicator: "captcha"}
		})

		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.Contains(t, err.Error(), "failed after 2 attempts")
		var challenge *BotChallengeError
		assert.True(t, errors.As(err, &challenge))
		assert.Equal(t, []int{2}, delays.backoffs, "no wait after the last attempt")
	})

	t.Run("stops on non retryable error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		resolution := &ResolutionError{URL: "u", Err: errors.New("no asin")}
		err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3, Delays: &noDelays{}}, nil, func(int) error {
			calls++
			return resolution
		})

		assert.Equal(t, 1, calls)
		assert.Same(t, resolution, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := WithRetry(ctx, RetryConfig{MaxAttempts: 2, Delays: &noDelays{}}, nil, func(int) error {
			calls++
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("cancelled during backoff", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		err := WithRetry(ctx, RetryConfig{MaxAttempts: 2, Delays: slowDelays{}}, nil, func(int) error {
			cancel()
			return &TransportError{URL: "u", StatusCode: 500}
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
