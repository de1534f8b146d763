package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy keeps the tests quick while preserving the attempt counts.
func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("succeeds after transient rate limit errors", func(t *testing.T) {
		attempts := 0
		result, err := Do(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (string, error) {
			attempts++
			if attempts <= 2 {
				return "", errors.New("HTTP 429 Too Many Requests")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("propagates the last error when attempts are exhausted", func(t *testing.T) {
		attempts := 0
		lastErr := errors.New("HTTP 429 attempt 4")
		_, err := Do(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
			attempts++
			if attempts < 4 {
				return 0, errors.New("HTTP 429")
			}
			return 0, lastErr
		})
		require.Error(t, err)
		assert.Equal(t, 4, attempts, "default profile runs 1 initial attempt + 3 retries")
		assert.Equal(t, lastErr, err, "final error is surfaced verbatim")
	})

	t.Run("does not retry non-retryable errors", func(t *testing.T) {
		attempts := 0
		_, err := Do(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
			attempts++
			return 0, errors.New("execution reverted")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Do(ctx, fastPolicy(5), "test", func(ctx context.Context) (int, error) {
			return 0, errors.New("rate limit")
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryable(t *testing.T) {
	retryable := []string{
		"HTTP 429",
		"Rate Limit exceeded",
		"too many requests",
		"read tcp: ECONNRESET",
		"dial: ETIMEDOUT",
		"lookup rpc.example: ENOTFOUND",
	}
	for _, msg := range retryable {
		assert.True(t, Retryable(errors.New(msg)), msg)
	}

	assert.False(t, Retryable(errors.New("insufficient funds")))
	assert.False(t, Retryable(nil))
}
