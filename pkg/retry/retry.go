package retry

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Policy controls exponential backoff behaviour for one call site.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Default is the policy applied to all networks unless overridden.
var Default = Policy{
	MaxRetries:   3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// Base is the policy for Base mainnet, whose public RPCs rate-limit
// aggressively.
var Base = Policy{
	MaxRetries:   5,
	InitialDelay: 2500 * time.Millisecond,
	MaxDelay:     20 * time.Second,
	Multiplier:   2.5,
}

// retryableMarkers are matched case-insensitively against error text.
var retryableMarkers = []string{
	"429",
	"rate limit",
	"too many requests",
	"econnreset",
	"etimedout",
	"enotfound",
}

// Retryable reports whether an error looks like a transient transport or
// rate-limit failure.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do runs op, retrying on retryable errors with capped exponential backoff.
// Non-retryable errors propagate immediately; on the final attempt the last
// error is returned verbatim.
func Do[T any](ctx context.Context, p Policy, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxRetries <= 0 {
		p = Default
	}

	delay := p.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == p.MaxRetries {
			return zero, lastErr
		}

		log.Warnf("%s attempt %d/%d failed: %v, retrying in %s", label, attempt+1, p.MaxRetries+1, err, delay)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return zero, lastErr
}
