// Package retry wraps single external calls with bounded exponential backoff.
// It classifies failures as retryable or terminal; terminal failures surface
// immediately and exhaustion always returns the last underlying error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// Config bounds one gated call
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultConfig returns the standard gate bounds
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
	}
}

// TransientError marks an error as retryable. An optional RetryAfter carries
// a rate-limited service's indicated wait.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// RateLimited wraps err as retryable with the service's indicated wait
func RateLimited(err error, wait time.Duration) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err, RetryAfter: wait}
}

// HTTPStatusError classifies err by HTTP status: 5xx and 429 are retryable
// (429 honoring retryAfter when positive), any other 4xx is terminal.
func HTTPStatusError(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return RateLimited(err, retryAfter)
	case status >= 500:
		return Transient(err)
	default:
		return err
	}
}

// Do invokes fn up to cfg.MaxAttempts times. Only errors wrapped as
// TransientError are retried; anything else is terminal and returned as-is.
// Backoff doubles per attempt with jitter, capped at MaxDelay, and a
// TransientError's RetryAfter overrides the computed backoff.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var transient *TransientError
		if !errors.As(lastErr, &transient) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoff(cfg, attempt)
		if transient.RetryAfter > 0 {
			delay = transient.RetryAfter
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

func backoff(cfg Config, attempt int) time.Duration {
	d := cfg.BaseDelay << (attempt - 1)
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	// jitter in [d/2, 3d/2)
	return time.Duration(rand.Int63n(int64(d)) + int64(d)/2)
}
