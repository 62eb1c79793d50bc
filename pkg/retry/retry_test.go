package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(4), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("connection reset"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_TerminalSurfacesImmediately(t *testing.T) {
	terminal := errors.New("invalid request")
	calls := 0
	err := Do(context.Background(), fastConfig(4), func(ctx context.Context) error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Errorf("Expected terminal error surfaced, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Terminal failure must not be retried, got %d calls", calls)
	}
}

func TestDo_ExhaustionKeepsLastError(t *testing.T) {
	underlying := errors.New("gateway timeout")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return Transient(underlying)
	})
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Exhaustion must wrap the last underlying error, got %v", err)
	}
}

func TestDo_ContextCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(2 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, Config{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}, func(ctx context.Context) error {
		calls++
		return Transient(errors.New("still down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt before cancellation, got %d", calls)
	}
}

func TestHTTPStatusError_Classification(t *testing.T) {
	base := errors.New("boom")

	var transient *TransientError
	if err := HTTPStatusError(http.StatusBadGateway, 0, base); !errors.As(err, &transient) {
		t.Error("5xx must be retryable")
	}
	if err := HTTPStatusError(http.StatusTooManyRequests, 2*time.Second, base); !errors.As(err, &transient) {
		t.Error("429 must be retryable")
	} else if transient.RetryAfter != 2*time.Second {
		t.Errorf("429 must carry the indicated wait, got %v", transient.RetryAfter)
	}
	if err := HTTPStatusError(http.StatusNotFound, 0, base); errors.As(err, &transient) {
		t.Error("plain 4xx must be terminal")
	}
}
