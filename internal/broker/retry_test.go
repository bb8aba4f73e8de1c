package broker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Transient(errors.New("broker busy"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	cause := errors.New("still down")
	err := fastPolicy(4).Do(context.Background(), func() error {
		calls++
		return Transient(cause)
	})
	if !errors.Is(err, cause) {
		t.Fatalf("expected final transient error, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestRetryDoesNotRetryNonTransientErrors(t *testing.T) {
	calls := 0
	cause := errors.New("access refused")
	err := fastPolicy(5).Do(context.Background(), func() error {
		calls++
		return cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("expected %v, got %v", cause, err)
	}
	if calls != 1 {
		t.Fatalf("non-transient error retried %d times", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := RetryPolicy{MaxAttempts: 100, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func() error {
		calls++
		return Transient(errors.New("unreachable"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls > 2 {
		t.Fatalf("kept retrying after cancel: %d calls", calls)
	}
}

func TestRetryReportsAttempts(t *testing.T) {
	var reported []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, err error) { reported = append(reported, attempt) }
	_ = p.Do(context.Background(), func() error {
		return Transient(errors.New("nack"))
	})
	if len(reported) != 2 || reported[0] != 1 || reported[1] != 2 {
		t.Fatalf("expected retries reported for attempts 1 and 2, got %v", reported)
	}
}

func TestTransientMarking(t *testing.T) {
	if Transient(nil) != nil {
		t.Fatalf("Transient(nil) should be nil")
	}
	cause := errors.New("timeout")
	marked := Transient(cause)
	if !IsTransient(marked) {
		t.Fatalf("marked error not recognised as transient")
	}
	if !errors.Is(marked, cause) {
		t.Fatalf("marking hid the cause")
	}
	if IsTransient(cause) {
		t.Fatalf("unmarked error reported transient")
	}
}
