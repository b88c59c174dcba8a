package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	last := errors.New("still broken")
	calls := 0
	err := Retry(context.Background(), fastConfig(2), func() error {
		calls++
		return last
	})
	if !errors.Is(err, last) || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, fastConfig(5), func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if err != context.Canceled || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	initial := 100 * time.Millisecond
	max := 500 * time.Millisecond

	if d := CalculateBackoff(0, initial, max, 2); d != initial {
		t.Errorf("attempt 0 = %s", d)
	}
	if d := CalculateBackoff(1, initial, max, 2); d != 200*time.Millisecond {
		t.Errorf("attempt 1 = %s", d)
	}
	if d := CalculateBackoff(10, initial, max, 2); d != max {
		t.Errorf("attempt 10 = %s, want cap", d)
	}
}
