package resilience

import (
	"errors"
	"testing"
	"time"
)

func testConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         20 * time.Millisecond,
	}
}

func trip(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		b.Allow()
		b.RecordFailure()
	}
}

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker("test", testConfig())
	if b.State() != CircuitClosed {
		t.Errorf("State = %s", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow = %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", testConfig())

	trip(b, 2)
	if b.State() != CircuitClosed {
		t.Fatalf("opened after 2 failures, threshold is 3")
	}

	trip(b, 1)
	if b.State() != CircuitOpen {
		t.Fatalf("State = %s after threshold reached", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", testConfig())

	trip(b, 2)
	b.Allow()
	b.RecordSuccess()
	trip(b, 2)

	if b.State() != CircuitClosed {
		t.Errorf("State = %s, non-consecutive failures should not open", b.State())
	}
}

func TestBreakerHalfOpensAfterCooldown(t *testing.T) {
	b := NewBreaker("test", testConfig())
	trip(b, 3)

	time.Sleep(30 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow after cooldown = %v", err)
	}
	if b.State() != CircuitHalfOpen {
		t.Errorf("State = %s", b.State())
	}
}

func TestBreakerClosesAfterProbeSuccesses(t *testing.T) {
	b := NewBreaker("test", testConfig())
	trip(b, 3)
	time.Sleep(30 * time.Millisecond)

	b.Allow()
	b.RecordSuccess()
	if b.State() != CircuitHalfOpen {
		t.Fatalf("closed after one probe success, threshold is 2")
	}

	b.Allow()
	b.RecordSuccess()
	if b.State() != CircuitClosed {
		t.Errorf("State = %s after probe successes", b.State())
	}
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	b := NewBreaker("test", testConfig())
	trip(b, 3)
	time.Sleep(30 * time.Millisecond)

	b.Allow()
	b.RecordFailure()
	if b.State() != CircuitOpen {
		t.Errorf("State = %s after probe failure", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker("test", testConfig())
	trip(b, 3)

	b.Reset()
	if b.State() != CircuitClosed {
		t.Errorf("State = %s after Reset", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow after Reset = %v", err)
	}
}

func TestBreakerStats(t *testing.T) {
	b := NewBreaker("smartapi", testConfig())

	b.Allow()
	b.RecordSuccess()
	trip(b, 3)
	b.Allow() // rejected

	stats := b.Stats()
	if stats.Name != "smartapi" || stats.State != CircuitOpen {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalSuccesses != 1 || stats.TotalFailures != 3 || stats.TotalRejected != 1 {
		t.Errorf("counts = %d/%d/%d", stats.TotalSuccesses, stats.TotalFailures, stats.TotalRejected)
	}
}
