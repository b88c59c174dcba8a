package performance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	var counter atomic.Int64
	done := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		ok := pool.Submit(func() {
			counter.Add(1)
			done <- struct{}{}
		})
		if !ok {
			t.Fatalf("Submit rejected task %d", i)
		}
	}

	for i := 0; i < 20; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not complete")
		}
	}
	if counter.Load() != 20 {
		t.Errorf("counter = %d", counter.Load())
	}
}

func TestWorkerPoolSubmitWait(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Stop()

	ran := false
	if !pool.SubmitWait(func() { ran = true }) {
		t.Fatal("SubmitWait rejected task")
	}
	if !ran {
		t.Error("task did not run before SubmitWait returned")
	}
}

func TestWorkerPoolRejectsWhenStopped(t *testing.T) {
	pool := NewWorkerPool(1)
	if pool.Submit(func() {}) {
		t.Error("Submit accepted before Start")
	}

	pool.Start()
	pool.Stop()
	if pool.Submit(func() {}) {
		t.Error("Submit accepted after Stop")
	}
}

func TestWorkerPoolStats(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()

	pool.SubmitWait(func() {})
	pool.Stop()

	stats := pool.Stats()
	if stats.Workers != 2 || stats.Running {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TasksTotal != 1 || stats.TasksDone != 1 {
		t.Errorf("task counts = %d/%d", stats.TasksDone, stats.TasksTotal)
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("burst request %d denied", i)
		}
	}
	if rl.Allow() {
		t.Error("request beyond burst allowed immediately")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	if !rl.Allow() {
		t.Fatal("first request denied")
	}
	if rl.Allow() {
		t.Fatal("second request allowed without refill")
	}

	time.Sleep(50 * time.Millisecond)
	if !rl.Allow() {
		t.Error("request denied after refill window")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.Allow() // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait = %v, want deadline exceeded", err)
	}
}
