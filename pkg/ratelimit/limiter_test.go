package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestNewLimiter_MinInterval(t *testing.T) {
	tests := []struct {
		name     string
		rps      int
		expected time.Duration
	}{
		{"ten per second", 10, 100 * time.Millisecond},
		{"one per second", 1, time.Second},
		{"zero clamps to one", 0, time.Second},
		{"negative clamps to one", -5, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.rps)
			if l.MinInterval() != tt.expected {
				t.Errorf("MinInterval() = %v, want %v", l.MinInterval(), tt.expected)
			}
		})
	}
}

func TestLimiter_FirstAcquireImmediate(t *testing.T) {
	l := NewLimiter(1)

	start := time.Now()
	if !l.Acquire(time.Second) {
		t.Fatal("first Acquire should succeed")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Acquire took %v, expected no wait", elapsed)
	}
}

func TestLimiter_EnforcesSpacing(t *testing.T) {
	// 10 requests/second => 100ms spacing; 5 sequential acquires must
	// take at least 4 full intervals (0.4s) in total.
	l := NewLimiter(10)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if !l.Acquire(10 * time.Second) {
			t.Fatalf("Acquire %d failed", i)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 400*time.Millisecond {
		t.Errorf("5 acquires at 10 rps took %v, want >= 400ms", elapsed)
	}
}

func TestLimiter_TimeoutReturnsFalse(t *testing.T) {
	l := NewLimiter(1) // 1s spacing

	if !l.Acquire(time.Second) {
		t.Fatal("first Acquire should succeed")
	}

	// Required wait is ~1s; a 10ms timeout cannot be met.
	start := time.Now()
	if l.Acquire(10 * time.Millisecond) {
		t.Error("Acquire should return false when wait exceeds timeout")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("timed-out Acquire slept for %v, should return without sleeping", elapsed)
	}
}

func TestLimiter_TimeoutDoesNotConsumeGrant(t *testing.T) {
	l := NewLimiter(10)

	if !l.Acquire(time.Second) {
		t.Fatal("first Acquire should succeed")
	}
	if l.Acquire(0) {
		t.Fatal("zero-timeout Acquire should fail while interval pending")
	}

	// The failed acquire must not have advanced the grant clock: a
	// patient caller still succeeds after the original interval.
	if !l.Acquire(time.Second) {
		t.Error("Acquire with sufficient timeout should succeed after a failed attempt")
	}
}

func TestLimiter_ConcurrentCallersSerialize(t *testing.T) {
	l := NewLimiter(10)

	const callers = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	var grants []time.Time

	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.Acquire(10 * time.Second) {
				t.Error("concurrent Acquire failed")
				return
			}
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(grants) != callers {
		t.Fatalf("expected %d grants, got %d", callers, len(grants))
	}

	// Total elapsed must cover callers-1 full intervals; small scheduling
	// slack is tolerated on the individual spacing.
	if elapsed := time.Since(start); elapsed < 350*time.Millisecond {
		t.Errorf("%d concurrent acquires finished in %v, want >= 350ms", callers, elapsed)
	}
}
