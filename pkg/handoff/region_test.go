package handoff

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/pawfeed/pkg/mocks"
)

func unbounded() int64 { return math.MaxInt64 }

func TestRegion_PrimaryBudget(t *testing.T) {
	var granted int64
	var usedFallback bool
	r := New(Options{
		PrimaryBytes:  1000,
		FallbackBytes: 100,
		Headroom:      unbounded,
		OnGrant: func(b int64, fb bool) {
			granted, usedFallback = b, fb
		},
	})

	release, err := r.Enter(context.Background(), 500)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	release()

	if granted != 1000 || usedFallback {
		t.Errorf("expected primary budget, got %d (fallback=%v)", granted, usedFallback)
	}
}

func TestRegion_FallbackBudget(t *testing.T) {
	var usedFallback bool
	logger := mocks.NewLogger()
	r := New(Options{
		PrimaryBytes:  1000,
		FallbackBytes: 100,
		Headroom:      func() int64 { return 200 },
		OnGrant:       func(_ int64, fb bool) { usedFallback = fb },
		Logger:        logger,
	})

	release, err := r.Enter(context.Background(), 50)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	defer release()

	if !usedFallback {
		t.Error("expected fallback budget when primary exceeds headroom")
	}
}

func TestRegion_Unavailable(t *testing.T) {
	r := New(Options{
		PrimaryBytes:  1000,
		FallbackBytes: 100,
		Headroom:      func() int64 { return 10 },
	})

	_, err := r.Enter(context.Background(), 50)
	if !errors.Is(err, ErrWindowUnavailable) {
		t.Fatalf("expected ErrWindowUnavailable, got %v", err)
	}

	// A refused request must not leave the region held
	if !r.sem.TryAcquire(1) {
		t.Fatal("region still held after refusal")
	}
	r.sem.Release(1)
}

func TestRegion_SizeAbovePrimary(t *testing.T) {
	r := New(Options{PrimaryBytes: 100, FallbackBytes: 10, Headroom: unbounded})

	if _, err := r.Enter(context.Background(), 101); !errors.Is(err, ErrWindowUnavailable) {
		t.Errorf("expected ErrWindowUnavailable, got %v", err)
	}
	if _, err := r.Enter(context.Background(), 0); !errors.Is(err, ErrWindowUnavailable) {
		t.Errorf("expected ErrWindowUnavailable for zero size, got %v", err)
	}
}

func TestRegion_SuspendsCollector(t *testing.T) {
	r := New(Options{Headroom: unbounded})
	before := debug.SetGCPercent(100)
	defer debug.SetGCPercent(before)

	release, err := r.Enter(context.Background(), 1024)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	inside := debug.SetGCPercent(-1)
	release()
	after := debug.SetGCPercent(100)

	if inside != -1 {
		t.Errorf("expected collector off inside window, got %d", inside)
	}
	if after != 100 {
		t.Errorf("expected collector restored to 100, got %d", after)
	}
}

func TestRegion_ReleaseIdempotent(t *testing.T) {
	r := New(Options{Headroom: unbounded})

	release, err := r.Enter(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	release()
	release()

	// Only one slot exists; a double release would panic in the semaphore
	release, err = r.Enter(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Enter failed: %v", err)
	}
	release()
}

func TestRegion_Serializes(t *testing.T) {
	r := New(Options{Headroom: unbounded})

	var held, overlap atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := r.Enter(context.Background(), 64)
			if err != nil {
				t.Errorf("Enter failed: %v", err)
				return
			}
			if held.Add(1) > 1 {
				overlap.Store(1)
			}
			time.Sleep(time.Millisecond)
			held.Add(-1)
			release()
		}()
	}
	wg.Wait()

	if overlap.Load() != 0 {
		t.Error("two windows were held at once")
	}
}

func TestRegion_CancelWhileWaiting(t *testing.T) {
	r := New(Options{Headroom: unbounded})

	release, err := r.Enter(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Enter(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestRuntimeHeadroom_NoLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(math.MaxInt64)
	defer debug.SetMemoryLimit(prev)

	if got := RuntimeHeadroom(); got != math.MaxInt64 {
		t.Errorf("expected unbounded headroom, got %d", got)
	}
}

func TestRegion_SharedAcrossInstances(t *testing.T) {
	a := New(Options{Headroom: unbounded})
	b := New(Options{PrimaryBytes: 1 << 20, FallbackBytes: 1 << 10, Headroom: unbounded})

	release, err := a.Enter(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.Enter(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second region entered while the first was held: %v", err)
	}

	release()
	release, err = b.Enter(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enter after release failed: %v", err)
	}
	release()
}
