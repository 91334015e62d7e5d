package multiplexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/pawfeed/pkg/media"
)

func TestTake_Inline(t *testing.T) {
	p := newFake("a")
	prep := newPreparer()
	m := New(Options{Preparer: prep})
	m.AddProvider(p)

	item, err := m.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if item.State() != media.StateGPUResident {
		t.Errorf("expected GPUResident, got %s", item.State())
	}

	m.Release(item)
	if prep.gfx.Live() != 0 {
		t.Errorf("release leaked %d textures", prep.gfx.Live())
	}
}

func TestTake_NoPreparer(t *testing.T) {
	m := New(Options{})
	if _, err := m.Take(context.Background()); !errors.Is(err, ErrNoPreparer) {
		t.Errorf("expected ErrNoPreparer, got %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrNoPreparer) {
		t.Errorf("expected ErrNoPreparer, got %v", err)
	}
}

func TestPreload_StopsWhenReserveFull(t *testing.T) {
	p := newFake("a")
	m := New(Options{Config: Config{PreloadDepth: 2}, Preparer: newPreparer()})
	m.AddProvider(p)

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	waitFor(t, "reserve to fill", func() bool { return m.Reserved() == 2 })
	time.Sleep(20 * time.Millisecond)
	if p.calls.Load() != 2 {
		t.Fatalf("preloader kept issuing requests with a full reserve: %d calls", p.calls.Load())
	}

	item, err := m.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if item.State() != media.StateGPUResident {
		t.Errorf("expected GPUResident, got %s", item.State())
	}
	waitFor(t, "reserve to refill", func() bool { return p.calls.Load() == 3 && m.Reserved() == 2 })
	m.Release(item)
}

func TestPreload_RetriesAfterPrepareFailure(t *testing.T) {
	p := newFake("a")
	prep := newPreparer()
	prep.fail.Store(true)
	m := New(Options{Config: Config{PreloadDepth: 1}, Preparer: prep})
	m.AddProvider(p)

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	waitFor(t, "a retry", func() bool { return p.calls.Load() >= 2 })
	if m.Reserved() != 0 {
		t.Error("failed items must not enter the reserve")
	}

	prep.fail.Store(false)
	waitFor(t, "reserve to fill", func() bool { return m.Reserved() == 1 })
}

func TestClose_ReleasesReserve(t *testing.T) {
	p := newFake("a")
	prep := newPreparer()
	m := New(Options{Config: Config{PreloadDepth: 2}, Preparer: prep})
	m.AddProvider(p)

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reserve to fill", func() bool { return m.Reserved() == 2 })

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if prep.gfx.Live() != 0 {
		t.Errorf("%d textures still live after Close", prep.gfx.Live())
	}
	if _, err := m.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := m.Take(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestTake_Cancelled(t *testing.T) {
	p := newFake("a")
	p.block = make(chan struct{})
	m := New(Options{Config: Config{PreloadDepth: 1}, Preparer: newPreparer()})
	m.AddProvider(p)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Take(ctx); !errors.Is(err, media.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if _, ok := m.TryTake(); ok {
		t.Error("TryTake should find an empty reserve")
	}
}

func TestPreloading(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		want  bool
	}{
		{"reserve", 2, true},
		{"no reserve", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(Options{Config: Config{PreloadDepth: tt.depth}, Preparer: newPreparer()})
			m.AddProvider(newFake("a"))

			if m.Preloading() {
				t.Fatal("expected no preloading before Start")
			}
			if err := m.Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := m.Preloading(); got != tt.want {
				t.Errorf("Preloading() = %v, want %v", got, tt.want)
			}
			m.Close()
			if m.Preloading() {
				t.Error("expected no preloading after Close")
			}
		})
	}
}
