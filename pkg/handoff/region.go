// Package handoff implements the quiescent region used while a pixel buffer
// is transferred to a foreign allocator.
//
// The Go collector does not relocate heap objects, so the hazard reduces to
// keeping the buffer reachable and avoiding a collection cycle in the middle
// of the transfer. A Region suspends the collector for the duration of the
// window, provided the requested size fits under the process memory limit,
// and serializes all windows process wide.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"runtime/metrics"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/pawfeed/pkg/ports"
)

const (
	// DefaultPrimaryBytes is the preferred window budget.
	DefaultPrimaryBytes int64 = 243 << 20
	// DefaultFallbackBytes is the minimal window budget tried when the
	// primary one does not fit.
	DefaultFallbackBytes int64 = 15 << 20
)

// ErrWindowUnavailable is returned when neither budget can be granted.
var ErrWindowUnavailable = errors.New("quiescent window unavailable")

// Options configures a Region.
type Options struct {
	PrimaryBytes  int64
	FallbackBytes int64

	// Headroom returns how many bytes may still be allocated before the
	// process hits its memory limit. Defaults to RuntimeHeadroom.
	Headroom func() int64

	// OnGrant is called with the budget of every granted window and whether
	// it was the fallback budget.
	OnGrant func(budget int64, fallback bool)

	Logger ports.Logger
}

// window is held by whichever Region currently suspends the collector.
// Every Region shares it, since the collector setting is process global.
var window = semaphore.NewWeighted(1)

// Region is a quiescent window with its own budgets. At most one window is
// held at a time across all Regions; overlapping requests queue on it.
type Region struct {
	primary  int64
	fallback int64
	headroom func() int64
	onGrant  func(int64, bool)
	logger   ports.Logger

	sem *semaphore.Weighted
}

// New creates a Region.
func New(opts Options) *Region {
	if opts.PrimaryBytes <= 0 {
		opts.PrimaryBytes = DefaultPrimaryBytes
	}
	if opts.FallbackBytes <= 0 {
		opts.FallbackBytes = DefaultFallbackBytes
	}
	if opts.FallbackBytes > opts.PrimaryBytes {
		opts.FallbackBytes = opts.PrimaryBytes
	}
	if opts.Headroom == nil {
		opts.Headroom = RuntimeHeadroom
	}
	r := &Region{
		primary:  opts.PrimaryBytes,
		fallback: opts.FallbackBytes,
		headroom: opts.Headroom,
		onGrant:  opts.OnGrant,
		logger:   opts.Logger,
		sem:      window,
	}
	if r.logger != nil {
		r.logger = r.logger.WithComponent("handoff")
	}
	return r
}

var (
	defaultOnce   sync.Once
	defaultRegion *Region
)

// Default returns the shared process-wide region with default budgets.
func Default() *Region {
	defaultOnce.Do(func() {
		defaultRegion = New(Options{})
	})
	return defaultRegion
}

// Budgets returns the primary and fallback window sizes.
func (r *Region) Budgets() (primary, fallback int64) {
	return r.primary, r.fallback
}

// Enter waits for the region, picks a budget for size and suspends the
// collector. The returned release restores the collector and frees the
// region; it is idempotent. When no budget fits, the region is not held and
// ErrWindowUnavailable is returned.
func (r *Region) Enter(ctx context.Context, size int64) (func(), error) {
	noop := func() {}
	if size <= 0 {
		return noop, fmt.Errorf("%w: invalid size %d", ErrWindowUnavailable, size)
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return noop, err
	}

	budget, fallback, err := r.grant(size)
	if err != nil {
		r.sem.Release(1)
		if r.logger != nil {
			r.logger.Warn("Hand-off window refused for %d bytes: %v", size, err)
		}
		return noop, err
	}
	if fallback && r.logger != nil {
		r.logger.Debug("Hand-off using fallback window of %d bytes", budget)
	}
	if r.onGrant != nil {
		r.onGrant(budget, fallback)
	}

	prev := debug.SetGCPercent(-1)
	var once sync.Once
	return func() {
		once.Do(func() {
			debug.SetGCPercent(prev)
			r.sem.Release(1)
		})
	}, nil
}

// grant walks the budget ladder and returns the first budget that covers
// size and fits the current headroom.
func (r *Region) grant(size int64) (budget int64, fallback bool, err error) {
	headroom := r.headroom()
	for i, b := range []int64{r.primary, r.fallback} {
		if size > b {
			continue
		}
		if b <= headroom {
			return b, i > 0, nil
		}
	}
	if size > r.primary {
		return 0, false, fmt.Errorf("%w: %d bytes exceeds primary budget %d", ErrWindowUnavailable, size, r.primary)
	}
	return 0, false, fmt.Errorf("%w: %d bytes of headroom left", ErrWindowUnavailable, headroom)
}

// RuntimeHeadroom returns the distance between the soft memory limit and the
// memory currently mapped by the runtime. Without a limit it is unbounded.
func RuntimeHeadroom() int64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return math.MaxInt64
	}
	sample := []metrics.Sample{{Name: "/memory/classes/total:bytes"}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return math.MaxInt64
	}
	used := int64(sample[0].Value.Uint64())
	if used >= limit {
		return 0
	}
	return limit - used
}

var _ ports.Quiescer = (*Region)(nil)
