package multiplexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/pawfeed/pkg/media"
)

// ErrNoPreparer is returned by Start and Take when no Preparer is set.
var ErrNoPreparer = errors.New("multiplexer has no preparer")

// preload keeps up to depth GPU resident items ready. A slot is taken
// before Next is issued and given back when the consumer takes the item,
// so no Next runs while the reserve is full.
type preload struct {
	depth   int
	slots   *semaphore.Weighted
	reserve chan *media.Item

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	done    bool
}

func (p *preload) init(depth int) {
	p.depth = depth
	if depth > 0 {
		p.slots = semaphore.NewWeighted(int64(depth))
		p.reserve = make(chan *media.Item, depth)
	}
}

func (m *Multiplexer) closed() bool {
	m.preload.mu.Lock()
	defer m.preload.mu.Unlock()
	return m.preload.done
}

// Start launches the preloader. It returns immediately; the preloader runs
// until ctx is cancelled or Close is called. With a zero preload depth
// Start does nothing.
func (m *Multiplexer) Start(ctx context.Context) error {
	if m.preparer == nil {
		return ErrNoPreparer
	}
	p := &m.preload
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.done:
		return ErrClosed
	case p.started || p.depth == 0:
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		m.preloadLoop(ctx)
	}()
	m.logger.Info("Preloader started (depth %d)", p.depth)
	return nil
}

func (m *Multiplexer) preloadLoop(ctx context.Context) {
	p := &m.preload
	for {
		if err := p.slots.Acquire(ctx, 1); err != nil {
			return
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if !m.preloadOne(ctx) {
				p.slots.Release(1)
			}
		}()
	}
}

// preloadOne fills one reserve slot. It reports whether an item was placed
// in the reserve.
func (m *Multiplexer) preloadOne(ctx context.Context) bool {
	item, err := m.Next(ctx)
	if item == nil {
		return false
	}
	exhausted := errors.Is(err, media.ErrExhausted)

	if err := m.prepare(ctx, item); err != nil {
		m.Release(item)
		if ctx.Err() == nil {
			m.logger.Warn("Preload failed: %v", err)
		}
		if exhausted {
			m.sleep(ctx, m.cfg.RetryDelay)
		}
		return false
	}

	m.preload.reserve <- item
	m.metrics.SetReserve(len(m.preload.reserve))
	m.updateMemory()
	if exhausted {
		m.sleep(ctx, m.cfg.RetryDelay)
	}
	return true
}

func (m *Multiplexer) prepare(ctx context.Context, item *media.Item) error {
	start := time.Now()
	err := m.preparer.Prepare(ctx, item)
	m.metrics.ObserveStage("prepare", time.Since(start))
	if err != nil {
		m.metrics.ItemFinished(media.StateError.String())
		return err
	}
	m.metrics.ItemFinished(item.State().String())
	return nil
}

func (m *Multiplexer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Take returns a GPU resident item. With a running preloader it takes one
// from the reserve; otherwise it runs Next and prepares the item inline.
// The caller owns the item and hands it back with Release.
func (m *Multiplexer) Take(ctx context.Context) (*media.Item, error) {
	if m.preparer == nil {
		return nil, ErrNoPreparer
	}
	p := &m.preload
	p.mu.Lock()
	started, done := p.started, p.done
	p.mu.Unlock()
	if done {
		return nil, ErrClosed
	}

	if !started {
		item, err := m.Next(ctx)
		if item == nil {
			return nil, err
		}
		if perr := m.prepare(ctx, item); perr != nil {
			m.Release(item)
			return nil, errors.Join(err, perr)
		}
		return item, err
	}

	select {
	case item, ok := <-p.reserve:
		if !ok {
			return nil, ErrClosed
		}
		p.slots.Release(1)
		m.metrics.SetReserve(len(p.reserve))
		return item, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", media.ErrCancelled, context.Cause(ctx))
	}
}

// TryTake is Take without waiting. It reports false when the reserve is
// empty or the preloader is not running.
func (m *Multiplexer) TryTake() (*media.Item, bool) {
	p := &m.preload
	if p.reserve == nil {
		return nil, false
	}
	select {
	case item, ok := <-p.reserve:
		if !ok {
			return nil, false
		}
		p.slots.Release(1)
		m.metrics.SetReserve(len(p.reserve))
		return item, true
	default:
		return nil, false
	}
}

// Preloading reports whether the preloader is running. When it is not,
// TryTake never returns an item and Take prepares items inline.
func (m *Multiplexer) Preloading() bool {
	m.preload.mu.Lock()
	defer m.preload.mu.Unlock()
	return m.preload.started && !m.preload.done
}

// Reserved returns the number of items waiting in the reserve.
func (m *Multiplexer) Reserved() int {
	return len(m.preload.reserve)
}

// Close stops the preloader and releases every item still in the reserve.
// Items already taken stay with their owner.
func (m *Multiplexer) Close() error {
	p := &m.preload
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return nil
	}
	p.done = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	if p.reserve != nil {
		close(p.reserve)
		for item := range p.reserve {
			m.Release(item)
		}
	}
	m.metrics.SetReserve(0)
	m.logger.Info("Multiplexer closed")
	return nil
}
