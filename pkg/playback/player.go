// Package playback selects the texture to draw for the current item at a
// given time. The host calls Texture once per render tick.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/pawfeed/pkg/adapters/logger"
	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/ports"
)

// ErrNotReady is returned by Texture when there is neither a current item
// nor a placeholder.
var ErrNotReady = errors.New("no item ready for display")

// Source hands out GPU resident items and takes them back.
type Source interface {
	Take(ctx context.Context) (*media.Item, error)
	TryTake() (*media.Item, bool)
	Release(item *media.Item)
	// Preloading reports whether a background preloader fills the reserve
	// that TryTake reads from.
	Preloading() bool
}

// Options configures a Player.
type Options struct {
	Source Source
	// Placeholder is drawn while no item is ready. It must be GPU resident.
	Placeholder *media.Item
	// Interval advances to the next item automatically once the current
	// one has been shown this long and a successor is ready. Zero means
	// Advance must be called explicitly.
	Interval time.Duration
	Logger   ports.Logger
	Now      func() time.Time
}

// Player owns the displayed item. The previous item is released as soon as
// a new one replaces it.
//
// When the source is not preloading, Texture starts a background Take
// whenever an item is due and shows the result on a later tick, so the feed
// keeps advancing with a zero preload depth.
type Player struct {
	source   Source
	interval time.Duration
	logger   ports.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	placeholder *media.Item
	current     *media.Item
	pending     *media.Item
	fetching    bool
	shownAt     time.Time
	closed      bool
}

// New creates a Player.
func New(opts Options) *Player {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		ctx:         ctx,
		cancel:      cancel,
		source:      opts.Source,
		placeholder: opts.Placeholder,
		interval:    opts.Interval,
		logger:      opts.Logger.WithComponent("playback"),
		now:         opts.Now,
	}
}

// Current returns the displayed item, or nil.
func (p *Player) Current() *media.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SetPlaceholder replaces the item drawn while nothing else is ready.
func (p *Player) SetPlaceholder(item *media.Item) {
	p.mu.Lock()
	p.placeholder = item
	p.mu.Unlock()
}

// Advance waits for the next item and displays it.
func (p *Player) Advance(ctx context.Context) error {
	if item, ok := p.takePending(); ok {
		p.show(item)
		return nil
	}
	item, err := p.source.Take(ctx)
	if item == nil {
		return err
	}
	if err != nil {
		p.logger.Warn("Showing fallback: %v", err)
	}
	p.show(item)
	return nil
}

// show replaces the current item. Caller must not hold mu.
func (p *Player) show(item *media.Item) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.source.Release(item)
		return
	}
	prev := p.current
	p.current = item
	p.shownAt = p.now()
	p.mu.Unlock()

	if prev != nil && prev != item {
		p.source.Release(prev)
	}
	p.logger.Debug("Showing %s", item)
}

// Texture returns the texture to draw at now. It never blocks: when no
// item is ready the placeholder is drawn instead.
func (p *Player) Texture(now time.Time) (ports.Texture, error) {
	p.mu.Lock()
	current, shownAt, placeholder := p.current, p.shownAt, p.placeholder
	due := current == nil || (p.interval > 0 && now.Sub(shownAt) >= p.interval)
	p.mu.Unlock()

	if due {
		next, ok := p.takePending()
		if !ok {
			next, ok = p.source.TryTake()
		}
		switch {
		case ok:
			p.show(next)
			p.mu.Lock()
			current, shownAt = p.current, p.shownAt
			p.mu.Unlock()
		case !p.source.Preloading():
			p.fetch()
		}
	}

	if current != nil && current.State() == media.StateGPUResident {
		return current.FrameAt(now.Sub(shownAt).Milliseconds())
	}
	if placeholder != nil {
		return placeholder.FrameAt(now.UnixMilli())
	}
	return nil, ErrNotReady
}

func (p *Player) takePending() (*media.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item := p.pending
	p.pending = nil
	return item, item != nil
}

// fetch runs one Take in the background and parks the result as pending.
// At most one fetch is in flight.
func (p *Player) fetch() {
	p.mu.Lock()
	if p.closed || p.fetching || p.pending != nil {
		p.mu.Unlock()
		return
	}
	p.fetching = true
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		item, err := p.source.Take(p.ctx)
		if err != nil && p.ctx.Err() == nil {
			if item != nil {
				p.logger.Warn("Showing fallback: %v", err)
			} else {
				p.logger.Warn("Background take failed: %v", err)
			}
		}

		p.mu.Lock()
		p.fetching = false
		if item != nil && !p.closed {
			p.pending, item = item, nil
		}
		p.mu.Unlock()

		if item != nil {
			p.source.Release(item)
		}
	}()
}

// Close stops any background fetch and releases the displayed and pending
// items. The placeholder is not released.
func (p *Player) Close() {
	p.mu.Lock()
	current, pending := p.current, p.pending
	p.current, p.pending = nil, nil
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	for _, item := range []*media.Item{current, pending} {
		if item != nil {
			p.source.Release(item)
		}
	}
}
