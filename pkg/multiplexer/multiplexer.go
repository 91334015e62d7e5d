// Package multiplexer fans requests out across a set of providers. It
// bounds concurrent downloads, keeps a reserve of GPU resident items ready
// for display, collapses equivalent providers into one group and falls back
// to a bundled item when every provider fails.
package multiplexer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/pawfeed/pkg/adapters/logger"
	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/ports"
	"github.com/user/pawfeed/pkg/source"
)

const (
	DefaultDownloadQueueDepth = 5
	DefaultPreloadDepth       = 2
	// DefaultOfflineWeight is the selection weight of an offline provider
	// relative to an online one.
	DefaultOfflineWeight = 0.1
	DefaultRetryDelay    = 5 * time.Second
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("multiplexer closed")

// Config holds the queue bounds.
type Config struct {
	// DownloadQueueDepth is the number of items that may be downloading at
	// once across all providers.
	DownloadQueueDepth int
	// PreloadDepth is the number of GPU resident items kept in reserve.
	PreloadDepth int
	// OfflineWeight scales the chance of picking an offline provider.
	OfflineWeight float64
	// RetryDelay is how long the preloader waits after every provider
	// failed before trying again.
	RetryDelay time.Duration
}

// Preparer decodes and uploads a downloaded item.
type Preparer interface {
	Prepare(ctx context.Context, item *media.Item) error
}

// Options configures a Multiplexer.
type Options struct {
	Config

	// Fallback produces the item returned when every provider failed.
	Fallback func(ctx context.Context) *media.Item
	// Preparer is required by Start and Take.
	Preparer Preparer

	Logger  ports.Logger
	Metrics *metrics.Collectors
	// Rand returns a float in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// group is a set of providers that report SameAs with each other. Only the
// first member is ever queried.
type group struct {
	members  []source.Provider
	requests atomic.Int64
}

func (g *group) primary() source.Provider { return g.members[0] }

// Multiplexer owns the registered providers and the items handed out.
type Multiplexer struct {
	cfg      Config
	fallback func(ctx context.Context) *media.Item
	preparer Preparer
	logger   ports.Logger
	metrics  *metrics.Collectors
	rand     func() float64

	downloads *semaphore.Weighted
	inFlight  atomic.Int32

	mu     sync.Mutex
	groups []*group
	// active maps every member of a group to the last item its group
	// produced, until that item is released.
	active map[source.Provider]*media.Item
	// items tracks every item handed out and not yet released.
	items map[*media.Item]struct{}

	preload preload
}

// New creates a Multiplexer. Zero config values take their defaults.
func New(opts Options) *Multiplexer {
	cfg := opts.Config
	if cfg.DownloadQueueDepth <= 0 {
		cfg.DownloadQueueDepth = DefaultDownloadQueueDepth
	}
	if cfg.PreloadDepth < 0 {
		cfg.PreloadDepth = 0
	}
	if cfg.OfflineWeight <= 0 {
		cfg.OfflineWeight = DefaultOfflineWeight
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.Fallback == nil {
		opts.Fallback = func(context.Context) *media.Item {
			return media.Failed(media.ErrExhausted)
		}
	}

	m := &Multiplexer{
		cfg:       cfg,
		fallback:  opts.Fallback,
		preparer:  opts.Preparer,
		logger:    opts.Logger.WithComponent("multiplexer"),
		metrics:   opts.Metrics,
		rand:      opts.Rand,
		downloads: semaphore.NewWeighted(int64(cfg.DownloadQueueDepth)),
		active:    make(map[source.Provider]*media.Item),
		items:     make(map[*media.Item]struct{}),
	}
	m.preload.init(cfg.PreloadDepth)
	return m
}

// Config returns the effective configuration.
func (m *Multiplexer) Config() Config { return m.cfg }

// AddProvider registers p. It reports false when p joined the group of an
// equivalent provider that is already registered.
func (m *Multiplexer) AddProvider(p source.Provider) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		for _, member := range g.members {
			if member == p {
				return false
			}
		}
		if g.primary().SameAs(p) || p.SameAs(g.primary()) {
			g.members = append(g.members, p)
			m.logger.Debug("Provider %s joins %s", p.Name(), g.primary().Name())
			return false
		}
	}
	m.groups = append(m.groups, &group{members: []source.Provider{p}})
	m.logger.Info("Provider added: %s", p.Name())
	return true
}

// RemoveProvider unregisters p. When p was the queried member of its group
// the next member takes over.
func (m *Multiplexer) RemoveProvider(p source.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for gi, g := range m.groups {
		for i, member := range g.members {
			if member != p {
				continue
			}
			g.members = append(g.members[:i], g.members[i+1:]...)
			if len(g.members) == 0 {
				m.groups = append(m.groups[:gi], m.groups[gi+1:]...)
			}
			delete(m.active, p)
			m.logger.Info("Provider removed: %s", p.Name())
			return
		}
	}
}

// Providers returns the number of distinct provider groups.
func (m *Multiplexer) Providers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups)
}

// Active returns the item last produced for p, if it has not been released.
func (m *Multiplexer) Active(p source.Provider) (*media.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.active[p]
	return it, ok
}

// InFlight returns the number of held download slots.
func (m *Multiplexer) InFlight() int { return int(m.inFlight.Load()) }

// Next returns a downloaded item. It waits for a download slot, picks a
// provider and holds the slot until the item is downloaded. A failed item
// is released and another provider is tried; when all of them failed the
// fallback item is returned along with ErrExhausted. A cancelled ctx yields
// a nil item.
func (m *Multiplexer) Next(ctx context.Context) (*media.Item, error) {
	if m.closed() {
		return nil, ErrClosed
	}
	if err := m.downloads.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for download slot: %w", media.ErrCancelled, err)
	}
	m.metrics.SetDownloads(int(m.inFlight.Add(1)))
	defer func() {
		m.metrics.SetDownloads(int(m.inFlight.Add(-1)))
		m.downloads.Release(1)
	}()

	candidates := m.candidates()
	var errs []error
	for len(candidates) > 0 {
		i := m.pick(candidates)
		c := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)

		item := m.request(ctx, c)
		err := item.Await(ctx, media.StateDownloaded)
		if err == nil {
			return item, nil
		}
		m.forget(item)
		if ctx.Err() != nil {
			item.Release()
			return nil, err
		}
		item.Release()
		m.logger.Warn("Provider %s failed: %v", c.primary.Name(), err)
		errs = append(errs, err)
	}

	m.metrics.Exhausted()
	m.logger.Error("All providers exhausted, serving fallback")
	err := fmt.Errorf("%w: %w", media.ErrExhausted, errors.Join(errs...))
	if len(errs) == 0 {
		err = fmt.Errorf("%w: no providers registered", media.ErrExhausted)
	}
	return m.track(m.fallback(ctx)), err
}

// candidate is a group as seen at the start of a request.
type candidate struct {
	group   *group
	primary source.Provider
	members []source.Provider
}

func (m *Multiplexer) candidates() []candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]candidate, len(m.groups))
	for i, g := range m.groups {
		out[i] = candidate{
			group:   g,
			primary: g.primary(),
			members: append([]source.Provider(nil), g.members...),
		}
	}
	return out
}

// pick chooses a candidate at random, weighting offline providers down.
func (m *Multiplexer) pick(candidates []candidate) int {
	weights := make([]float64, len(candidates))
	var total float64
	for i, c := range candidates {
		weights[i] = 1
		if c.primary.Offline() {
			weights[i] = m.cfg.OfflineWeight
		}
		total += weights[i]
	}
	r := m.rand() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(candidates) - 1
}

// request queries the primary of c and records the item for every member.
func (m *Multiplexer) request(ctx context.Context, c candidate) *media.Item {
	c.group.requests.Add(1)
	m.metrics.ProviderRequested(c.primary.Name())
	item := c.primary.Next(ctx)

	m.mu.Lock()
	for _, member := range c.members {
		m.active[member] = item
	}
	m.items[item] = struct{}{}
	m.mu.Unlock()
	return item
}

func (m *Multiplexer) track(item *media.Item) *media.Item {
	m.mu.Lock()
	m.items[item] = struct{}{}
	m.mu.Unlock()
	return item
}

func (m *Multiplexer) forget(item *media.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, it := range m.active {
		if it == item {
			delete(m.active, p)
		}
	}
	delete(m.items, item)
}

// Release frees item and drops it from the active set.
func (m *Multiplexer) Release(item *media.Item) {
	if item == nil {
		return
	}
	m.forget(item)
	item.Release()
	m.updateMemory()
}

// updateMemory publishes the RAM and VRAM held by tracked items.
func (m *Multiplexer) updateMemory() {
	if m.metrics == nil {
		return
	}
	ram, vram := m.Usage()
	m.metrics.SetMemory(ram, vram)
}

// Usage returns the RAM and VRAM held by tracked items.
func (m *Multiplexer) Usage() (ram, vram int64) {
	m.mu.Lock()
	items := make([]*media.Item, 0, len(m.items))
	for it := range m.items {
		items = append(items, it)
	}
	m.mu.Unlock()

	for _, it := range items {
		ram += it.RAMUsage()
		vram += it.VRAMUsage()
	}
	return ram, vram
}
