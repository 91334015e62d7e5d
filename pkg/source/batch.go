package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/ports"
)

const (
	// DefaultMaxFailures is the number of consecutive refill failures after
	// which a BatchCache goes offline.
	DefaultMaxFailures = 3
	// DefaultRefillTimeout bounds one batch request.
	DefaultRefillTimeout = 30 * time.Second

	refillKey = "refill"
)

// ErrOffline is recorded on items requested from an offline provider that
// has no fallback.
var ErrOffline = errors.New("provider offline")

// BatchOptions configures a BatchCache.
type BatchOptions struct {
	Name    string
	URL     string
	Extract Extractor
	Fetcher ports.Fetcher

	// Description is attached to every item produced.
	Description string

	// Threshold is the low-water mark: a refill starts when fewer URLs
	// than this are queued. Defaults to 1.
	Threshold int
	// MaxFailures consecutive refill failures take the provider offline.
	MaxFailures int
	// OfflineCooldown is how long an offline provider waits before probing
	// with a background refill. Zero disables probing; Refresh still works.
	OfflineCooldown time.Duration
	// RefillTimeout bounds each batch request.
	RefillTimeout time.Duration

	// Fallback produces the item served while offline.
	Fallback func(ctx context.Context) *media.Item
	// OnOffline is called whenever the offline flag changes.
	OnOffline func(name string, offline bool)

	Logger ports.Logger
	Now    func() time.Time
}

// BatchCache holds a FIFO queue of image URLs fetched in batches. Refills
// run in the background and at most one is in flight at a time.
type BatchCache struct {
	opts   BatchOptions
	logger ports.Logger
	group  singleflight.Group

	mu           sync.Mutex
	queue        []string
	refilling    bool
	failures     int
	offline      bool
	offlineSince time.Time
	batches      int
}

// NewBatchCache creates a BatchCache. The first refill starts on the first
// call to Next.
func NewBatchCache(opts BatchOptions) *BatchCache {
	if opts.Extract == nil {
		opts.Extract = JSONStrings()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 1
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if opts.RefillTimeout <= 0 {
		opts.RefillTimeout = DefaultRefillTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = opts.URL
	}
	return &BatchCache{
		opts:   opts,
		logger: componentLogger(opts.Logger, opts.Name),
	}
}

// Name implements Provider.
func (b *BatchCache) Name() string { return b.opts.Name }

// Offline implements Provider.
func (b *BatchCache) Offline() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offline
}

// SameAs implements Provider.
func (b *BatchCache) SameAs(other Provider) bool {
	o, ok := other.(*BatchCache)
	return ok && o.opts.URL == b.opts.URL
}

// Next implements Provider. While offline it serves the fallback item and
// issues no network request, except for a periodic probe refill once the
// cooldown has elapsed.
func (b *BatchCache) Next(ctx context.Context) *media.Item {
	b.mu.Lock()
	if b.offline {
		probe := b.opts.OfflineCooldown > 0 && !b.refilling &&
			b.opts.Now().Sub(b.offlineSince) >= b.opts.OfflineCooldown
		if probe {
			b.offlineSince = b.opts.Now()
		}
		b.mu.Unlock()
		if probe {
			b.logger.Info("Probing offline provider")
			b.refill()
		}
		return b.fallback(ctx)
	}

	start := len(b.queue) < b.opts.Threshold && !b.refilling
	b.mu.Unlock()

	if start {
		b.refill()
	}
	return media.New(ctx, b.fetch, media.WithCreator(b.opts.Name), media.WithDescription(b.opts.Description))
}

func (b *BatchCache) fallback(ctx context.Context) *media.Item {
	if b.opts.Fallback != nil {
		return b.opts.Fallback(ctx)
	}
	return media.Failed(fmt.Errorf("%w: %w: %s", media.ErrNetwork, ErrOffline, b.opts.Name), media.WithCreator(b.opts.Name))
}

// fetch dequeues one URL, waiting for a refill when the queue is empty,
// and downloads it.
func (b *BatchCache) fetch(ctx context.Context) (media.Response, error) {
	url, err := b.dequeue(ctx)
	if err != nil {
		return media.Response{}, err
	}
	b.logger.Debug("Downloading %s", url)
	data, err := b.opts.Fetcher.Get(ctx, url)
	if err != nil {
		return media.Response{}, fmt.Errorf("download %s: %w", url, err)
	}
	return media.Response{Data: data, URL: url}, nil
}

func (b *BatchCache) dequeue(ctx context.Context) (string, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			url := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return url, nil
		}
		if b.offline {
			b.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrOffline, b.opts.Name)
		}
		b.mu.Unlock()

		select {
		case res := <-b.refill():
			if res.Err != nil {
				return "", res.Err
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// refill joins the in-flight refill or starts a new one.
func (b *BatchCache) refill() <-chan singleflight.Result {
	return b.group.DoChan(refillKey, func() (interface{}, error) {
		return nil, b.doRefill()
	})
}

func (b *BatchCache) doRefill() error {
	b.mu.Lock()
	b.refilling = true
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.RefillTimeout)
	defer cancel()

	urls, err := b.requestBatch(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refilling = false

	if err != nil {
		b.failures++
		b.logger.Warn("Refill failed (%d/%d): %v", b.failures, b.opts.MaxFailures, err)
		if b.failures >= b.opts.MaxFailures && !b.offline {
			b.offline = true
			b.offlineSince = b.opts.Now()
			b.logger.Warn("Provider offline after %d consecutive failures", b.failures)
			b.notify(true)
		}
		return err
	}

	b.queue = append(b.queue, urls...)
	b.failures = 0
	b.batches++
	b.logger.Debug("Refilled %d urls, %d queued", len(urls), len(b.queue))
	if b.offline {
		b.offline = false
		b.logger.Info("Provider back online")
		b.notify(false)
	}
	return nil
}

func (b *BatchCache) requestBatch(ctx context.Context) ([]string, error) {
	body, err := b.opts.Fetcher.Get(ctx, b.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: refill %s: %w", media.ErrNetwork, b.opts.URL, err)
	}
	urls, err := b.opts.Extract(body)
	if err != nil {
		return nil, fmt.Errorf("%w: refill %s: %w", media.ErrNetwork, b.opts.URL, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: refill %s: %w", media.ErrNetwork, b.opts.URL, ErrNoURLs)
	}
	return urls, nil
}

// notify runs the offline hook. Caller holds mu.
func (b *BatchCache) notify(offline bool) {
	if b.opts.OnOffline != nil {
		b.opts.OnOffline(b.opts.Name, offline)
	}
}

// Refresh runs a refill now and waits for it, regardless of the offline
// flag. A success brings an offline provider back online.
func (b *BatchCache) Refresh(ctx context.Context) error {
	select {
	case res := <-b.refill():
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queued returns the number of URLs waiting in the queue.
func (b *BatchCache) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Refilling reports whether a refill is in flight.
func (b *BatchCache) Refilling() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refilling
}

func (b *BatchCache) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("%s\tqueued: %d\tbatches: %d\tfailures: %d\toffline: %v", b.opts.Name, len(b.queue), b.batches, b.failures, b.offline)
}
