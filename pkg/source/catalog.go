package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/user/pawfeed/pkg/media"
)

// CatalogOptions configures a Catalog. The embedded BatchOptions are the
// template for every per-key cache; URL is the unfiltered batch URL.
type CatalogOptions struct {
	BatchOptions

	// Param is the query parameter that carries the filter key.
	Param string
	// Describe optionally maps a key to a human readable label.
	Describe func(key string) string
}

// Catalog is a batch source parametrized by a filter key. It keeps one
// independent BatchCache per distinct key seen.
type Catalog struct {
	opts CatalogOptions

	mu     sync.Mutex
	caches map[string]*BatchCache
}

// NewCatalog creates a Catalog.
func NewCatalog(opts CatalogOptions) *Catalog {
	if opts.Name == "" {
		opts.Name = opts.URL
	}
	return &Catalog{
		opts:   opts,
		caches: make(map[string]*BatchCache),
	}
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.opts.Name }

// cache returns the cache for key, creating it on first use.
func (c *Catalog) cache(key string) *BatchCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.caches[key]; ok {
		return b
	}
	opts := c.opts.BatchOptions
	opts.URL = c.keyURL(key)
	opts.Name = c.keyName(key)
	if c.opts.Describe != nil {
		opts.Description = c.opts.Describe(key)
	}
	b := NewBatchCache(opts)
	c.caches[key] = b
	return b
}

func (c *Catalog) keyURL(key string) string {
	if key == "" || c.opts.Param == "" {
		return c.opts.URL
	}
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return c.opts.URL
	}
	q := u.Query()
	q.Set(c.opts.Param, key)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Catalog) keyName(key string) string {
	if key == "" {
		return c.opts.Name
	}
	return fmt.Sprintf("%s[%s]", c.opts.Name, key)
}

// Next returns the next item filtered by key.
func (c *Catalog) Next(ctx context.Context, key string) *media.Item {
	return c.cache(key).Next(ctx)
}

// Source returns a Provider bound to key.
func (c *Catalog) Source(key string) *CatalogSource {
	return &CatalogSource{catalog: c, key: key}
}

// Keys returns the filter keys that have a cache, sorted.
func (c *Catalog) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.caches))
	for k := range c.caches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CatalogSource is a Catalog bound to one filter key.
type CatalogSource struct {
	catalog *Catalog
	key     string
}

// Key returns the filter key.
func (s *CatalogSource) Key() string { return s.key }

// Name implements Provider.
func (s *CatalogSource) Name() string { return s.catalog.keyName(s.key) }

// Next implements Provider.
func (s *CatalogSource) Next(ctx context.Context) *media.Item {
	return s.catalog.Next(ctx, s.key)
}

// Offline implements Provider.
func (s *CatalogSource) Offline() bool {
	return s.catalog.cache(s.key).Offline()
}

// SameAs implements Provider. Two sources are the same when they filter
// the same catalog URL by the same key.
func (s *CatalogSource) SameAs(other Provider) bool {
	o, ok := other.(*CatalogSource)
	return ok && o.key == s.key && o.catalog.opts.URL == s.catalog.opts.URL && o.catalog.opts.Param == s.catalog.opts.Param
}

// Refresh forces a refill of the cache for this key.
func (s *CatalogSource) Refresh(ctx context.Context) error {
	return s.catalog.cache(s.key).Refresh(ctx)
}

func (s *CatalogSource) String() string {
	label := s.key
	if s.catalog.opts.Describe != nil {
		label = s.catalog.opts.Describe(s.key)
	}
	return fmt.Sprintf("%s\tfilter: %s\t%s", s.catalog.opts.Name, label, s.catalog.cache(s.key))
}
