package media

import (
	"context"
	"fmt"
	"sync"
)

// Loader builds a ready item for an embedded resource.
type Loader func(ctx context.Context) (*Item, error)

// Embedded is a lazily loaded, process-lifetime item such as the loading or
// error placeholder. The first successful Get loads and pins the item; a
// failed load is retried on the next Get.
type Embedded struct {
	name string
	load Loader

	mu   sync.Mutex
	item *Item
}

// NewEmbedded returns an Embedded resource named name.
func NewEmbedded(name string, load Loader) *Embedded {
	return &Embedded{name: name, load: load}
}

// Name returns the resource name.
func (e *Embedded) Name() string { return e.name }

// Get returns the loaded item, loading it on first use.
func (e *Embedded) Get(ctx context.Context) (*Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.item != nil {
		return e.item, nil
	}
	it, err := e.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embedded %q: %w", e.name, err)
	}
	if it == nil {
		return nil, fmt.Errorf("load embedded %q: loader returned no item", e.name)
	}
	it.pin()
	e.item = it
	return it, nil
}

// Loaded reports whether the resource has been loaded.
func (e *Embedded) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item != nil
}
