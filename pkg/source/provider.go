// Package source implements the providers that produce media items: a
// single-shot endpoint, a batch URL cache with background refill, a catalog
// of caches keyed by a filter value, and a static fixture source for tests.
package source

import (
	"context"
	"errors"

	"github.com/user/pawfeed/pkg/adapters/logger"
	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/ports"
)

// Provider produces the next item. Next returns immediately with an item in
// Downloading (or an already settled item, such as a fallback); the fetch
// continues in the background. Next never returns nil.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Next starts acquiring one item.
	Next(ctx context.Context) *media.Item

	// SameAs reports whether other is configured identically, so that only
	// one of them needs to be queried.
	SameAs(other Provider) bool

	// Offline reports whether the provider is currently degraded.
	Offline() bool
}

// ErrNoURLs is returned when an endpoint answers with an empty URL list.
var ErrNoURLs = errors.New("no urls in response")

func componentLogger(l ports.Logger, name string) ports.Logger {
	if l == nil {
		l = logger.NewNoop()
	}
	return l.WithComponent(name)
}
