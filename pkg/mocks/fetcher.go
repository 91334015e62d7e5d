package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/pawfeed/pkg/ports"
)

// Fetcher is a mock implementation of ports.Fetcher. Responses are served
// from a URL map unless GetFunc is set.
type Fetcher struct {
	mu        sync.RWMutex
	responses map[string][]byte
	calls     []string

	// inFlight and maxInFlight track concurrent Get calls.
	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	GetFunc func(ctx context.Context, url string) ([]byte, error)
}

// NewFetcher creates a new mock Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{responses: make(map[string][]byte)}
}

// SetResponse registers the body returned for url.
func (m *Fetcher) SetResponse(url string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = body
}

func (m *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.maxInFlight.Load()
		if n <= peak || m.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, url)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if body, ok := m.responses[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no response registered for %s", url)
}

// Calls returns the URLs requested so far, in order.
func (m *Fetcher) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns the number of Get calls.
func (m *Fetcher) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// MaxInFlight returns the highest number of concurrent Get calls observed.
func (m *Fetcher) MaxInFlight() int {
	return int(m.maxInFlight.Load())
}

var _ ports.Fetcher = (*Fetcher)(nil)
