package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/user/pawfeed/pkg/ports"
)

// Quiescer is a mock implementation of ports.Quiescer that records how
// windows are entered and released.
type Quiescer struct {
	held    atomic.Int32
	overlap atomic.Bool
	entered atomic.Int32
	freed   atomic.Int32

	EnterFunc func(ctx context.Context, size int64) error
}

func (m *Quiescer) Enter(ctx context.Context, size int64) (func(), error) {
	if m.EnterFunc != nil {
		if err := m.EnterFunc(ctx, size); err != nil {
			return func() {}, err
		}
	}
	if m.held.Add(1) > 1 {
		m.overlap.Store(true)
	}
	m.entered.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			m.held.Add(-1)
			m.freed.Add(1)
		})
	}, nil
}

// Held returns the number of windows currently held.
func (m *Quiescer) Held() int { return int(m.held.Load()) }

// Entered returns the number of windows granted so far.
func (m *Quiescer) Entered() int { return int(m.entered.Load()) }

// Released returns the number of windows released so far.
func (m *Quiescer) Released() int { return int(m.freed.Load()) }

// Overlapped reports whether two windows were ever held at once.
func (m *Quiescer) Overlapped() bool { return m.overlap.Load() }

var _ ports.Quiescer = (*Quiescer)(nil)
