package mocks

import (
	"image"
	"sync"

	"github.com/user/pawfeed/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames   map[string]map[int]image.Image
	ItemJSON map[string][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:  enabled,
		Frames:   make(map[string]map[int]image.Image),
		ItemJSON: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(itemID string, index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Frames[itemID] == nil {
		m.Frames[itemID] = make(map[int]image.Image)
	}
	m.Frames[itemID][index] = img
	return nil
}

func (m *DebugSink) SaveItemJSON(itemID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemJSON[itemID] = data
	return nil
}

// FrameCount returns the number of frames saved for itemID.
func (m *DebugSink) FrameCount(itemID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames[itemID])
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool { return false }
func (m *NullSink) SaveFrame(itemID string, index int, img image.Image) error { return nil }
func (m *NullSink) SaveItemJSON(itemID string, data []byte) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
