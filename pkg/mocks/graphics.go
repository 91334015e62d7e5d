package mocks

import (
	"sync"
	"sync/atomic"

	"github.com/user/pawfeed/pkg/ports"
)

// Texture is a mock implementation of ports.Texture.
type Texture struct {
	id       uint64
	width    int
	height   int
	size     int64
	released atomic.Bool
	onFree   func(*Texture)
}

// NewTexture creates a standalone texture.
func NewTexture(id uint64, width, height int) *Texture {
	return &Texture{id: id, width: width, height: height, size: int64(width * height * 4)}
}

func (t *Texture) ID() uint64 { return t.id }
func (t *Texture) Width() int { return t.width }
func (t *Texture) Height() int { return t.height }
func (t *Texture) Size() int64 { return t.size }
func (t *Texture) Released() bool { return t.released.Load() }

func (t *Texture) Release() {
	if t.released.CompareAndSwap(false, true) && t.onFree != nil {
		t.onFree(t)
	}
}

var _ ports.Texture = (*Texture)(nil)

// Graphics is a mock implementation of ports.Graphics.
type Graphics struct {
	mu       sync.Mutex
	nextID   uint64
	live     map[uint64]*Texture
	uploads  int
	channels []int

	UploadPixelsFunc func(pixels []byte, width, height, channels int) (ports.Texture, error)
}

// NewGraphics creates a new mock Graphics.
func NewGraphics() *Graphics {
	return &Graphics{live: make(map[uint64]*Texture)}
}

func (m *Graphics) UploadPixels(pixels []byte, width, height, channels int) (ports.Texture, error) {
	m.mu.Lock()
	m.uploads++
	m.channels = append(m.channels, channels)
	m.mu.Unlock()

	if m.UploadPixelsFunc != nil {
		return m.UploadPixelsFunc(pixels, width, height, channels)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tex := NewTexture(m.nextID, width, height)
	tex.size = int64(len(pixels))
	tex.onFree = m.free
	m.live[tex.id] = tex
	return tex, nil
}

func (m *Graphics) free(t *Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, t.id)
}

// Live returns the number of textures not yet released.
func (m *Graphics) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Uploads returns the number of UploadPixels calls.
func (m *Graphics) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// Channels returns the channel count passed to each upload.
func (m *Graphics) Channels() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.channels...)
}

var _ ports.Graphics = (*Graphics)(nil)
