// Package memgpu is a ports.Graphics implementation that keeps textures in
// process memory under a fixed video memory budget. It backs headless runs
// and the CLI, where no real graphics device exists.
package memgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/pawfeed/pkg/ports"
)

const (
	DefaultCapacity      = 512 << 20
	DefaultMaxTextureDim = 4096
)

// ErrTextureTooLarge is returned for textures above MaxTextureDim.
var ErrTextureTooLarge = errors.New("texture exceeds maximum dimension")

// Options configures a Device.
type Options struct {
	// Capacity is the video memory budget in bytes.
	Capacity int64
	// MaxTextureDim bounds texture width and height.
	MaxTextureDim int
}

// Device allocates textures against a byte budget.
type Device struct {
	capacity int64
	maxDim   int
	nextID   atomic.Uint64

	mu   sync.Mutex
	used int64
	live map[uint64]*Texture
}

// New creates a Device.
func New(opts Options) *Device {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxTextureDim <= 0 {
		opts.MaxTextureDim = DefaultMaxTextureDim
	}
	return &Device{
		capacity: opts.Capacity,
		maxDim:   opts.MaxTextureDim,
		live:     make(map[uint64]*Texture),
	}
}

// UploadPixels implements ports.Graphics. The device keeps pixels as the
// texture storage.
func (d *Device) UploadPixels(pixels []byte, width, height, channels int) (ports.Texture, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid texture %dx%dx%d", width, height, channels)
	}
	if width > d.maxDim || height > d.maxDim {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, width, height, d.maxDim)
	}
	size := int64(width) * int64(height) * int64(channels)
	if int64(len(pixels)) != size {
		return nil, fmt.Errorf("buffer is %d bytes, want %d", len(pixels), size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.used+size > d.capacity {
		return nil, fmt.Errorf("%w: %d of %d bytes used, %d requested", ports.ErrOutOfMemory, d.used, d.capacity, size)
	}
	t := &Texture{
		id:     d.nextID.Add(1),
		width:  width,
		height: height,
		pixels: pixels,
		device: d,
	}
	d.used += size
	d.live[t.id] = t
	return t, nil
}

func (d *Device) free(t *Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[t.id]; !ok {
		return
	}
	delete(d.live, t.id)
	d.used -= t.Size()
}

// Used returns the bytes currently allocated.
func (d *Device) Used() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used
}

// Capacity returns the video memory budget.
func (d *Device) Capacity() int64 { return d.capacity }

// Live returns the number of unreleased textures.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Texture is a texture held by a Device.
type Texture struct {
	id     uint64
	width  int
	height int
	pixels []byte
	device *Device
	once   sync.Once
}

func (t *Texture) ID() uint64  { return t.id }
func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }
func (t *Texture) Size() int64 { return int64(len(t.pixels)) }

// Pixels returns the texture storage.
func (t *Texture) Pixels() []byte { return t.pixels }

// Release frees the texture memory. Subsequent calls are no-ops.
func (t *Texture) Release() {
	t.once.Do(func() {
		t.device.free(t)
	})
}

var (
	_ ports.Graphics = (*Device)(nil)
	_ ports.Texture  = (*Texture)(nil)
)
