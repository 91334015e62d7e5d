package ports

import "errors"

// ErrOutOfMemory is returned by Graphics implementations when the
// allocator has no room left for a texture.
var ErrOutOfMemory = errors.New("graphics: out of video memory")

// Texture is a GPU-resident image handle.
type Texture interface {
	// ID returns an allocator-unique handle.
	ID() uint64

	// Width and Height return the texture dimensions in pixels.
	Width() int
	Height() int

	// Size returns the allocation size reported by the allocator.
	Size() int64

	// Release frees the texture. Subsequent calls are no-ops.
	Release()
}

// Graphics is the foreign allocator that owns video memory.
type Graphics interface {
	// UploadPixels transfers ownership of pixels to video memory and returns
	// the resulting texture. The caller must not touch pixels afterwards.
	UploadPixels(pixels []byte, width, height, channels int) (Texture, error)
}
