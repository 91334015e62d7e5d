package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows dumping decoded frames and item records while debugging.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves one decoded frame of an item.
	SaveFrame(itemID string, index int, img image.Image) error

	// SaveItemJSON saves the item description as JSON.
	SaveItemJSON(itemID string, data []byte) error
}
