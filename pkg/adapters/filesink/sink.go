// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/pawfeed/pkg/ports"
)

// Sink saves debug output to files, one directory per item.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveItemJSON saves the item record as item.json.
func (s *Sink) SaveItemJSON(itemID string, data []byte) error {
	path := filepath.Join(s.baseDir, itemID, "item.json")
	return s.fs.WriteFile(path, data)
}

// SaveFrame saves one decoded frame as PNG.
func (s *Sink) SaveFrame(itemID string, index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, itemID, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
