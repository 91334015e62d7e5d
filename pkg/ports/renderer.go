package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts raster operations used outside of decoding.
type Renderer interface {
	// Placeholder draws a flat placeholder card with a centered caption.
	// An error means the requested font could not be loaded.
	Placeholder(spec PlaceholderSpec) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// PlaceholderSpec describes a generated placeholder image.
type PlaceholderSpec struct {
	Width      int
	Height     int
	Caption    string
	Background color.Color
	Foreground color.Color

	// FontPath is a TrueType font for the caption. Empty uses the built-in
	// bitmap face.
	FontPath string
	FontSize float64
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)
