package mocks

import (
	"image"

	"github.com/user/pawfeed/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	PlaceholderFunc func(spec ports.PlaceholderSpec) (image.Image, error)
	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image
}

func (m *Renderer) Placeholder(spec ports.PlaceholderSpec) (image.Image, error) {
	if m.PlaceholderFunc != nil {
		return m.PlaceholderFunc(spec)
	}
	return image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)
