package mocks

import (
	"github.com/user/pawfeed/pkg/ports"
)

// Decoder is a mock implementation of ports.ImageDecoder. Without DecodeFunc
// it returns a single opaque frame of Width x Height.
type Decoder struct {
	Width  int
	Height int

	DecodeFunc func(data []byte) (ports.DecodedImage, error)
}

func (m *Decoder) Decode(data []byte) (ports.DecodedImage, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(data)
	}
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		w, h = 4, 4
	}
	return SolidImage(w, h, 1, 100), nil
}

// SolidImage builds a decoded image with n frames of durationMs each.
func SolidImage(width, height, n, durationMs int) ports.DecodedImage {
	img := ports.DecodedImage{Width: width, Height: height, Format: "mock"}
	for i := 0; i < n; i++ {
		px := make([]byte, width*height*4)
		for j := range px {
			px[j] = 0xFF
		}
		img.Frames = append(img.Frames, ports.DecodedFrame{Pixels: px, DurationMs: durationMs})
	}
	return img
}

var _ ports.ImageDecoder = (*Decoder)(nil)
