// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/pawfeed/pkg/ports"
)

// DefaultFontSize is used when a font path is given without a size.
const DefaultFontSize = 18

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Placeholder draws a flat card with a centered caption.
func (r *Renderer) Placeholder(spec ports.PlaceholderSpec) (image.Image, error) {
	w, h := spec.Width, spec.Height
	if w <= 0 {
		w = 256
	}
	if h <= 0 {
		h = 256
	}
	bg, fg := spec.Background, spec.Foreground
	if bg == nil {
		bg = color.RGBA{R: 45, G: 45, B: 45, A: 255}
	}
	if fg == nil {
		fg = color.White
	}

	dc := gg.NewContext(w, h)
	if spec.FontPath != "" {
		size := spec.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		if err := dc.LoadFontFace(spec.FontPath, size); err != nil {
			return nil, fmt.Errorf("load font %s: %w", spec.FontPath, err)
		}
	}
	dc.SetColor(bg)
	dc.Clear()

	// Inset card outline
	inset := float64(min(w, h)) * 0.08
	dc.SetColor(fg)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(inset, inset, float64(w)-2*inset, float64(h)-2*inset, inset)
	dc.Stroke()

	if spec.Caption != "" {
		dc.DrawStringWrapped(spec.Caption, float64(w)/2, float64(h)/2, 0.5, 0.5, float64(w)-4*inset, 1.4, gg.AlignCenter)
	}
	return dc.Image(), nil
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
