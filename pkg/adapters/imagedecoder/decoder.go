// Package imagedecoder decodes still and animated images into RGBA frames.
package imagedecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/user/pawfeed/pkg/adapters/formatdetect"
	"github.com/user/pawfeed/pkg/ports"
)

const (
	// DefaultFrameMs is used for frames whose container delay is missing or
	// too short to be meaningful.
	DefaultFrameMs = 100
	// MinFrameMs is the shortest container delay taken at face value.
	MinFrameMs = 20
	// DefaultMaxDimension matches the common maximum texture size.
	DefaultMaxDimension = 4096
	// DefaultMaxDecodedBytes bounds the RGBA size of all frames together.
	DefaultMaxDecodedBytes = 512 << 20
)

var (
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("empty input")
	// ErrUnsupported is returned for unrecognized or non-image payloads.
	ErrUnsupported = errors.New("unsupported format")
	// ErrTooLarge is returned when the decoded frames would exceed the limit.
	ErrTooLarge = errors.New("decoded image too large")
)

// Options configures a Decoder.
type Options struct {
	// MaxDimension downscales frames whose width or height exceeds it.
	MaxDimension int
	// MaxDecodedBytes rejects images whose frames would need more memory.
	MaxDecodedBytes int64
	// Resizer scales oversized frames. Defaults to bilinear x/image/draw.
	Resizer ports.Renderer
}

// Decoder implements ports.ImageDecoder.
type Decoder struct {
	maxDim   int
	maxBytes int64
	resizer  ports.Renderer
}

// New creates a Decoder.
func New(opts Options) *Decoder {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.MaxDecodedBytes <= 0 {
		opts.MaxDecodedBytes = DefaultMaxDecodedBytes
	}
	return &Decoder{
		maxDim:   opts.MaxDimension,
		maxBytes: opts.MaxDecodedBytes,
		resizer:  opts.Resizer,
	}
}

// Decode implements ports.ImageDecoder.
func (d *Decoder) Decode(data []byte) (ports.DecodedImage, error) {
	if len(data) == 0 {
		return ports.DecodedImage{}, ErrEmpty
	}

	format := formatdetect.Detect(data)
	switch {
	case format == formatdetect.FormatGIF:
		return d.decodeGIF(data)
	case format == formatdetect.FormatMP4:
		codec, err := formatdetect.VideoCodec(data)
		if err != nil {
			return ports.DecodedImage{}, fmt.Errorf("%w: mp4 payload: %v", ErrUnsupported, err)
		}
		return ports.DecodedImage{}, fmt.Errorf("%w: video payload (%s)", ErrUnsupported, codec)
	case format.IsImage():
		return d.decodeStill(data, format)
	default:
		return ports.DecodedImage{}, fmt.Errorf("%w: unrecognized header", ErrUnsupported)
	}
}

// decodeStill checks the declared dimensions before decoding, since the
// decoders allocate the full pixel buffer from the header alone.
func (d *Decoder) decodeStill(data []byte, format formatdetect.Format) (ports.DecodedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ports.DecodedImage{}, fmt.Errorf("decode %s: %w", format, err)
	}
	if err := d.checkSize(cfg.Width, cfg.Height, 1); err != nil {
		return ports.DecodedImage{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ports.DecodedImage{}, fmt.Errorf("decode %s: %w", format, err)
	}

	rgba := d.fit(img)
	b := rgba.Bounds()
	return ports.DecodedImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: string(format),
		Frames: []ports.DecodedFrame{{Pixels: rgba.Pix, DurationMs: DefaultFrameMs}},
	}, nil
}

// decodeGIF composites every frame onto a full-size canvas, honouring the
// per-frame disposal method, so each resulting frame can be shown alone.
func (d *Decoder) decodeGIF(data []byte) (ports.DecodedImage, error) {
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ports.DecodedImage{}, fmt.Errorf("decode gif: %w", err)
	}
	// the compositing canvas is allocated at full size
	if err := d.checkSize(cfg.Width, cfg.Height, 1); err != nil {
		return ports.DecodedImage{}, err
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return ports.DecodedImage{}, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return ports.DecodedImage{}, errors.New("decode gif: no frames")
	}

	width, height := g.Config.Width, g.Config.Height
	if width <= 0 || height <= 0 {
		b := g.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}
	if width <= 0 || height <= 0 {
		return ports.DecodedImage{}, fmt.Errorf("decode gif: invalid canvas %dx%d", width, height)
	}

	outW, outH := d.fitSize(width, height)
	if err := d.checkSize(outW, outH, len(g.Image)); err != nil {
		return ports.DecodedImage{}, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	frames := make([]ports.DecodedFrame, 0, len(g.Image))
	for i, src := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var saved *image.RGBA
		if disposal == gif.DisposalPrevious {
			saved = cloneRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		out := cloneRGBA(canvas)
		if outW != width || outH != height {
			out = d.resize(out, outW, outH)
		}

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i] * 10
		}
		frames = append(frames, ports.DecodedFrame{Pixels: out.Pix, DurationMs: frameDuration(delay)})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}

	return ports.DecodedImage{
		Width:  outW,
		Height: outH,
		Format: string(formatdetect.FormatGIF),
		Frames: frames,
	}, nil
}

// frameDuration maps a container delay to a display duration. Delays below
// MinFrameMs are treated as missing, the same way browsers do.
func frameDuration(delayMs int) int {
	if delayMs < MinFrameMs {
		return DefaultFrameMs
	}
	return delayMs
}

func (d *Decoder) checkSize(width, height, frames int) error {
	total := int64(width) * int64(height) * 4 * int64(frames)
	if total > d.maxBytes {
		return fmt.Errorf("%w: %d frames of %dx%d need %d bytes, limit %d", ErrTooLarge, frames, width, height, total, d.maxBytes)
	}
	return nil
}

// fitSize returns the dimensions after downscaling to MaxDimension.
func (d *Decoder) fitSize(width, height int) (int, int) {
	if width <= d.maxDim && height <= d.maxDim {
		return width, height
	}
	if width >= height {
		return d.maxDim, max(1, height*d.maxDim/width)
	}
	return max(1, width*d.maxDim/height), d.maxDim
}

// fit converts img to a tightly packed RGBA image within MaxDimension.
func (d *Decoder) fit(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := d.fitSize(b.Dx(), b.Dy())
	if w != b.Dx() || h != b.Dy() {
		return d.resize(img, w, h)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == w*4 {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func (d *Decoder) resize(img image.Image, width, height int) *image.RGBA {
	if d.resizer != nil {
		if rgba, ok := d.resizer.ResizeImage(img, width, height).(*image.RGBA); ok {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

var _ ports.ImageDecoder = (*Decoder)(nil)
