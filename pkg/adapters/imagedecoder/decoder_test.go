package imagedecoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"runtime"
	"testing"

	"github.com/user/pawfeed/pkg/adapters/ggrenderer"
	"github.com/user/pawfeed/pkg/mocks"
	"github.com/user/pawfeed/pkg/ports"
)

func checkFrames(t *testing.T, img ports.DecodedImage) {
	t.Helper()
	if len(img.Frames) == 0 {
		t.Fatal("expected at least one frame")
	}
	for i, f := range img.Frames {
		if f.DurationMs <= 0 {
			t.Errorf("frame %d has duration %d", i, f.DurationMs)
		}
		if len(f.Pixels) != img.Width*img.Height*4 {
			t.Errorf("frame %d has %d bytes, want %d", i, len(f.Pixels), img.Width*img.Height*4)
		}
	}
}

func TestDecoder_PNG(t *testing.T) {
	d := New(Options{})

	img, err := d.Decode(mocks.PNGBytes(40, 30, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if img.Width != 40 || img.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", img.Width, img.Height)
	}
	if img.Format != "png" {
		t.Errorf("expected png, got %s", img.Format)
	}
	if len(img.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(img.Frames))
	}
	checkFrames(t, img)

	px := img.Frames[0].Pixels
	if px[0] != 0 || px[1] != 255 || px[2] != 0 || px[3] != 255 {
		t.Errorf("unexpected first pixel %v", px[:4])
	}
}

func TestDecoder_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 8)), nil); err != nil {
		t.Fatal(err)
	}

	img, err := New(Options{}).Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 16 || img.Height != 8 {
		t.Errorf("expected 16x8, got %dx%d", img.Width, img.Height)
	}
	checkFrames(t, img)
}

func TestDecoder_AnimatedGIF(t *testing.T) {
	// Delays in hundredths: 0 and 1 are treated as missing
	data := mocks.GIFBytes(10, 6, []int{0, 1, 5, 20})

	img, err := New(Options{}).Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if img.Width != 10 || img.Height != 6 {
		t.Errorf("expected 10x6, got %dx%d", img.Width, img.Height)
	}
	want := []int{DefaultFrameMs, DefaultFrameMs, 50, 200}
	if len(img.Frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(img.Frames))
	}
	for i, f := range img.Frames {
		if f.DurationMs != want[i] {
			t.Errorf("frame %d: duration %d, want %d", i, f.DurationMs, want[i])
		}
	}
	checkFrames(t, img)
}

func TestDecoder_GIFDisposal(t *testing.T) {
	pal := color.Palette{color.Transparent, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	full := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for i := range full.Pix {
		full.Pix[i] = 1
	}
	patch := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	for i := range patch.Pix {
		patch.Pix[i] = 2
	}
	tail := image.NewPaletted(image.Rect(3, 3, 4, 4), pal)
	tail.Pix[0] = 2

	anim := &gif.GIF{
		Image:    []*image.Paletted{full, patch, tail},
		Delay:    []int{10, 10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4, ColorModel: pal},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatal(err)
	}

	img, err := New(Options{}).Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	at := func(frame, x, y int) color.RGBA {
		p := img.Frames[frame].Pixels[(y*4+x)*4:]
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}

	// Frame 1 draws blue over the red background
	if c := at(1, 0, 0); c.B != 255 {
		t.Errorf("frame 1 origin should be blue, got %v", c)
	}
	// Frame 1 was disposed to previous, so frame 2 sees red at the origin
	if c := at(2, 0, 0); c.R != 255 || c.B != 0 {
		t.Errorf("frame 2 origin should be red, got %v", c)
	}
	if c := at(2, 3, 3); c.B != 255 {
		t.Errorf("frame 2 corner should be blue, got %v", c)
	}
}

func TestDecoder_Downscale(t *testing.T) {
	d := New(Options{MaxDimension: 64, Resizer: ggrenderer.New()})

	img, err := d.Decode(mocks.PNGBytes(256, 128, color.White))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 64 || img.Height != 32 {
		t.Errorf("expected 64x32, got %dx%d", img.Width, img.Height)
	}
	checkFrames(t, img)

	anim, err := New(Options{MaxDimension: 5}).Decode(mocks.GIFBytes(10, 20, []int{10, 10}))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if anim.Width != 2 || anim.Height != 5 {
		t.Errorf("expected 2x5, got %dx%d", anim.Width, anim.Height)
	}
	checkFrames(t, anim)
}

func TestDecoder_TooLarge(t *testing.T) {
	d := New(Options{MaxDecodedBytes: 100})

	if _, err := d.Decode(mocks.PNGBytes(10, 10, color.White)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

// hugePNG returns a PNG whose IHDR declares width x height RGBA pixels
// followed by a two byte IDAT, far less data than the header promises.
func hugePNG(width, height uint32) []byte {
	chunk := func(buf *bytes.Buffer, typ string, data []byte) {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(typ), data...)
		buf.Write(body)
		_ = binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "IDAT", []byte{0x78, 0x9c})
	return buf.Bytes()
}

// hugeGIF returns a GIF header with a width x height logical screen and no
// frames.
func hugeGIF(width, height uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	_ = binary.Write(&buf, binary.LittleEndian, width)
	_ = binary.Write(&buf, binary.LittleEndian, height)
	buf.Write([]byte{0, 0, 0, 0x3b})
	return buf.Bytes()
}

func TestDecoder_HugeHeaderRejectedBeforeDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"png", hugePNG(30000, 30000)},
		{"gif", hugeGIF(60000, 60000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)

			_, err := New(Options{}).Decode(tt.data)

			runtime.ReadMemStats(&after)
			if !errors.Is(err, ErrTooLarge) {
				t.Fatalf("expected ErrTooLarge, got %v", err)
			}
			if delta := after.TotalAlloc - before.TotalAlloc; delta > 64<<20 {
				t.Errorf("rejecting the header allocated %d bytes", delta)
			}
		})
	}
}

func TestDecoder_Rejects(t *testing.T) {
	valid := mocks.PNGBytes(8, 8, color.White)
	anim := mocks.GIFBytes(8, 8, []int{10, 10})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown", []byte("<html>not an image</html>")},
		{"truncated png", valid[:len(valid)/2]},
		{"truncated gif", anim[:len(anim)-10]},
		{"header only png", valid[:8]},
		{"mp4", []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := New(Options{}).Decode(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if len(img.Frames) != 0 {
				t.Error("failed decode must not return frames")
			}
		})
	}
}

func TestDecoder_FramesAlwaysValid(t *testing.T) {
	d := New(Options{})
	inputs := [][]byte{
		mocks.PNGBytes(1, 1, color.Black),
		mocks.PNGBytes(33, 17, color.White),
		mocks.GIFBytes(3, 3, []int{0}),
		mocks.GIFBytes(7, 2, []int{2, 4, 0, 100}),
	}

	for i, data := range inputs {
		img, err := d.Decode(data)
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		checkFrames(t, img)
	}
}

