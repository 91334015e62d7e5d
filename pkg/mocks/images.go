package mocks

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
)

// PNGBytes encodes a solid width x height PNG.
func PNGBytes(width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GIFBytes encodes an animated GIF with one full-size frame per delay.
// Delays are in hundredths of a second, as stored in the container.
func GIFBytes(width, height int, delays []int) []byte {
	anim := &gif.GIF{Config: image.Config{Width: width, Height: height, ColorModel: color.Palette(palette.Plan9)}}
	for i, d := range delays {
		frame := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
		idx := uint8((i * 37) % len(palette.Plan9))
		for j := range frame.Pix {
			frame.Pix[j] = idx
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, d)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
