// Package formatdetect sniffs the container format of downloaded media.
package formatdetect

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Format identifies an encoded media container.
type Format string

const (
	FormatGIF     Format = "gif"
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatMP4     Format = "mp4"
	FormatUnknown Format = "unknown"
)

// IsImage reports whether f is a still or animated image format.
func (f Format) IsImage() bool {
	switch f {
	case FormatGIF, FormatPNG, FormatJPEG, FormatWebP, FormatBMP, FormatTIFF:
		return true
	}
	return false
}

// Detect returns the format of data based on its leading magic bytes.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return FormatTIFF
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatMP4
	}
	return FormatUnknown
}

// Codec represents a video codec found in an MP4 payload.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// VideoCodec parses an MP4 payload and returns the codec of its first video
// track. Some image endpoints serve short clips instead of GIFs; the codec
// is reported in the resulting decode error.
func VideoCodec(data []byte) (Codec, error) {
	mp4File, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		for _, trak := range mp4File.Init.Moov.Traks {
			if codec := codecFromTrack(trak); codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			if codec := codecFromTrack(trak); codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found")
}

func codecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		case "vp09":
			return CodecVP9
		}
	}
	return CodecUnknown
}
