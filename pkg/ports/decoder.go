package ports

// DecodedFrame is one fully composed RGBA frame of a decoded image.
type DecodedFrame struct {
	Pixels     []byte // Tightly packed RGBA, len == Width*Height*4
	DurationMs int    // Display duration, always > 0
}

// DecodedImage is the result of decoding an encoded image.
type DecodedImage struct {
	Width  int
	Height int
	Format string // "gif", "png", "jpeg", ...
	Frames []DecodedFrame
}

// ImageDecoder turns encoded image bytes into frames.
type ImageDecoder interface {
	// Decode decodes data. It never returns a partially populated frame list:
	// either every frame is valid or an error is returned.
	Decode(data []byte) (DecodedImage, error)
}
