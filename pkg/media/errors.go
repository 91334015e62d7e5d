package media

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy. Every failure recorded on an Item matches exactly one of
// these with errors.Is.
var (
	ErrNetwork   = errors.New("network error")
	ErrDecode    = errors.New("decode error")
	ErrUpload    = errors.New("upload error")
	ErrCancelled = errors.New("cancelled")
	ErrExhausted = errors.New("all providers exhausted")
)

var (
	// ErrInvalidState is returned when an operation is called in the wrong state.
	ErrInvalidState = errors.New("invalid item state")
	// ErrReleased is the error recorded on items released by their owner.
	ErrReleased = errors.New("item released")
)

// UploadCause classifies why a GPU hand-off failed.
type UploadCause int

const (
	// CauseRejected covers allocator failures that are not classified further.
	CauseRejected UploadCause = iota
	// CauseOutOfMemory means the allocator ran out of video memory.
	CauseOutOfMemory
	// CauseWindowViolation means no quiescent window could be granted.
	CauseWindowViolation
	// CauseCorruptBuffer means the pixel buffer was empty or did not match
	// the frame dimensions.
	CauseCorruptBuffer
)

func (c UploadCause) String() string {
	switch c {
	case CauseOutOfMemory:
		return "out-of-memory"
	case CauseWindowViolation:
		return "window-violation"
	case CauseCorruptBuffer:
		return "corrupt-buffer"
	default:
		return "rejected"
	}
}

// UploadError reports a failed GPU upload with its cause.
type UploadError struct {
	Cause UploadCause
	Frame int
	Err   error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upload frame %d: %s", e.Frame, e.Cause)
	}
	return fmt.Sprintf("upload frame %d: %s: %v", e.Frame, e.Cause, e.Err)
}

func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpload}
	}
	return []error{ErrUpload, e.Err}
}

// DecodeError reports malformed, truncated or unsupported encoded data.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// UploadCauseOf extracts the upload cause from err.
func UploadCauseOf(err error) (UploadCause, bool) {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Cause, true
	}
	return 0, false
}

// cancelled wraps a context error into the taxonomy.
func cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// classifyFetch maps a fetch failure onto ErrNetwork or ErrCancelled.
func classifyFetch(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrNetwork):
		return err
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return cancelled(ctx)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}
