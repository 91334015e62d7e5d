package ports

import "context"

// Quiescer grants scoped windows during which the runtime must not move or
// collect a buffer that is being read by a foreign allocator.
type Quiescer interface {
	// Enter blocks until a window large enough for size bytes is held by the
	// caller. The returned release func must be called on every exit path
	// and is safe to call more than once.
	Enter(ctx context.Context, size int64) (release func(), err error)
}
