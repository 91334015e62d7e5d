// Package media implements the per-image state machine: encoded bytes are
// downloaded, decoded into frames, and handed off to video memory, after
// which the item can be sampled by time.
package media

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/user/pawfeed/pkg/ports"
)

// Response is the result of a successful fetch.
type Response struct {
	Data []byte
	URL  string
}

// FetchFunc downloads the encoded bytes of one item. It is called exactly
// once; retry policy belongs to the provider that builds the func.
type FetchFunc func(ctx context.Context) (Response, error)

// Metadata is provenance information set by the provider that created the item.
type Metadata struct {
	SourceURL   string
	Description string
	DebugInfo   string
	Creator     string
}

// Option configures an Item at construction time.
type Option func(*Item)

// WithCreator records the name of the provider that produced the item.
func WithCreator(name string) Option {
	return func(it *Item) { it.meta.Creator = name }
}

// WithDescription sets a human readable description.
func WithDescription(desc string) Option {
	return func(it *Item) { it.meta.Description = desc }
}

// WithDebugInfo attaches free-form debugging information.
func WithDebugInfo(info string) Option {
	return func(it *Item) { it.meta.DebugInfo = info }
}

// WithSourceURL presets the source URL. A fetch response URL overrides it.
func WithSourceURL(url string) Option {
	return func(it *Item) { it.meta.SourceURL = url }
}

// Frame is one decoded frame. Its pixel buffer belongs to the item until the
// frame is GPU resident, after which the texture owns the pixels.
type Frame struct {
	pixels     []byte
	durationMs int
	texture    ports.Texture
}

// DurationMs returns the display duration of the frame.
func (f *Frame) DurationMs() int { return f.durationMs }

// Pixels returns the RGBA buffer while the frame is still RAM resident.
func (f *Frame) Pixels() []byte { return f.pixels }

// Texture returns the GPU handle once the frame is resident.
func (f *Frame) Texture() ports.Texture { return f.texture }

// Item is the state machine and resource holder for one image.
type Item struct {
	id uuid.UUID

	mu      sync.RWMutex
	state   State
	err     error
	busy    bool
	changed chan struct{} // closed and replaced on every transition

	encoded []byte
	frames  []*Frame
	cycleMs int
	width   int
	height  int
	format  string
	meta    Metadata

	pinned bool
}

func newItem(state State, opts []Option) *Item {
	it := &Item{
		id:      uuid.New(),
		state:   state,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// New creates an item in Downloading and runs fetch in the background.
// Cancelling ctx moves the item to Error with an ErrCancelled cause.
func New(ctx context.Context, fetch FetchFunc, opts ...Option) *Item {
	it := newItem(StateDownloading, opts)
	go it.download(ctx, fetch)
	return it
}

// FromBytes creates an item that starts in Downloaded, bypassing the network.
func FromBytes(data []byte, opts ...Option) *Item {
	it := newItem(StateDownloaded, opts)
	it.encoded = data
	return it
}

// Failed creates an item that is already in Error. Providers use it to
// report failures that happen before any fetch could start.
func Failed(err error, opts ...Option) *Item {
	it := newItem(StateError, opts)
	it.err = err
	return it
}

func (it *Item) download(ctx context.Context, fetch FetchFunc) {
	resp, err := fetch(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && len(resp.Data) == 0 {
		err = errors.New("empty response body")
	}
	if err != nil {
		it.fail(StateDownloading, classifyFetch(ctx, err))
		return
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state != StateDownloading {
		return
	}
	it.encoded = resp.Data
	if resp.URL != "" {
		it.meta.SourceURL = resp.URL
	}
	it.transitionLocked(StateDownloaded)
}

// transitionLocked moves to state and wakes waiters. Caller holds mu.
func (it *Item) transitionLocked(state State) {
	it.state = state
	close(it.changed)
	it.changed = make(chan struct{})
}

// fail moves the item to Error if it is still in from. A negative from
// matches any non-terminal state.
func (it *Item) fail(from State, err error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state == StateError || (from >= 0 && it.state != from) {
		return
	}
	it.err = err
	it.busy = false
	it.transitionLocked(StateError)
}

// begin marks the item busy if it is in want.
func (it *Item) begin(want State, op string) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state != want || it.busy {
		return fmt.Errorf("%w: %s requires %s, item is %s", ErrInvalidState, op, want, it.state)
	}
	it.busy = true
	return nil
}

// Decode decodes the encoded bytes into frames and moves the item to Decoded.
// Malformed input moves the item to Error with a DecodeError.
func (it *Item) Decode(ctx context.Context, dec ports.ImageDecoder) error {
	if err := it.begin(StateDownloaded, "decode"); err != nil {
		return err
	}
	if ctx.Err() != nil {
		err := cancelled(ctx)
		it.fail(StateDownloaded, err)
		return err
	}

	it.mu.RLock()
	data := it.encoded
	it.mu.RUnlock()

	decoded, err := decodeFrames(dec, data)
	if err == nil && ctx.Err() != nil {
		err = cancelled(ctx)
	}
	if err != nil {
		it.fail(StateDownloaded, err)
		return err
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state != StateDownloaded {
		return fmt.Errorf("%w: item left Downloaded during decode", ErrInvalidState)
	}
	it.frames = decoded.frames
	it.width = decoded.width
	it.height = decoded.height
	it.format = decoded.format
	it.cycleMs = decoded.cycleMs
	it.busy = false
	it.transitionLocked(StateDecoded)
	return nil
}

type decodeResult struct {
	frames  []*Frame
	width   int
	height  int
	format  string
	cycleMs int
}

func decodeFrames(dec ports.ImageDecoder, data []byte) (decodeResult, error) {
	if len(data) == 0 {
		return decodeResult{}, &DecodeError{Err: errors.New("no encoded data")}
	}
	img, err := dec.Decode(data)
	if err != nil {
		return decodeResult{}, &DecodeError{Err: err}
	}
	if len(img.Frames) == 0 {
		return decodeResult{}, &DecodeError{Err: errors.New("decoder returned no frames")}
	}
	if img.Width <= 0 || img.Height <= 0 {
		return decodeResult{}, &DecodeError{Err: fmt.Errorf("invalid dimensions %dx%d", img.Width, img.Height)}
	}

	res := decodeResult{
		frames: make([]*Frame, len(img.Frames)),
		width:  img.Width,
		height: img.Height,
		format: img.Format,
	}
	for i, f := range img.Frames {
		if f.DurationMs <= 0 {
			return decodeResult{}, &DecodeError{Err: fmt.Errorf("frame %d has non-positive duration %d", i, f.DurationMs)}
		}
		res.frames[i] = &Frame{pixels: f.Pixels, durationMs: f.DurationMs}
		res.cycleMs += f.DurationMs
	}
	if len(res.frames) == 1 {
		res.cycleMs = 0
	}
	return res, nil
}

// UploadToGPU hands every frame to gfx, each inside a quiescent window
// granted by q, and moves the item to GPUResident. On any failure textures
// created so far are released and the item moves to Error with an UploadError.
func (it *Item) UploadToGPU(ctx context.Context, gfx ports.Graphics, q ports.Quiescer) error {
	if err := it.begin(StateDecoded, "upload"); err != nil {
		return err
	}

	it.mu.RLock()
	frames := it.frames
	width, height := it.width, it.height
	it.mu.RUnlock()

	textures := make([]ports.Texture, 0, len(frames))
	abort := func(err error) error {
		for _, tex := range textures {
			tex.Release()
		}
		it.fail(StateDecoded, err)
		return err
	}

	want := width * height * 4
	for i, f := range frames {
		if ctx.Err() != nil {
			return abort(cancelled(ctx))
		}
		if len(f.pixels) == 0 || len(f.pixels) != want {
			return abort(&UploadError{
				Cause: CauseCorruptBuffer,
				Frame: i,
				Err:   fmt.Errorf("buffer holds %d bytes, want %d", len(f.pixels), want),
			})
		}
		tex, err := handOff(ctx, gfx, q, f.pixels, width, height, i)
		if err != nil {
			return abort(err)
		}
		textures = append(textures, tex)
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state != StateDecoded {
		for _, tex := range textures {
			tex.Release()
		}
		return fmt.Errorf("%w: item left Decoded during upload", ErrInvalidState)
	}
	for i, f := range it.frames {
		f.texture = textures[i]
		f.pixels = nil
	}
	it.encoded = nil
	it.busy = false
	it.transitionLocked(StateGPUResident)
	return nil
}

// handOff transfers one buffer to the allocator while a quiescent window is
// held. The window is released on every path, including allocator panics.
func handOff(ctx context.Context, gfx ports.Graphics, q ports.Quiescer, pixels []byte, width, height, index int) (tex ports.Texture, err error) {
	release, err := q.Enter(ctx, int64(len(pixels)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, &UploadError{Cause: CauseWindowViolation, Frame: index, Err: err}
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			tex = nil
			err = &UploadError{Cause: CauseRejected, Frame: index, Err: fmt.Errorf("allocator panic: %v", r)}
		}
	}()

	tex, err = gfx.UploadPixels(pixels, width, height, 4)
	runtime.KeepAlive(pixels)
	if err != nil {
		cause := CauseRejected
		if errors.Is(err, ports.ErrOutOfMemory) {
			cause = CauseOutOfMemory
		}
		return nil, &UploadError{Cause: cause, Frame: index, Err: err}
	}
	if tex == nil {
		return nil, &UploadError{Cause: CauseRejected, Frame: index, Err: errors.New("allocator returned no texture")}
	}
	return tex, nil
}

// FrameAt returns the texture to display at timeMs. Animated items loop
// with a period of CycleMs.
func (it *Item) FrameAt(timeMs int64) (ports.Texture, error) {
	it.mu.RLock()
	defer it.mu.RUnlock()

	if it.state != StateGPUResident {
		return nil, fmt.Errorf("%w: frame lookup requires %s, item is %s", ErrInvalidState, StateGPUResident, it.state)
	}
	if len(it.frames) == 1 {
		return it.frames[0].texture, nil
	}
	if it.cycleMs <= 0 {
		return nil, fmt.Errorf("%w: %d frames but no cycle time", ErrInvalidState, len(it.frames))
	}

	t := timeMs % int64(it.cycleMs)
	if t < 0 {
		t += int64(it.cycleMs)
	}
	var total int64
	for _, f := range it.frames {
		total += int64(f.durationMs)
		if total > t {
			return f.texture, nil
		}
	}
	return it.frames[len(it.frames)-1].texture, nil
}

// Await blocks until the item reaches target (or a later non-error state).
// It returns the item error if the item fails first, and ErrCancelled if ctx
// is done. Cancelling the wait does not affect the item.
func (it *Item) Await(ctx context.Context, target State) error {
	for {
		it.mu.RLock()
		state, err, changed := it.state, it.err, it.changed
		it.mu.RUnlock()

		if reached(state, target) {
			return nil
		}
		if state == StateError {
			return err
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return cancelled(ctx)
		}
	}
}

// Release frees RAM and VRAM held by the item and moves it to Error with
// ErrReleased. Pinned items ignore Release.
func (it *Item) Release() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.pinned {
		return
	}
	for _, f := range it.frames {
		if f.texture != nil {
			f.texture.Release()
			f.texture = nil
		}
		f.pixels = nil
	}
	it.encoded = nil
	if it.state != StateError {
		it.err = ErrReleased
		it.busy = false
		it.transitionLocked(StateError)
	}
}

func (it *Item) pin() {
	it.mu.Lock()
	it.pinned = true
	it.mu.Unlock()
}

// ID returns the unique identifier of the item.
func (it *Item) ID() uuid.UUID { return it.id }

// State returns the current state.
func (it *Item) State() State {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.state
}

// Err returns the failure cause once the item is in Error.
func (it *Item) Err() error {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.err
}

// Metadata returns the provenance metadata.
func (it *Item) Metadata() Metadata {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.meta
}

// Size returns the pixel dimensions. Both are zero before decoding.
func (it *Item) Size() (width, height int) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.width, it.height
}

// Format returns the decoded container format name.
func (it *Item) Format() string {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.format
}

// CycleMs returns the animation loop length, 0 for static images.
func (it *Item) CycleMs() int {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.cycleMs
}

// FrameCount returns the number of decoded frames.
func (it *Item) FrameCount() int {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return len(it.frames)
}

// EachFrame calls fn for every frame while holding a read lock.
func (it *Item) EachFrame(fn func(index int, f *Frame)) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	for i, f := range it.frames {
		fn(i, f)
	}
}

// Pinned reports whether Release is ignored for this item.
func (it *Item) Pinned() bool {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.pinned
}

// RAMUsage returns the size of the encoded buffer still held.
func (it *Item) RAMUsage() int64 {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return int64(len(it.encoded))
}

// VRAMUsage returns the pixel bytes of all frames: the RAM-resident buffer
// length before upload, the allocator-reported size after.
func (it *Item) VRAMUsage() int64 {
	it.mu.RLock()
	defer it.mu.RUnlock()
	var total int64
	for _, f := range it.frames {
		if f.texture != nil {
			total += f.texture.Size()
		} else {
			total += int64(len(f.pixels))
		}
	}
	return total
}

func (it *Item) String() string {
	it.mu.RLock()
	defer it.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", it.state, it.id)
	if it.state == StateDownloading && it.meta.SourceURL != "" {
		fmt.Fprintf(&b, " %s", it.meta.SourceURL)
	}
	if n := len(it.encoded); n > 0 {
		fmt.Fprintf(&b, " Data: %s", FormatBytes(int64(n)))
	}
	var vram int64
	for _, f := range it.frames {
		if f.texture != nil {
			vram += f.texture.Size()
		} else {
			vram += int64(len(f.pixels))
		}
	}
	if vram > 0 {
		fmt.Fprintf(&b, " Texture: %s", FormatBytes(vram))
	}
	if len(it.frames) > 0 {
		fmt.Fprintf(&b, " Frames: %d", len(it.frames))
	}
	if it.meta.Creator != "" {
		fmt.Fprintf(&b, " Creator: %s", it.meta.Creator)
	}
	if it.meta.DebugInfo != "" {
		fmt.Fprintf(&b, " DebugInfo: %s", it.meta.DebugInfo)
	}
	if it.err != nil {
		fmt.Fprintf(&b, " Err: %v", it.err)
	}
	return b.String()
}
