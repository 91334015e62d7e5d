package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/ports"
)

var (
	// ErrInjectedFault is the failure produced on every FaultEvery-th call.
	ErrInjectedFault = errors.New("injected fault")
	// ErrStaticDisabled is returned when building a Static source in a
	// release build.
	ErrStaticDisabled = errors.New("static source is not available in release builds")
)

// StaticOptions configures a Static source.
type StaticOptions struct {
	Name     string
	Fixtures [][]byte
	// Delay is applied to every fetch.
	Delay time.Duration
	// FaultEvery makes every n-th call fail with ErrInjectedFault. Zero
	// disables fault injection.
	FaultEvery int
	Logger     ports.Logger
}

// Static serves fixture buffers in round-robin order without any network
// I/O. It exists for tests and offline development and cannot be built
// with the release tag.
type Static struct {
	name       string
	fixtures   [][]byte
	delay      time.Duration
	faultEvery int
	logger     ports.Logger

	mu    sync.Mutex
	calls int
	next  int
}

// NewStatic creates a Static source.
func NewStatic(opts StaticOptions) (*Static, error) {
	if !staticEnabled {
		return nil, ErrStaticDisabled
	}
	if len(opts.Fixtures) == 0 {
		return nil, errors.New("static source needs at least one fixture")
	}
	for i, f := range opts.Fixtures {
		if len(f) == 0 {
			return nil, fmt.Errorf("fixture %d is empty", i)
		}
	}
	if opts.Name == "" {
		opts.Name = "static"
	}
	return &Static{
		name:       opts.Name,
		fixtures:   opts.Fixtures,
		delay:      opts.Delay,
		faultEvery: opts.FaultEvery,
		logger:     componentLogger(opts.Logger, opts.Name),
	}, nil
}

// LoadFixtures reads fixture files through fs.
func LoadFixtures(fs ports.FileSystem, paths []string) ([][]byte, error) {
	fixtures := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", p, err)
		}
		fixtures = append(fixtures, data)
	}
	return fixtures, nil
}

// Name implements Provider.
func (s *Static) Name() string { return s.name }

// Offline implements Provider.
func (s *Static) Offline() bool { return false }

// SameAs implements Provider.
func (s *Static) SameAs(other Provider) bool {
	o, ok := other.(*Static)
	return ok && o.name == s.name
}

// Next implements Provider. A faulting call does not consume a fixture.
func (s *Static) Next(ctx context.Context) *media.Item {
	s.mu.Lock()
	s.calls++
	call := s.calls
	fault := s.faultEvery > 0 && call%s.faultEvery == 0
	index := s.next
	if !fault {
		s.next = (s.next + 1) % len(s.fixtures)
	}
	s.mu.Unlock()

	data := s.fixtures[index]
	src := fmt.Sprintf("static://%s/%d", s.name, index)
	return media.New(ctx, func(ctx context.Context) (media.Response, error) {
		if s.delay > 0 {
			t := time.NewTimer(s.delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return media.Response{}, ctx.Err()
			}
		}
		if fault {
			s.logger.Debug("Injecting fault on call %d", call)
			return media.Response{}, fmt.Errorf("call %d: %w", call, ErrInjectedFault)
		}
		return media.Response{Data: data, URL: src}, nil
	}, media.WithCreator(s.name), media.WithSourceURL(src), media.WithDebugInfo(fmt.Sprintf("call %d", call)))
}

// Calls returns the number of Next calls so far.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
