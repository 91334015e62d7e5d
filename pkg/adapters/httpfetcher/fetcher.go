// Package httpfetcher implements ports.Fetcher over net/http.
package httpfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/pawfeed/pkg/ports"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "pawfeed/1.0"
	DefaultMaxBodyBytes = 64 << 20
)

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options configures a Fetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Fetcher performs GET requests and returns whole bodies.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Get downloads url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, image/*;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > f.maxBodyBytes {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", url, ErrBodyTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("GET %s: %w", url, ErrBodyTooLarge)
	}
	return body, nil
}

// Ensure Fetcher implements ports.Fetcher
var _ ports.Fetcher = (*Fetcher)(nil)
