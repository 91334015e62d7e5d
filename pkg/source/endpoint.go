package source

import (
	"context"
	"fmt"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/ports"
)

// EndpointOptions configures an Endpoint.
type EndpointOptions struct {
	Name    string
	URL     string
	Extract Extractor
	Fetcher ports.Fetcher
	Logger  ports.Logger
}

// Endpoint asks an API for one image URL per request and downloads it.
// Nothing is cached and nothing is retried.
type Endpoint struct {
	name    string
	url     string
	extract Extractor
	fetcher ports.Fetcher
	logger  ports.Logger
}

// NewEndpoint creates an Endpoint.
func NewEndpoint(opts EndpointOptions) *Endpoint {
	if opts.Extract == nil {
		opts.Extract = JSONField("url")
	}
	if opts.Name == "" {
		opts.Name = opts.URL
	}
	return &Endpoint{
		name:    opts.Name,
		url:     opts.URL,
		extract: opts.Extract,
		fetcher: opts.Fetcher,
		logger:  componentLogger(opts.Logger, opts.Name),
	}
}

// Name implements Provider.
func (e *Endpoint) Name() string { return e.name }

// Offline implements Provider. An endpoint is never marked offline.
func (e *Endpoint) Offline() bool { return false }

// SameAs implements Provider.
func (e *Endpoint) SameAs(other Provider) bool {
	o, ok := other.(*Endpoint)
	return ok && o.url == e.url
}

// Next implements Provider.
func (e *Endpoint) Next(ctx context.Context) *media.Item {
	return media.New(ctx, e.fetch, media.WithCreator(e.name), media.WithDebugInfo(e.url))
}

func (e *Endpoint) fetch(ctx context.Context) (media.Response, error) {
	body, err := e.fetcher.Get(ctx, e.url)
	if err != nil {
		return media.Response{}, fmt.Errorf("query %s: %w", e.url, err)
	}
	urls, err := e.extract(body)
	if err != nil {
		return media.Response{}, fmt.Errorf("query %s: %w", e.url, err)
	}
	if len(urls) == 0 {
		return media.Response{}, fmt.Errorf("query %s: %w", e.url, ErrNoURLs)
	}

	e.logger.Debug("Downloading %s", urls[0])
	data, err := e.fetcher.Get(ctx, urls[0])
	if err != nil {
		return media.Response{}, fmt.Errorf("download %s: %w", urls[0], err)
	}
	return media.Response{Data: data, URL: urls[0]}, nil
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s\t%s", e.name, e.url)
}
