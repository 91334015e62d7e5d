// Package pawfeed wires a configuration into a running feed: providers, the
// multiplexer with its preloader, the decode and upload stages, embedded
// placeholders and the playback accessor.
package pawfeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/pawfeed/pkg/adapters/filesink"
	"github.com/user/pawfeed/pkg/adapters/ggrenderer"
	"github.com/user/pawfeed/pkg/adapters/httpfetcher"
	"github.com/user/pawfeed/pkg/adapters/imagedecoder"
	"github.com/user/pawfeed/pkg/adapters/logger"
	"github.com/user/pawfeed/pkg/adapters/memgpu"
	"github.com/user/pawfeed/pkg/adapters/nullsink"
	"github.com/user/pawfeed/pkg/adapters/osfilesystem"
	"github.com/user/pawfeed/pkg/config"
	"github.com/user/pawfeed/pkg/handoff"
	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/multiplexer"
	"github.com/user/pawfeed/pkg/orchestrator"
	"github.com/user/pawfeed/pkg/playback"
	"github.com/user/pawfeed/pkg/ports"
	"github.com/user/pawfeed/pkg/source"
	"github.com/user/pawfeed/pkg/stages/decode"
	"github.com/user/pawfeed/pkg/stages/upload"
)

// Names of the embedded placeholder resources.
const (
	ResourceLoading = "loading"
	ResourceError   = "error"
	ResourceOffline = "offline"
)

// Deps overrides the collaborators built from the configuration. Nil
// fields get the default adapter.
type Deps struct {
	Fetcher    ports.Fetcher
	Graphics   ports.Graphics
	FileSystem ports.FileSystem
	Renderer   ports.Renderer
	Logger     ports.Logger
	Registry   *prometheus.Registry
}

// App is a configured feed.
type App struct {
	cfg      config.Config
	logger   ports.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collectors

	fetcher  ports.Fetcher
	fs       ports.FileSystem
	renderer ports.Renderer
	decoder  ports.ImageDecoder
	preparer *orchestrator.Orchestrator

	loading *media.Embedded
	failed  *media.Embedded
	offline *media.Embedded

	providers []source.Provider
	mux       *multiplexer.Multiplexer
	player    *playback.Player
}

// NewLogger builds the logger selected by cfg.
func NewLogger(cfg config.Config) (ports.Logger, error) {
	level := ports.ParseLogLevel(cfg.LogLevel)
	if level == ports.LevelQuiet {
		return logger.NewNoop(), nil
	}
	if cfg.LogFormat == "json" {
		z, err := logger.NewZap(level)
		if err != nil {
			return nil, err
		}
		return z, nil
	}
	return logger.NewConsole(level), nil
}

// New validates cfg and builds an App. Nothing is fetched until Start or
// Take is called.
func New(cfg config.Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{cfg: cfg}
	if err := a.initAdapters(deps); err != nil {
		return nil, err
	}
	a.initPipeline(deps.Graphics)

	providers, err := a.buildProviders()
	if err != nil {
		return nil, err
	}
	a.providers = providers

	a.mux = multiplexer.New(multiplexer.Options{
		Config: multiplexer.Config{
			DownloadQueueDepth: cfg.DownloadQueueDepth,
			PreloadDepth:       cfg.PreloadDepth,
		},
		Fallback: a.exhaustedFallback,
		Preparer: a.preparer,
		Logger:   a.logger,
		Metrics:  a.metrics,
	})
	for _, p := range providers {
		a.mux.AddProvider(p)
	}

	a.player = playback.New(playback.Options{
		Source:   a.mux,
		Interval: cfg.DisplayInterval(),
		Logger:   a.logger,
	})
	return a, nil
}

func (a *App) initAdapters(deps Deps) error {
	a.logger = deps.Logger
	if a.logger == nil {
		l, err := NewLogger(a.cfg)
		if err != nil {
			return err
		}
		a.logger = l
	}

	a.registry = deps.Registry
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = metrics.New(a.registry)

	a.fetcher = deps.Fetcher
	if a.fetcher == nil {
		a.fetcher = httpfetcher.New(httpfetcher.Options{
			Timeout:      a.cfg.HTTPTimeout(),
			UserAgent:    a.cfg.HTTP.UserAgent,
			MaxBodyBytes: a.cfg.HTTP.MaxBodyBytes,
		})
	}
	a.fs = deps.FileSystem
	if a.fs == nil {
		a.fs = osfilesystem.New()
	}
	a.renderer = deps.Renderer
	if a.renderer == nil {
		a.renderer = ggrenderer.New()
	}
	return nil
}

func (a *App) initPipeline(gfx ports.Graphics) {
	if gfx == nil {
		gfx = memgpu.New(memgpu.Options{
			Capacity:      a.cfg.GPU.VRAMBytes,
			MaxTextureDim: a.cfg.GPU.MaxTextureDim,
		})
	}

	var sink ports.DebugSink = nullsink.New()
	if a.cfg.Debug {
		sink = filesink.New(a.cfg.DebugDir, a.fs, a.renderer)
	}

	region := handoff.New(handoff.Options{
		PrimaryBytes:  a.cfg.Handoff.PrimaryBytes,
		FallbackBytes: a.cfg.Handoff.FallbackBytes,
		OnGrant: func(_ int64, fallback bool) {
			a.metrics.WindowGranted(fallback)
		},
		Logger: a.logger,
	})

	a.decoder = imagedecoder.New(imagedecoder.Options{
		MaxDimension: a.cfg.GPU.MaxTextureDim,
		Resizer:      a.renderer,
	})
	a.preparer = orchestrator.New(
		decode.NewStage(a.decoder, sink, a.logger, a.metrics),
		upload.NewStage(gfx, region, a.logger, a.metrics),
		a.logger,
	)

	a.loading = media.NewEmbedded(ResourceLoading, a.placeholder("Loading..."))
	a.failed = media.NewEmbedded(ResourceError, a.placeholder("Could not load an image"))
	a.offline = media.NewEmbedded(ResourceOffline, a.placeholder("Source offline"))
}

// placeholder returns a loader that renders caption into a card and runs
// it through the regular decode and upload stages.
func (a *App) placeholder(caption string) media.Loader {
	return func(ctx context.Context) (*media.Item, error) {
		theme := a.cfg.Placeholder
		spec := ports.PlaceholderSpec{
			Width:      theme.Width,
			Height:     theme.Height,
			Caption:    caption,
			Background: config.ParseColor(theme.BackgroundColor),
			Foreground: config.ParseColor(theme.TextColor),
			FontPath:   theme.FontPath,
			FontSize:   theme.FontSize,
		}
		img, err := a.renderer.Placeholder(spec)
		if err != nil {
			a.logger.Warn("Placeholder font unavailable, using built-in face: %v", err)
			spec.FontPath = ""
			if img, err = a.renderer.Placeholder(spec); err != nil {
				return nil, fmt.Errorf("render placeholder: %w", err)
			}
		}
		data, err := a.renderer.EncodeImage(img, ports.FormatPNG, 0)
		if err != nil {
			return nil, fmt.Errorf("encode placeholder: %w", err)
		}
		it := media.FromBytes(data, media.WithCreator("pawfeed"), media.WithDescription(caption))
		if err := a.preparer.Prepare(ctx, it); err != nil {
			return nil, err
		}
		return it, nil
	}
}

func (a *App) embeddedOr(ctx context.Context, e *media.Embedded, cause error) *media.Item {
	it, err := e.Get(ctx)
	if err != nil {
		a.logger.Error("Embedded resource unavailable: %v", err)
		return media.Failed(errors.Join(cause, err))
	}
	return it
}

func (a *App) exhaustedFallback(ctx context.Context) *media.Item {
	return a.embeddedOr(ctx, a.failed, media.ErrExhausted)
}

func (a *App) offlineFallback(ctx context.Context) *media.Item {
	return a.embeddedOr(ctx, a.offline, source.ErrOffline)
}

// buildProviders creates the providers enabled in the configuration.
func (a *App) buildProviders() ([]source.Provider, error) {
	pc := a.cfg.Providers
	batch := source.BatchOptions{
		Fetcher:         a.fetcher,
		OfflineCooldown: a.cfg.OfflineCooldown(),
		Fallback:        a.offlineFallback,
		OnOffline:       a.metrics.SetOffline,
		Logger:          a.logger,
	}

	var providers []source.Provider
	if pc.NekosLife.Enabled {
		providers = append(providers, source.NekosLife(a.fetcher, a.logger))
	}
	if pc.ShibeOnline.Enabled {
		providers = append(providers, source.ShibeOnline(batch))
	}
	if pc.TheCatAPI.Enabled {
		breed, ok := source.LookupBreed(pc.TheCatAPI.Breed)
		if !ok {
			return nil, fmt.Errorf("unknown breed %q", pc.TheCatAPI.Breed)
		}
		providers = append(providers, source.TheCatAPI(batch).Source(breed.ID))
	}
	if pc.Static.Enabled {
		fixtures, err := source.LoadFixtures(a.fs, pc.Static.Fixtures)
		if err != nil {
			return nil, err
		}
		static, err := source.NewStatic(source.StaticOptions{
			Fixtures:   fixtures,
			Delay:      time.Duration(pc.Static.DelayMs) * time.Millisecond,
			FaultEvery: pc.Static.FaultEvery,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, static)
	}
	return providers, nil
}

// Start loads the placeholders and launches the preloader.
func (a *App) Start(ctx context.Context) error {
	loading, err := a.loading.Get(ctx)
	if err != nil {
		a.logger.Warn("Placeholder unavailable: %v", err)
	} else {
		a.player.SetPlaceholder(loading)
	}
	if err := a.mux.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("Feed started with %d providers", a.mux.Providers())
	return nil
}

// Take returns the next GPU resident item. Release it with Release.
func (a *App) Take(ctx context.Context) (*media.Item, error) {
	return a.mux.Take(ctx)
}

// Release hands an item back.
func (a *App) Release(item *media.Item) {
	a.mux.Release(item)
}

// Prepare decodes and uploads an item through the regular stages.
func (a *App) Prepare(ctx context.Context, item *media.Item) error {
	return a.preparer.Prepare(ctx, item)
}

// Fetch downloads url directly, bypassing the providers, and prepares it.
func (a *App) Fetch(ctx context.Context, url string) (*media.Item, error) {
	item := media.New(ctx, func(ctx context.Context) (media.Response, error) {
		data, err := a.fetcher.Get(ctx, url)
		return media.Response{Data: data, URL: url}, err
	}, media.WithCreator("fetch"))
	return item, a.preparer.Prepare(ctx, item)
}

// Open reads a local file and prepares it.
func (a *App) Open(ctx context.Context, path string) (*media.Item, error) {
	data, err := a.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	item := media.FromBytes(data, media.WithCreator("file"), media.WithSourceURL(path))
	return item, a.preparer.Prepare(ctx, item)
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() ports.Logger { return a.logger }

// Registry returns the metrics registry.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Multiplexer returns the underlying multiplexer.
func (a *App) Multiplexer() *multiplexer.Multiplexer { return a.mux }

// Player returns the playback accessor.
func (a *App) Player() *playback.Player { return a.player }

// Providers returns the configured providers.
func (a *App) Providers() []source.Provider { return a.providers }

// Close stops the feed and releases every item it still owns.
func (a *App) Close() error {
	a.player.Close()
	err := a.mux.Close()
	if z, ok := a.logger.(*logger.ZapLogger); ok {
		// stderr sync fails on some terminals
		_ = z.Sync()
	}
	return err
}
