// Package main provides the CLI entry point for pawfeed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/pawfeed/pkg/adapters/osfilesystem"
	"github.com/user/pawfeed/pkg/config"
	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/pawfeed"
	"github.com/user/pawfeed/pkg/ports"
	"github.com/user/pawfeed/pkg/statusserver"
	"github.com/user/pawfeed/pkg/summarizer"
)

var version = "dev"

// Flag categories, translated when the flags are built.
const (
	catConfig    = "Configuration"
	catProviders = "Providers"
	catQueue     = "Queue"
	catOutput    = "Output"
	catDebug     = "Debug"
	catLogging   = "Logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pawfeed",
		Usage:   l10n.T("Stream animal pictures from public image APIs"),
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			fetchCommand(),
			decodeCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("pawfeed version %s", version))
					return nil
				},
			},
		},
	}
}

// commonFlags are shared by every command that builds an App.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T(catConfig), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Value: string(pawfeed.PresetDefault), Category: l10n.T(catConfig), Usage: l10n.T("Configuration preset (default, lowmem)")},
		&cli.StringFlag{Name: "user-agent", Category: l10n.T(catConfig), Usage: l10n.T("User-Agent of outbound requests")},
		&cli.IntFlag{Name: "timeout-ms", Category: l10n.T(catConfig), Usage: l10n.T("HTTP request timeout in milliseconds")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T(catDebug), Usage: l10n.T("Write decoded frames to the debug directory")},
		&cli.StringFlag{Name: "debug-dir", Category: l10n.T(catDebug), Usage: l10n.T("Directory for debug output")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T(catLogging), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.StringFlag{Name: "log-format", Category: l10n.T(catLogging), Usage: l10n.T("Log format (console, json)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T(catLogging), Usage: l10n.T("Suppress all log output")},
	}
}

func runCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringSliceFlag{Name: "provider", Category: l10n.T(catProviders), Usage: l10n.T("Enable only these providers (nekos_life, shibe_online, the_cat_api, static)")},
		&cli.StringFlag{Name: "breed", Category: l10n.T(catProviders), Usage: l10n.T("TheCatAPI breed id or name")},
		&cli.StringSliceFlag{Name: "fixture", Category: l10n.T(catProviders), Usage: l10n.T("Serve local image files through the static provider")},
		&cli.IntFlag{Name: "fault-every", Category: l10n.T(catProviders), Usage: l10n.T("Make every n-th static request fail")},
		&cli.IntFlag{Name: "download-queue-depth", Category: l10n.T(catQueue), Usage: l10n.T("Maximum concurrent downloads")},
		&cli.IntFlag{Name: "preload-depth", Category: l10n.T(catQueue), Usage: l10n.T("Number of GPU resident items kept ready")},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 5, Category: l10n.T(catOutput), Usage: l10n.T("Number of items to take (0 = until interrupted)")},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Category: l10n.T(catOutput), Usage: l10n.T("Output run summary to file (Markdown, or JSON for .json paths)")},
		&cli.StringFlag{Name: "metrics-addr", Category: l10n.T(catOutput), Usage: l10n.T("Serve /healthz, /status and /metrics on this address")},
	)
	return &cli.Command{
		Name:   "run",
		Usage:  l10n.T("Take items from the feed and log each one"),
		Flags:  flags,
		Action: runAction,
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     l10n.T("Download and decode a single image URL"),
		ArgsUsage: "<url>",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("URL argument is required"))
			}
			return inspect(c, func(ctx context.Context, app *pawfeed.App) (*media.Item, error) {
				return app.Fetch(ctx, c.Args().First())
			})
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     l10n.T("Decode a local image file"),
		ArgsUsage: "<file>",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("File argument is required"))
			}
			return inspect(c, func(ctx context.Context, app *pawfeed.App) (*media.Item, error) {
				return app.Open(ctx, c.Args().First())
			})
		},
	}
}

// buildConfig loads the config file or preset, then applies flag overrides.
func buildConfig(c *cli.Context) (config.Config, error) {
	var builder *pawfeed.ConfigBuilder
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		builder = pawfeed.FromConfig(cfg)
	} else {
		builder = pawfeed.NewPresetBuilder(pawfeed.Preset(c.String("preset")))
	}

	if c.IsSet("user-agent") {
		builder.WithUserAgent(c.String("user-agent"))
	}
	if c.IsSet("timeout-ms") {
		builder.WithHTTPTimeoutMs(c.Int("timeout-ms"))
	}
	if c.IsSet("debug") || c.IsSet("debug-dir") {
		builder.WithDebug(c.Bool("debug"), c.String("debug-dir"))
	}
	builder.WithLogging(c.String("log-level"), c.String("log-format"))
	if c.Bool("quiet") {
		builder.WithLogging("quiet", "")
	}

	// run only
	if names := c.StringSlice("provider"); len(names) > 0 {
		builder.WithOnlyProviders(names...)
	}
	if c.IsSet("breed") {
		builder.WithBreed(c.String("breed"))
	}
	if fixtures := c.StringSlice("fixture"); len(fixtures) > 0 {
		builder.WithStaticFixtures(fixtures, 0, c.Int("fault-every"))
	}
	if c.IsSet("download-queue-depth") {
		builder.WithDownloadQueueDepth(c.Int("download-queue-depth"))
	}
	if c.IsSet("preload-depth") {
		builder.WithPreloadDepth(c.Int("preload-depth"))
	}
	if c.IsSet("metrics-addr") {
		builder.WithMetricsAddr(c.String("metrics-addr"))
	}
	return builder.Build(), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newFeed(c *cli.Context) (*pawfeed.App, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, err
	}
	return pawfeed.New(cfg, pawfeed.Deps{})
}

func runAction(c *cli.Context) error {
	app, err := newFeed(c)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config()
	log := app.Logger()

	ctx, cancel := signalContext(log)
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := statusserver.New(statusserver.Options{
			Addr:     cfg.MetricsAddr,
			Status:   app.Multiplexer(),
			Gatherer: app.Registry(),
			Logger:   log,
		})
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("Status server stopped: %v", err)
			}
		}()
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	builder := summarizer.NewBuilder().WithSettings(summarizer.Settings{
		Preset:             c.String("preset"),
		DownloadQueueDepth: cfg.DownloadQueueDepth,
		PreloadDepth:       cfg.PreloadDepth,
		DisplayIntervalMs:  cfg.DisplayIntervalMs,
	})

	count := c.Int("count")
	for i := 0; count <= 0 || i < count; i++ {
		start := time.Now()
		item, err := app.Take(ctx)
		wait := time.Since(start)
		if item == nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if err != nil {
			log.Warn("Showing fallback: %v", err)
		}
		w, h := item.Size()
		log.Info("Item %d from %s: %dx%d %s, %d frames, waited %d ms",
			i+1, item.Metadata().Creator, w, h, item.Format(), item.FrameCount(), wait.Milliseconds())
		builder.AddItem(item, wait, err)
		app.Release(item)
	}

	builder.WithSnapshot(app.Multiplexer().Snapshot())
	if path := c.String("summary"); path != "" {
		writer := summarizer.NewWriter(
			summarizer.FormatterFor(path,
				summarizer.WithTranslator(func(key string) string { return l10n.T(key) }),
				summarizer.WithVersion(version),
			),
			osfilesystem.New(),
		)
		if err := writer.Write(path, builder.Build()); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return nil
}

// inspect prepares a single item through open and prints its properties.
func inspect(c *cli.Context, open func(context.Context, *pawfeed.App) (*media.Item, error)) error {
	app, err := newFeed(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext(app.Logger())
	defer cancel()

	item, err := open(ctx, app)
	if item != nil {
		defer item.Release()
	}
	if err != nil {
		return err
	}

	w, h := item.Size()
	out := c.App.Writer
	fmt.Fprintln(out, l10n.F("Format: %s", item.Format()))
	fmt.Fprintln(out, l10n.F("Size: %dx%d", w, h))
	fmt.Fprintln(out, l10n.F("Frames: %d, Cycle: %d ms", item.FrameCount(), item.CycleMs()))
	fmt.Fprintln(out, l10n.F("Memory: %d bytes RAM, %d bytes VRAM", item.RAMUsage(), item.VRAMUsage()))
	return nil
}
