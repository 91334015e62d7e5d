package pawfeed

import (
	"github.com/user/pawfeed/pkg/config"
)

// Preset names a starting configuration.
type Preset string

const (
	PresetDefault   Preset = "default"
	PresetLowMemory Preset = "lowmem"
)

// Provider names accepted by WithProvider.
const (
	ProviderNekosLife   = "nekos_life"
	ProviderShibeOnline = "shibe_online"
	ProviderTheCatAPI   = "the_cat_api"
	ProviderStatic      = "static"
)

// ConfigBuilder provides a fluent interface for building a config.Config.
type ConfigBuilder struct {
	config config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: config.Defaults(),
	}
}

// NewLowMemoryConfigBuilder creates a ConfigBuilder tuned for hosts with
// little RAM and VRAM to spare.
func NewLowMemoryConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: lowMemoryDefaults(),
	}
}

// NewPresetBuilder returns the builder for preset. Unknown presets fall back
// to the defaults.
func NewPresetBuilder(preset Preset) *ConfigBuilder {
	if preset == PresetLowMemory {
		return NewLowMemoryConfigBuilder()
	}
	return NewConfigBuilder()
}

// FromConfig starts a builder from an existing configuration, typically one
// loaded from a file, so command line flags can override it.
func FromConfig(cfg config.Config) *ConfigBuilder {
	return &ConfigBuilder{config: cfg}
}

// lowMemoryDefaults returns the low memory preset configuration.
func lowMemoryDefaults() config.Config {
	cfg := config.Defaults()

	// Queue bounds
	cfg.DownloadQueueDepth = 2
	cfg.PreloadDepth = 1

	// Hand-off (fallback budget only)
	cfg.Handoff.PrimaryBytes = cfg.Handoff.FallbackBytes

	// GPU
	cfg.GPU.VRAMBytes = 128 << 20
	cfg.GPU.MaxTextureDim = 2048

	// HTTP
	cfg.HTTP.MaxBodyBytes = 16 << 20

	return cfg
}

// Build returns the final Config, applying constraints.
func (b *ConfigBuilder) Build() config.Config {
	cfg := b.config

	// Enforce minimum queue depth of 1
	if cfg.DownloadQueueDepth < 1 {
		cfg.DownloadQueueDepth = 1
	}

	// Enforce non-negative preload depth
	if cfg.PreloadDepth < 0 {
		cfg.PreloadDepth = 0
	}

	return cfg
}

// WithDownloadQueueDepth sets the number of concurrent downloads.
// Values below 1 will be forced to 1.
func (b *ConfigBuilder) WithDownloadQueueDepth(n int) *ConfigBuilder {
	b.config.DownloadQueueDepth = n
	return b
}

// WithPreloadDepth sets the number of GPU resident items kept in reserve.
// Negative values will be forced to 0.
func (b *ConfigBuilder) WithPreloadDepth(n int) *ConfigBuilder {
	b.config.PreloadDepth = n
	return b
}

// WithProvider enables or disables a built-in provider by name.
func (b *ConfigBuilder) WithProvider(name string, enabled bool) *ConfigBuilder {
	p := &b.config.Providers
	switch name {
	case ProviderNekosLife:
		p.NekosLife.Enabled = enabled
	case ProviderShibeOnline:
		p.ShibeOnline.Enabled = enabled
	case ProviderTheCatAPI:
		p.TheCatAPI.Enabled = enabled
	case ProviderStatic:
		p.Static.Enabled = enabled
	}
	return b
}

// WithOnlyProviders enables exactly the named providers.
func (b *ConfigBuilder) WithOnlyProviders(names ...string) *ConfigBuilder {
	b.config.Providers.NekosLife.Enabled = false
	b.config.Providers.ShibeOnline.Enabled = false
	b.config.Providers.TheCatAPI.Enabled = false
	b.config.Providers.Static.Enabled = false
	for _, n := range names {
		b.WithProvider(n, true)
	}
	return b
}

// WithBreed filters TheCatAPI by breed id or name.
func (b *ConfigBuilder) WithBreed(breed string) *ConfigBuilder {
	b.config.Providers.TheCatAPI.Breed = breed
	return b
}

// WithStaticFixtures enables the static provider with the given fixtures.
func (b *ConfigBuilder) WithStaticFixtures(paths []string, delayMs, faultEvery int) *ConfigBuilder {
	b.config.Providers.Static = config.StaticConfig{
		Enabled:    len(paths) > 0,
		Fixtures:   paths,
		DelayMs:    delayMs,
		FaultEvery: faultEvery,
	}
	return b
}

// WithOfflineCooldownMs sets how long an offline provider waits before
// probing again.
func (b *ConfigBuilder) WithOfflineCooldownMs(ms int) *ConfigBuilder {
	b.config.OfflineCooldownMs = ms
	return b
}

// WithDisplayIntervalMs sets the automatic advance interval.
// Use 0 to advance only on request.
func (b *ConfigBuilder) WithDisplayIntervalMs(ms int) *ConfigBuilder {
	b.config.DisplayIntervalMs = ms
	return b
}

// WithHandoffBudgets sets the primary and fallback window sizes in bytes.
func (b *ConfigBuilder) WithHandoffBudgets(primary, fallback int64) *ConfigBuilder {
	b.config.Handoff.PrimaryBytes = primary
	b.config.Handoff.FallbackBytes = fallback
	return b
}

// WithVRAMBytes sets the video memory budget.
func (b *ConfigBuilder) WithVRAMBytes(n int64) *ConfigBuilder {
	b.config.GPU.VRAMBytes = n
	return b
}

// WithUserAgent sets the User-Agent of outbound requests.
func (b *ConfigBuilder) WithUserAgent(ua string) *ConfigBuilder {
	b.config.HTTP.UserAgent = ua
	return b
}

// WithHTTPTimeoutMs sets the request timeout.
func (b *ConfigBuilder) WithHTTPTimeoutMs(ms int) *ConfigBuilder {
	b.config.HTTP.TimeoutMs = ms
	return b
}

// WithMetricsAddr sets the status server listen address.
// Use "" to disable it.
func (b *ConfigBuilder) WithMetricsAddr(addr string) *ConfigBuilder {
	b.config.MetricsAddr = addr
	return b
}

// WithLogging sets the log level and format.
func (b *ConfigBuilder) WithLogging(level, format string) *ConfigBuilder {
	if level != "" {
		b.config.LogLevel = level
	}
	if format != "" {
		b.config.LogFormat = format
	}
	return b
}

// WithDebug enables frame dumps into dir.
func (b *ConfigBuilder) WithDebug(enabled bool, dir string) *ConfigBuilder {
	b.config.Debug = enabled
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}
