// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/pawfeed/pkg/source"
)

// Config represents the full configuration for pawfeed.
type Config struct {
	// Queue bounds
	DownloadQueueDepth int `yaml:"download_queue_depth"`
	PreloadDepth       int `yaml:"preload_depth"`

	// Providers
	OfflineCooldownMs int             `yaml:"offline_cooldown_ms"`
	Providers         ProvidersConfig `yaml:"providers"`

	// Playback
	DisplayIntervalMs int         `yaml:"display_interval_ms"`
	Placeholder       ThemeConfig `yaml:"placeholder"`

	// Collaborators
	HTTP    HTTPConfig    `yaml:"http"`
	Handoff HandoffConfig `yaml:"handoff"`
	GPU     GPUConfig     `yaml:"gpu"`

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// HTTPConfig configures the outbound fetcher.
type HTTPConfig struct {
	TimeoutMs    int    `yaml:"timeout_ms"`
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// HandoffConfig sets the quiescent window budgets.
type HandoffConfig struct {
	PrimaryBytes  int64 `yaml:"primary_bytes"`
	FallbackBytes int64 `yaml:"fallback_bytes"`
}

// GPUConfig describes the in-process video memory device.
type GPUConfig struct {
	VRAMBytes     int64 `yaml:"vram_bytes"`
	MaxTextureDim int   `yaml:"max_texture_dim"`
}

// ProvidersConfig enables the built-in providers.
type ProvidersConfig struct {
	NekosLife   Toggle       `yaml:"nekos_life"`
	ShibeOnline Toggle       `yaml:"shibe_online"`
	TheCatAPI   CatAPIConfig `yaml:"the_cat_api"`
	Static      StaticConfig `yaml:"static"`
}

// Toggle enables a provider without further settings.
type Toggle struct {
	Enabled bool `yaml:"enabled"`
}

// CatAPIConfig configures TheCatAPI.
type CatAPIConfig struct {
	Enabled bool `yaml:"enabled"`
	// Breed is a breed id or name; empty means all breeds.
	Breed string `yaml:"breed"`
}

// StaticConfig configures the fixture provider.
type StaticConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Fixtures   []string `yaml:"fixtures"`
	DelayMs    int      `yaml:"delay_ms"`
	FaultEvery int      `yaml:"fault_every"`
}

// ThemeConfig represents theming options for generated placeholders.
type ThemeConfig struct {
	BackgroundColor string `yaml:"background_color"`
	TextColor       string `yaml:"text_color"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`

	// FontPath is an optional TrueType font for captions.
	FontPath string  `yaml:"font_path"`
	FontSize float64 `yaml:"font_size"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Queue bounds
		DownloadQueueDepth: 5,
		PreloadDepth:       2,

		// Providers
		OfflineCooldownMs: 60000,
		Providers: ProvidersConfig{
			NekosLife:   Toggle{Enabled: true},
			ShibeOnline: Toggle{Enabled: true},
			TheCatAPI:   CatAPIConfig{Enabled: true},
		},

		// Playback
		DisplayIntervalMs: 10000,
		Placeholder: ThemeConfig{
			BackgroundColor: "#1a1a2e",
			TextColor:       "#ffffff",
			Width:           256,
			Height:          256,
		},

		// Collaborators
		HTTP: HTTPConfig{
			TimeoutMs:    30000,
			UserAgent:    "pawfeed/1.0",
			MaxBodyBytes: 64 << 20,
		},
		Handoff: HandoffConfig{
			PrimaryBytes:  243 << 20,
			FallbackBytes: 15 << 20,
		},
		GPU: GPUConfig{
			VRAMBytes:     512 << 20,
			MaxTextureDim: 4096,
		},

		// Observability
		LogLevel:  "info",
		LogFormat: "console",

		// Debug
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the core cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DownloadQueueDepth < 1 {
		errs = append(errs, fmt.Errorf("download_queue_depth must be >= 1, got %d", c.DownloadQueueDepth))
	}
	if c.PreloadDepth < 0 {
		errs = append(errs, fmt.Errorf("preload_depth must be >= 0, got %d", c.PreloadDepth))
	}
	if c.Handoff.FallbackBytes <= 0 || c.Handoff.PrimaryBytes < c.Handoff.FallbackBytes {
		errs = append(errs, fmt.Errorf("handoff budgets must satisfy 0 < fallback_bytes <= primary_bytes"))
	}
	if c.GPU.MaxTextureDim < 1 {
		errs = append(errs, fmt.Errorf("gpu.max_texture_dim must be >= 1"))
	}
	if !c.Providers.any() {
		errs = append(errs, errors.New("no provider enabled"))
	}
	if p := c.Providers.TheCatAPI; p.Enabled {
		if _, ok := source.LookupBreed(p.Breed); !ok {
			errs = append(errs, fmt.Errorf("unknown breed %q", p.Breed))
		}
	}
	if p := c.Providers.Static; p.Enabled && len(p.Fixtures) == 0 {
		errs = append(errs, errors.New("static provider needs fixtures"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "quiet":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (p ProvidersConfig) any() bool {
	return p.NekosLife.Enabled || p.ShibeOnline.Enabled || p.TheCatAPI.Enabled || p.Static.Enabled
}

// OfflineCooldown returns the probe cooldown as a duration.
func (c Config) OfflineCooldown() time.Duration {
	return time.Duration(c.OfflineCooldownMs) * time.Millisecond
}

// DisplayInterval returns the automatic advance interval.
func (c Config) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayIntervalMs) * time.Millisecond
}

// HTTPTimeout returns the request timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutMs) * time.Millisecond
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	return color.RGBA{
		R: hexByte(hex[0], hex[1]),
		G: hexByte(hex[2], hex[3]),
		B: hexByte(hex[4], hex[5]),
		A: 255,
	}
}

func hexByte(hi, lo byte) uint8 {
	return hexValue(hi)<<4 | hexValue(lo)
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
