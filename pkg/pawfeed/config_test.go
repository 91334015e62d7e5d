package pawfeed

import (
	"testing"
)

func TestConfigBuilder_Defaults(t *testing.T) {
	cfg := NewConfigBuilder().Build()

	if cfg.DownloadQueueDepth != 5 {
		t.Errorf("DownloadQueueDepth = %d, want 5", cfg.DownloadQueueDepth)
	}
	if cfg.PreloadDepth != 2 {
		t.Errorf("PreloadDepth = %d, want 2", cfg.PreloadDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigBuilder_Clamps(t *testing.T) {
	cfg := NewConfigBuilder().
		WithDownloadQueueDepth(0).
		WithPreloadDepth(-3).
		Build()

	if cfg.DownloadQueueDepth != 1 {
		t.Errorf("DownloadQueueDepth = %d, want 1", cfg.DownloadQueueDepth)
	}
	if cfg.PreloadDepth != 0 {
		t.Errorf("PreloadDepth = %d, want 0", cfg.PreloadDepth)
	}
}

func TestConfigBuilder_LowMemory(t *testing.T) {
	cfg := NewPresetBuilder(PresetLowMemory).Build()

	if cfg.DownloadQueueDepth != 2 || cfg.PreloadDepth != 1 {
		t.Errorf("queue = %d/%d, want 2/1", cfg.DownloadQueueDepth, cfg.PreloadDepth)
	}
	if cfg.Handoff.PrimaryBytes != cfg.Handoff.FallbackBytes {
		t.Errorf("low memory preset should only use the fallback budget, got %d/%d",
			cfg.Handoff.PrimaryBytes, cfg.Handoff.FallbackBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestConfigBuilder_UnknownPreset(t *testing.T) {
	cfg := NewPresetBuilder("turbo").Build()
	if cfg.DownloadQueueDepth != 5 {
		t.Errorf("unknown preset should use defaults, got depth %d", cfg.DownloadQueueDepth)
	}
}

func TestConfigBuilder_OnlyProviders(t *testing.T) {
	cfg := NewConfigBuilder().
		WithOnlyProviders(ProviderTheCatAPI).
		WithBreed("Bengal").
		Build()

	p := cfg.Providers
	if p.NekosLife.Enabled || p.ShibeOnline.Enabled || p.Static.Enabled {
		t.Errorf("only TheCatAPI should be enabled: %+v", p)
	}
	if !p.TheCatAPI.Enabled || p.TheCatAPI.Breed != "Bengal" {
		t.Errorf("TheCatAPI = %+v", p.TheCatAPI)
	}
}

func TestConfigBuilder_StaticFixtures(t *testing.T) {
	cfg := NewConfigBuilder().
		WithStaticFixtures([]string{"a.png"}, 50, 10).
		Build()

	s := cfg.Providers.Static
	if !s.Enabled || len(s.Fixtures) != 1 || s.DelayMs != 50 || s.FaultEvery != 10 {
		t.Errorf("Static = %+v", s)
	}
}

func TestConfigBuilder_FromConfig(t *testing.T) {
	base := NewConfigBuilder().WithUserAgent("base/1").Build()
	cfg := FromConfig(base).WithHTTPTimeoutMs(500).WithLogging("debug", "json").Build()

	if cfg.HTTP.UserAgent != "base/1" {
		t.Errorf("UserAgent = %q", cfg.HTTP.UserAgent)
	}
	if cfg.HTTP.TimeoutMs != 500 {
		t.Errorf("TimeoutMs = %d", cfg.HTTP.TimeoutMs)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}
