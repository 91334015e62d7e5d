package summarizer

import (
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Settings: Settings{
			Preset:             "default",
			DownloadQueueDepth: 5,
			PreloadDepth:       2,
			DisplayIntervalMs:  10000,
		},
		Providers: []ProviderInfo{
			{Name: "NekosLife", Members: []string{"NekosLife"}, Requests: 7},
			{Name: "Shibe.online", Members: []string{"Shibe.online"}, Offline: true, Requests: 3},
		},
		Queue: QueueInfo{InFlight: 1, Reserved: 2, Tracked: 3},
		Usage: UsageInfo{RAMBytes: 1024 * 1024, VRAMBytes: 3 * 1024 * 1024},
		Items: []ItemInfo{
			{Creator: "NekosLife", SourceURL: "https://cdn/a.gif", Format: "gif", Width: 320, Height: 240, Frames: 12, CycleMs: 1200, WaitMs: 85},
			{Creator: "pawfeed", Error: "all providers exhausted", Frames: 1},
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Feed Summary",
		"2024-01-15 10:30:00",
		"| Download Queue Depth | 5 |",
		"| Preload Depth | 2 |",
		"| Display Interval | 10000 ms |",
		"| NekosLife | Online | 7 |",
		"| Shibe.online | Offline | 3 |",
		"Reserved: 2",
		"RAM: 1.00 MB",
		"VRAM: 3.00 MB",
		"320x240 gif",
		"12 (1200 ms)",
		"85 ms",
		"https://cdn/a.gif",
		"Error: all providers exhausted",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q\n%s", check, result)
		}
	}
}

func TestMarkdownFormatter_NoProviders(t *testing.T) {
	result := NewMarkdownFormatter().Format(&Summary{GeneratedAt: time.Now()})

	if !strings.Contains(result, "No providers registered.") {
		t.Error("expected empty provider notice")
	}
	if strings.Contains(result, "## Items") {
		t.Error("items section should be omitted without items")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Feed Summary": "フィードサマリー",
			"Providers":    "プロバイダー",
			"Offline":      "オフライン",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	for _, want := range []string{"フィードサマリー", "プロバイダー", "オフライン"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected translated %q", want)
		}
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatFunc(t *testing.T) {
	var f Formatter = FormatFunc(func(s *Summary) string { return s.Settings.Preset })
	if got := f.Format(sampleSummary()); got != "default" {
		t.Errorf("got %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
