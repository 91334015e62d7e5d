// Package summarizer renders a human readable report of a feed session:
// the multiplexer state at the end of the run and every item taken.
package summarizer

import (
	"time"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/multiplexer"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	// Run configuration
	Settings Settings `json:"settings"`

	// Provider state at the end of the run
	Providers []ProviderInfo `json:"providers"`

	// Queue and reserve occupancy
	Queue QueueInfo `json:"queue"`

	// Memory held by tracked items
	Usage UsageInfo `json:"usage"`

	// Items taken during the run, in order
	Items []ItemInfo `json:"items"`
}

// Settings contains the run configuration.
type Settings struct {
	Preset             string `json:"preset"`
	DownloadQueueDepth int    `json:"download_queue_depth"`
	PreloadDepth       int    `json:"preload_depth"`
	DisplayIntervalMs  int    `json:"display_interval_ms"`
}

// ProviderInfo describes one provider group.
type ProviderInfo struct {
	Name     string   `json:"name"`
	Members  []string `json:"members,omitempty"`
	Offline  bool     `json:"offline"`
	Requests int64    `json:"requests"`
}

// QueueInfo contains queue occupancy.
type QueueInfo struct {
	InFlight int `json:"in_flight"`
	Reserved int `json:"reserved"`
	Tracked  int `json:"tracked"`
}

// UsageInfo contains memory usage in bytes.
type UsageInfo struct {
	RAMBytes  int64 `json:"ram_bytes"`
	VRAMBytes int64 `json:"vram_bytes"`
}

// ItemInfo describes one item taken from the feed.
type ItemInfo struct {
	Creator   string `json:"creator"`
	SourceURL string `json:"source_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Frames    int    `json:"frames"`
	CycleMs   int    `json:"cycle_ms"`
	WaitMs    int64  `json:"wait_ms"`
	Error     string `json:"error,omitempty"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets the run configuration.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithSnapshot copies provider, queue and usage information from snap.
func (b *Builder) WithSnapshot(snap multiplexer.Snapshot) *Builder {
	b.summary.Providers = b.summary.Providers[:0]
	for _, p := range snap.Providers {
		b.summary.Providers = append(b.summary.Providers, ProviderInfo{
			Name:     p.Name,
			Members:  append([]string(nil), p.Members...),
			Offline:  p.Offline,
			Requests: p.Requests,
		})
	}
	b.summary.Queue = QueueInfo{
		InFlight: snap.InFlight,
		Reserved: snap.Reserved,
		Tracked:  snap.Tracked,
	}
	b.summary.Usage = UsageInfo{
		RAMBytes:  snap.RAMBytes,
		VRAMBytes: snap.VRAMBytes,
	}
	return b
}

// AddItem records an item taken after waiting wait. err is the error Take
// returned alongside it, if any.
func (b *Builder) AddItem(item *media.Item, wait time.Duration, err error) *Builder {
	info := ItemInfo{WaitMs: wait.Milliseconds()}
	if err != nil {
		info.Error = err.Error()
	}
	if item != nil {
		meta := item.Metadata()
		info.Creator = meta.Creator
		info.SourceURL = meta.SourceURL
		info.Format = item.Format()
		info.Width, info.Height = item.Size()
		info.Frames = item.FrameCount()
		info.CycleMs = item.CycleMs()
		if info.Error == "" && item.Err() != nil {
			info.Error = item.Err().Error()
		}
	}
	b.summary.Items = append(b.summary.Items, info)
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
