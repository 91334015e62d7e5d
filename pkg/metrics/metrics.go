// Package metrics defines the prometheus collectors exported by pawfeed.
//
// A nil *Collectors is valid and records nothing, so components can take
// one unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pawfeed"

// Collectors groups every pawfeed metric registered on one registry.
type Collectors struct {
	// Gauges
	DownloadsInFlight prometheus.Gauge
	ReserveDepth      prometheus.Gauge
	RAMBytes          prometheus.Gauge
	VRAMBytes         prometheus.Gauge
	ProviderOffline   *prometheus.GaugeVec

	// Counters
	ItemsTotal        *prometheus.CounterVec
	ProviderRequests  *prometheus.CounterVec
	UploadErrorsTotal *prometheus.CounterVec
	RegionGrantsTotal *prometheus.CounterVec
	ExhaustedTotal    prometheus.Counter

	// Histograms
	PrepareDuration *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		DownloadsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_flight",
			Help:      "Number of items currently holding a download slot",
		}),
		ReserveDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reserve_depth",
			Help:      "Number of GPU resident items kept ready ahead of display",
		}),
		RAMBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ram_bytes",
			Help:      "Encoded bytes held by tracked items",
		}),
		VRAMBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vram_bytes",
			Help:      "Pixel bytes held by tracked items",
		}),
		ProviderOffline: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_offline",
			Help:      "1 when the provider is marked offline",
		}, []string{"provider"}),

		ItemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items handed out by the multiplexer, by final state",
		}, []string{"state"}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Next calls issued to each provider",
		}, []string{"provider"}),
		UploadErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_errors_total",
			Help:      "GPU upload failures by cause",
		}, []string{"cause"}),
		RegionGrantsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_windows_total",
			Help:      "Quiescent windows granted, by budget",
		}, []string{"budget"}),
		ExhaustedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exhausted_total",
			Help:      "Requests answered with the fallback item because every provider failed",
		}),

		PrepareDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_ms",
			Help:      "Stage duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"stage"}),
	}
}

// SetDownloads records the number of active download slots.
func (c *Collectors) SetDownloads(n int) {
	if c == nil {
		return
	}
	c.DownloadsInFlight.Set(float64(n))
}

// SetReserve records the number of ready items.
func (c *Collectors) SetReserve(n int) {
	if c == nil {
		return
	}
	c.ReserveDepth.Set(float64(n))
}

// SetMemory records RAM and VRAM usage.
func (c *Collectors) SetMemory(ram, vram int64) {
	if c == nil {
		return
	}
	c.RAMBytes.Set(float64(ram))
	c.VRAMBytes.Set(float64(vram))
}

// SetOffline records the offline flag of a provider.
func (c *Collectors) SetOffline(provider string, offline bool) {
	if c == nil {
		return
	}
	v := 0.0
	if offline {
		v = 1
	}
	c.ProviderOffline.WithLabelValues(provider).Set(v)
}

// ItemFinished counts an item by the state it settled in.
func (c *Collectors) ItemFinished(state string) {
	if c == nil {
		return
	}
	c.ItemsTotal.WithLabelValues(state).Inc()
}

// ProviderRequested counts one Next call on provider.
func (c *Collectors) ProviderRequested(provider string) {
	if c == nil {
		return
	}
	c.ProviderRequests.WithLabelValues(provider).Inc()
}

// UploadFailed counts a GPU upload failure.
func (c *Collectors) UploadFailed(cause string) {
	if c == nil {
		return
	}
	c.UploadErrorsTotal.WithLabelValues(cause).Inc()
}

// WindowGranted counts a quiescent window grant.
func (c *Collectors) WindowGranted(fallback bool) {
	if c == nil {
		return
	}
	budget := "primary"
	if fallback {
		budget = "fallback"
	}
	c.RegionGrantsTotal.WithLabelValues(budget).Inc()
}

// Exhausted counts a fallback answer.
func (c *Collectors) Exhausted() {
	if c == nil {
		return
	}
	c.ExhaustedTotal.Inc()
}

// ObserveStage records how long a stage took.
func (c *Collectors) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.PrepareDuration.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}
