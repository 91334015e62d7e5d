// Package decode implements the stage that turns downloaded bytes into frames.
package decode

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/ports"
)

// Stage decodes a Downloaded item. When the debug sink is enabled every
// decoded frame and an item record are dumped.
type Stage struct {
	decoder ports.ImageDecoder
	sink    ports.DebugSink
	logger  ports.Logger
	metrics *metrics.Collectors
}

// NewStage creates a new decode stage.
func NewStage(decoder ports.ImageDecoder, sink ports.DebugSink, logger ports.Logger, m *metrics.Collectors) *Stage {
	return &Stage{
		decoder: decoder,
		sink:    sink,
		logger:  logger.WithComponent("decode"),
		metrics: m,
	}
}

// Execute decodes item in place and returns it.
func (s *Stage) Execute(ctx context.Context, item *media.Item) (*media.Item, error) {
	start := time.Now()
	if err := item.Decode(ctx, s.decoder); err != nil {
		s.logger.Warn("Decode failed for %s: %v", item.ID(), err)
		return item, err
	}
	s.metrics.ObserveStage("decode", time.Since(start))

	w, h := item.Size()
	s.logger.Debug("Decoded %s: %dx%d %s, %d frames, cycle %d ms", item.ID(), w, h, item.Format(), item.FrameCount(), item.CycleMs())

	if s.sink != nil && s.sink.Enabled() {
		s.dump(item)
	}
	return item, nil
}

// Record is the JSON description of an item written to the debug sink.
type Record struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	Frames      []int  `json:"frameDurationsMs"`
	CycleMs     int    `json:"cycleMs"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	Description string `json:"description,omitempty"`
	DebugInfo   string `json:"debugInfo,omitempty"`
	Creator     string `json:"creator,omitempty"`
}

func (s *Stage) dump(item *media.Item) {
	id := item.ID().String()
	w, h := item.Size()
	meta := item.Metadata()
	rec := Record{
		ID:          id,
		State:       item.State().String(),
		Width:       w,
		Height:      h,
		Format:      item.Format(),
		CycleMs:     item.CycleMs(),
		SourceURL:   meta.SourceURL,
		Description: meta.Description,
		DebugInfo:   meta.DebugInfo,
		Creator:     meta.Creator,
	}

	item.EachFrame(func(i int, f *media.Frame) {
		rec.Frames = append(rec.Frames, f.DurationMs())
		px := f.Pixels()
		if len(px) != w*h*4 {
			return
		}
		img := &image.RGBA{Pix: px, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
		if err := s.sink.SaveFrame(id, i, img); err != nil {
			s.logger.Warn("Failed to save debug frame %d of %s: %v", i, id, err)
		}
	})

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		s.logger.Warn("Failed to encode debug record for %s: %v", id, err)
		return
	}
	if err := s.sink.SaveItemJSON(id, data); err != nil {
		s.logger.Warn("Failed to save debug record for %s: %v", id, err)
	}
}
