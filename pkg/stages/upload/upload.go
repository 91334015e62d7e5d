// Package upload implements the stage that hands decoded frames to the GPU.
package upload

import (
	"context"
	"time"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/ports"
)

// Stage uploads a Decoded item, one quiescent window per frame.
type Stage struct {
	gfx     ports.Graphics
	region  ports.Quiescer
	logger  ports.Logger
	metrics *metrics.Collectors
}

// NewStage creates a new upload stage.
func NewStage(gfx ports.Graphics, region ports.Quiescer, logger ports.Logger, m *metrics.Collectors) *Stage {
	return &Stage{
		gfx:     gfx,
		region:  region,
		logger:  logger.WithComponent("upload"),
		metrics: m,
	}
}

// Execute uploads item in place and returns it.
func (s *Stage) Execute(ctx context.Context, item *media.Item) (*media.Item, error) {
	start := time.Now()
	if err := item.UploadToGPU(ctx, s.gfx, s.region); err != nil {
		if cause, ok := media.UploadCauseOf(err); ok {
			s.metrics.UploadFailed(cause.String())
			s.logger.Error("Upload failed for %s (%s): %v", item.ID(), cause, err)
		} else {
			s.logger.Warn("Upload aborted for %s: %v", item.ID(), err)
		}
		return item, err
	}
	s.metrics.ObserveStage("upload", time.Since(start))
	s.logger.Debug("Uploaded %s: %s of textures", item.ID(), media.FormatBytes(item.VRAMUsage()))
	return item, nil
}
