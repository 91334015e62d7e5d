// Package orchestrator drives an item through the decode and upload stages
// once its download has completed.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/pipeline"
	"github.com/user/pawfeed/pkg/ports"
)

// Orchestrator coordinates the execution of the item stages.
type Orchestrator struct {
	decodeStage pipeline.ItemStage
	uploadStage pipeline.ItemStage
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(decodeStage, uploadStage pipeline.ItemStage, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		decodeStage: decodeStage,
		uploadStage: uploadStage,
		logger:      logger.WithComponent("orchestrator"),
	}
}

// Prepare waits until item is downloaded and runs the remaining stages. An
// item that is already past a stage skips it. On error the item is in Error
// unless ctx was cancelled while waiting for the download.
func (o *Orchestrator) Prepare(ctx context.Context, item *media.Item) error {
	if err := item.Await(ctx, media.StateDownloaded); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	if item.State() == media.StateDownloaded {
		if _, err := o.decodeStage.Execute(ctx, item); err != nil {
			return fmt.Errorf("decode stage: %w", err)
		}
	}

	if item.State() == media.StateDecoded {
		if _, err := o.uploadStage.Execute(ctx, item); err != nil {
			return fmt.Errorf("upload stage: %w", err)
		}
	}

	switch item.State() {
	case media.StateGPUResident:
		o.logger.Debug("Item ready: %s", item)
		return nil
	case media.StateError:
		return item.Err()
	default:
		return fmt.Errorf("%w: item stopped in %s", media.ErrInvalidState, item.State())
	}
}
