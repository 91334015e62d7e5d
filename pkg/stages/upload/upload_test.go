package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/pawfeed/pkg/media"
	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/mocks"
	"github.com/user/pawfeed/pkg/ports"
)

func decoded(t *testing.T) *media.Item {
	t.Helper()
	item := media.FromBytes([]byte("x"))
	if err := item.Decode(context.Background(), &mocks.Decoder{Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestStage_Execute(t *testing.T) {
	gfx := mocks.NewGraphics()
	q := &mocks.Quiescer{}
	stage := NewStage(gfx, q, mocks.NewLogger(), nil)

	item := decoded(t)
	if _, err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.State() != media.StateGPUResident {
		t.Errorf("expected GPUResident, got %s", item.State())
	}
	if gfx.Live() != 1 || q.Entered() != 1 {
		t.Errorf("expected 1 texture and 1 window, got %d/%d", gfx.Live(), q.Entered())
	}
}

func TestStage_CountsCause(t *testing.T) {
	gfx := mocks.NewGraphics()
	gfx.UploadPixelsFunc = func(px []byte, w, h, c int) (ports.Texture, error) {
		return nil, ports.ErrOutOfMemory
	}
	m := metrics.New(prometheus.NewRegistry())
	logger := mocks.NewLogger()
	stage := NewStage(gfx, &mocks.Quiescer{}, logger, m)

	_, err := stage.Execute(context.Background(), decoded(t))
	if !errors.Is(err, media.ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if got := testutil.ToFloat64(m.UploadErrorsTotal.WithLabelValues("out-of-memory")); got != 1 {
		t.Errorf("expected 1 out-of-memory error, got %v", got)
	}
	if !logger.Contains(ports.LevelError, "out-of-memory") {
		t.Error("expected the cause in the error log")
	}
}
