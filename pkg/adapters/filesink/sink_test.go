package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/pawfeed/pkg/mocks"
	"github.com/user/pawfeed/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func pngRenderer() *mocks.Renderer {
	return &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				return nil, errors.New("expected PNG")
			}
			return []byte{0x89, 0x50, 0x4E, 0x47}, nil
		},
	}
}

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveItemJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"id": "abc"}`)
	if err := sink.SaveItemJSON("abc", data); err != nil {
		t.Fatalf("SaveItemJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "abc", "item.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, pngRenderer())

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := sink.SaveFrame("abc", 5, img); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "abc", "frames", "frame-0005.png")
	if _, ok := fs.GetFile(expectedPath); !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
}

func TestSink_SaveFrameEncodeError(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(image.Image, ports.ImageFormat, int) ([]byte, error) {
			return nil, errors.New("encoder broken")
		},
	}
	sink := New(testBaseDir, mocks.NewFileSystem(), renderer)

	if err := sink.SaveFrame("abc", 0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
}

func TestSink_MultipleFrames(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, pngRenderer())

	for i := 0; i < 10; i++ {
		if err := sink.SaveFrame("abc", i, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
			t.Fatalf("SaveFrame %d failed: %v", i, err)
		}
	}

	paths := fs.Paths()
	if len(paths) != 10 {
		t.Fatalf("expected 10 files, got %d", len(paths))
	}
	if want := filepath.Join(testBaseDir, "abc", "frames", "frame-0009.png"); paths[9] != want {
		t.Errorf("last frame at %s, want %s", paths[9], want)
	}
	if ok, _ := fs.Exists(filepath.Join(testBaseDir, "abc", "frames")); !ok {
		t.Error("expected the frames directory to exist")
	}
}
