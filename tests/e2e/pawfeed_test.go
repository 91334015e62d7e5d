// Package e2e contains end-to-end tests for the pawfeed CLI.
// The tests only use local fixtures so they run without network access.
package e2e

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "pawfeed-test.exe"
	}
	return "pawfeed-test"
}

// getBinaryPath returns the path to execute the test binary
// If PAWFEED_BINARY env var is set, use that instead (for CI with pre-built binaries)
func getBinaryPath(t *testing.T) string {
	if path := os.Getenv("PAWFEED_BINARY"); path != "" {
		return path
	}
	return filepath.Join(getProjectRoot(t), getBinaryName())
}

// prepareBinary skips unless E2E tests are enabled and builds the CLI
// when no pre-built binary is provided.
func prepareBinary(t *testing.T) string {
	t.Helper()
	if os.Getenv("PAWFEED_E2E") != "1" {
		t.Skip("Skipping E2E test (set PAWFEED_E2E=1 to run)")
	}
	if os.Getenv("PAWFEED_BINARY") == "" {
		buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/pawfeed")
		buildCmd.Dir = getProjectRoot(t)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			t.Fatalf("Failed to build CLI: %v\n%s", err, out)
		}
		t.Cleanup(func() { os.Remove(filepath.Join(getProjectRoot(t), getBinaryName())) })
	}
	return getBinaryPath(t)
}

func run(t *testing.T, bin string, args ...string) (string, string) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), "LANG=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout.String(), stderr.String())
	}
	return stdout.String(), stderr.String()
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeGIF(t *testing.T, path string, delays []int) {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	anim := &gif.GIF{}
	for _, d := range delays {
		anim.Image = append(anim.Image, image.NewPaletted(image.Rect(0, 0, 16, 16), pal))
		anim.Delay = append(anim.Delay, d)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatal(err)
	}
}

// TestDecodeCommand decodes a local PNG
func TestDecodeCommand(t *testing.T) {
	bin := prepareBinary(t)
	path := filepath.Join(t.TempDir(), "cat.png")
	writePNG(t, path, 40, 30)

	out, _ := run(t, bin, "decode", "-Q", path)

	for _, want := range []string{"Format: png", "Size: 40x30", "Frames: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestDecodeAnimatedGIF checks frame timing normalization end to end
func TestDecodeAnimatedGIF(t *testing.T) {
	bin := prepareBinary(t)
	path := filepath.Join(t.TempDir(), "dog.gif")
	// delays are in 1/100 s; 1 is below the minimum and becomes 100 ms
	writeGIF(t, path, []int{5, 1, 10})

	out, _ := run(t, bin, "decode", "-Q", path)

	if !strings.Contains(out, "Frames: 3, Cycle: 250 ms") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

// TestRunWithFixtures takes items from the static provider and writes a summary
func TestRunWithFixtures(t *testing.T) {
	bin := prepareBinary(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 8, 8)
	writePNG(t, b, 12, 12)
	summary := filepath.Join(dir, "out", "summary.md")

	run(t, bin, "run",
		"--provider", "static",
		"--fixture", a,
		"--fixture", b,
		"--count", "3",
		"--summary", summary,
		"-Q",
	)

	data, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("Summary not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{"# Feed Summary", "| static | Online |", "8x8 png", "12x12 png"} {
		if !strings.Contains(content, want) {
			t.Errorf("summary missing %q:\n%s", want, content)
		}
	}
}

// TestDebugOutput checks that frames are dumped with --debug
func TestDebugOutput(t *testing.T) {
	bin := prepareBinary(t)
	dir := t.TempDir()
	fixture := filepath.Join(dir, "a.png")
	writePNG(t, fixture, 8, 8)
	debugDir := filepath.Join(dir, "debug")

	run(t, bin, "run", "--provider", "static", "--fixture", fixture, "--count", "1",
		"--debug", "--debug-dir", debugDir, "-Q")

	var frames int
	filepath.Walk(debugDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && strings.HasSuffix(path, ".png") {
			frames++
		}
		return nil
	})
	if frames == 0 {
		t.Error("no debug frames written")
	}
}

// TestVersionCommand tests the version flag and subcommand
func TestVersionCommand(t *testing.T) {
	bin := prepareBinary(t)

	out, _ := run(t, bin, "--version")
	if !strings.Contains(out, "pawfeed version") {
		t.Errorf("Unexpected version output: %s", out)
	}

	out, _ = run(t, bin, "version")
	if !strings.Contains(out, "pawfeed version") {
		t.Errorf("Unexpected version output: %s", out)
	}
}

func getProjectRoot(t *testing.T) string {
	// Start from current working directory and find go.mod
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
