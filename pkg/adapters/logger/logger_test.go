package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/pawfeed/pkg/ports"
)

func TestConsoleLogger_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewConsoleWriter(ports.LevelInfo, &out, &errOut)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Warn("careful %d", 3)
	l.Error("broken %d", 4)

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("expected info on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "careful 3") || !strings.Contains(errOut.String(), "broken 4") {
		t.Errorf("expected warn and error on stderr, got %q", errOut.String())
	}
}

func TestConsoleLogger_Component(t *testing.T) {
	var out bytes.Buffer
	l := NewConsoleWriter(ports.LevelDebug, &out, &out).WithComponent("multiplexer")

	l.Info("hello")

	if got := out.String(); got != "[multiplexer] hello\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out bytes.Buffer
	l := NewConsoleWriter(ports.LevelQuiet, &out, &out)

	l.Error("nothing")

	if out.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got %q", out.String())
	}
}

func TestZapLogger_Component(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).WithComponent("source")

	l.Warn("provider %s offline", "shibe")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "provider shibe offline" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].ContextMap()["component"] != "source" {
		t.Errorf("expected component field, got %v", entries[0].ContextMap())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]ports.LogLevel{
		"debug": ports.LevelDebug,
		"warn":  ports.LevelWarn,
		"quiet": ports.LevelQuiet,
		"bogus": ports.LevelInfo,
	}
	for in, want := range tests {
		if got := ports.ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
