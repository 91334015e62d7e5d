package statusserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/pawfeed/pkg/metrics"
	"github.com/user/pawfeed/pkg/multiplexer"
)

type fixedStatus struct {
	snap multiplexer.Snapshot
}

func (f fixedStatus) Snapshot() multiplexer.Snapshot { return f.snap }

func newTestServer(t *testing.T, status Snapshotter) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetReserve(2)

	s := New(Options{Status: status, Gatherer: reg})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}
}

func TestStatus(t *testing.T) {
	want := multiplexer.Snapshot{
		Providers: []multiplexer.ProviderStatus{
			{Name: "Shibe.online", Members: []string{"Shibe.online"}, Offline: true, Requests: 3},
		},
		QueueDepth:   5,
		Reserved:     1,
		PreloadDepth: 2,
		RAMBytes:     1024,
	}
	ts, _ := newTestServer(t, fixedStatus{snap: want})

	resp, body := get(t, ts.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got multiplexer.Snapshot
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Providers) != 1 || !got.Providers[0].Offline || got.Providers[0].Requests != 3 {
		t.Errorf("providers = %+v", got.Providers)
	}
	if got.QueueDepth != 5 || got.Reserved != 1 || got.RAMBytes != 1024 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestStatus_NoMultiplexer(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := get(t, ts.URL+"/status")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "pawfeed_") {
		t.Errorf("metrics output has no pawfeed series:\n%s", body)
	}
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://viewer.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Gatherer: prometheus.NewRegistry()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, _ := get(t, "http://"+ln.Addr().String()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
