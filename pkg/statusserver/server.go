// Package statusserver exposes the feed state over HTTP: a liveness probe,
// a JSON snapshot of the multiplexer and the prometheus metrics.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/pawfeed/pkg/adapters/logger"
	"github.com/user/pawfeed/pkg/multiplexer"
	"github.com/user/pawfeed/pkg/ports"
)

const shutdownTimeout = 5 * time.Second

// Snapshotter reports the multiplexer state.
type Snapshotter interface {
	Snapshot() multiplexer.Snapshot
}

// Options configures a Server.
type Options struct {
	Addr     string
	Status   Snapshotter
	Gatherer prometheus.Gatherer
	Logger   ports.Logger
}

// Server serves the status endpoints.
type Server struct {
	addr   string
	status Snapshotter
	logger ports.Logger
	router chi.Router
}

// New creates a Server. A nil Gatherer serves the default registry.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		addr:   opts.Addr,
		status: opts.Status,
		logger: opts.Logger.WithComponent("status"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Get("/status", s.snapshot)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("Status server listening on %s", ln.Addr())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.Error(w, `{"error":"no multiplexer attached"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.Snapshot()); err != nil {
		s.logger.Warn("Failed to encode status: %v", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
