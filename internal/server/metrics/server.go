package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service can take traffic.
type ReadinessChecker func(ctx context.Context) error

// Server serves /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr       string
	log        logging.Logger
	registry   *prometheus.Registry
	metrics    *Metrics
	ready      ReadinessChecker
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a server with its own registry holding the Go runtime,
// process and authkeeper collectors. ready may be nil.
func NewServer(addr string, ready ReadinessChecker, log logging.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	return &Server{
		addr:     addr,
		log:      log.With("module", "metrics"),
		registry: registry,
		metrics:  NewMetrics(registry),
		ready:    ready,
	}
}

// Metrics returns the collectors for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	return mux
}

// Start begins serving in the background. The returned channel receives a
// serve error, if any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, errors.New("metrics server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server error", "error", err)
			errCh <- err
		}
	}()

	s.log.Info(context.Background(), "metrics server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	s.log.Info(ctx, "metrics server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.ready(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
