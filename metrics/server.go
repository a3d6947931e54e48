package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Path serves the Prometheus exposition format.
	Path = "/metrics"

	// DuplicationsPath lists table pairs and whether their triggers are installed.
	DuplicationsPath = "/duplications"
)

const duplicationActiveName = "pupsourcing_tablesync_duplication_active"

// DuplicationState is the last known trigger state of a table pair.
type DuplicationState struct {
	OldModel string
	NewModel string
	Active   bool
}

// ActiveDuplications reads the duplication gauge from a gatherer.
// Pairs are returned in label order.
func ActiveDuplications(g prometheus.Gatherer) ([]DuplicationState, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var states []DuplicationState
	for _, family := range families {
		if family.GetName() != duplicationActiveName {
			continue
		}
		for _, m := range family.GetMetric() {
			state := DuplicationState{Active: m.GetGauge().GetValue() == 1}
			for _, label := range m.GetLabel() {
				switch label.GetName() {
				case "old_model":
					state.OldModel = label.GetValue()
				case "new_model":
					state.NewModel = label.GetValue()
				}
			}
			states = append(states, state)
		}
	}
	return states, nil
}

// Server provides an optional HTTP server for metrics and duplication state.
// Use this only if the host process does not already expose metrics.
type Server struct {
	server   *http.Server
	gatherer prometheus.Gatherer
	errChan  chan error
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a metrics server on the specified address.
// Example address: ":9090" or "localhost:9090"
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		gatherer: prometheus.DefaultGatherer,
		errChan:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc(DuplicationsPath, s.handleDuplications)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start binds the address and serves in a goroutine. Bind failures are
// returned; later serve failures are reported by Err.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errChan <- err
		}
	}()
	return nil
}

// Err returns any error that occurred while serving.
// It does not block.
func (s *Server) Err() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleDuplications writes one "old -> new: active|released" line per pair.
func (s *Server) handleDuplications(w http.ResponseWriter, r *http.Request) {
	states, err := ActiveDuplications(s.gatherer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, state := range states {
		status := "released"
		if state.Active {
			status = "active"
		}
		fmt.Fprintf(w, "%s -> %s: %s\n", state.OldModel, state.NewModel, status)
	}
}
