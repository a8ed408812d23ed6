// Package health exposes HTTP endpoints for liveness, diagnostics and
// Prometheus metrics.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planwise/authguard/internal/alerting"
	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/errlog"
	"github.com/planwise/authguard/internal/monitor"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	monitor *monitor.Monitor
	logger  *errlog.Logger
	engine  *alerting.Engine
	server  *http.Server
}

// NewServer creates a new health server.
func NewServer(m *monitor.Monitor, logger *errlog.Logger, engine *alerting.Engine, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: m,
		logger:  logger,
		engine:  engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.monitor.Status()

	response := map[string]string{"status": string(status)}
	w.Header().Set("Content-Type", "application/json")

	if status == domain.StatusDisconnected {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	result := s.monitor.CheckConnectivity(r.Context())

	report := map[string]any{
		"status":     string(result.Status),
		"latency_ms": result.Latency.Milliseconds(),
		"quality":    string(s.monitor.AssessQuality(result.Latency)),
		"checked_at": result.Timestamp.Format(time.RFC3339),
	}
	if result.Err != nil {
		report["error"] = result.Err.Error()
	}
	if s.logger != nil {
		snap := s.logger.Snapshot()
		report["errors"] = map[string]any{
			"total":       snap.TotalErrors,
			"by_severity": snap.BySeverity,
		}
	}
	if s.engine != nil {
		report["recent_alerts"] = s.engine.History()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
