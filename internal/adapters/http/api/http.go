// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/featured/internal/app"
	"github.com/okian/featured/internal/domain/usage"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UpdateDependencies
	FeaturedDependencies
	StatsProvider
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)

// Snapshot mirrors the stored featured document.
type Snapshot = usage.Snapshot

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	updateHandler   *UpdateHandler
	featuredHandler *FeaturedHandler
}

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	failOnPersistError bool
}

// WithFailOnPersistError makes the update route answer 500 when the snapshot
// write fails.
func WithFailOnPersistError(fail bool) ServerOption {
	return func(o *serverOptions) {
		o.failOnPersistError = fail
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		updateHandler:   NewUpdateHandler(deps, o.failOnPersistError),
		featuredHandler: NewFeaturedHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/update-featured-repositories", MetricsMiddleware(s.updateHandler.HandleUpdate, "update"))
	mux.HandleFunc("/featured-repositories", MetricsMiddleware(s.featuredHandler.HandleGetFeatured, "featured"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
