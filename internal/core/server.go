// Package core is the HTTP chassis: a chi router with the cross-cutting
// middleware (panic recovery, request ids, logging, compression, timeouts)
// that every handler runs behind.
package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"surfalert/internal/config"
)

// RouteRegistrar mounts a group of routes. Handler packages provide these so
// core does not import them.
type RouteRegistrar func(r chi.Router)

// Server holds the router and the dependencies middleware needs.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	HealthProbes []HealthProbe

	// V1RouteRegistrars are mounted under /v1; AdminRouteRegistrars under
	// /v1/admin behind the admin key check.
	V1RouteRegistrars    []RouteRegistrar
	AdminRouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer creates a Server. Routes are mounted separately by MountRoutes
// so callers can register handlers first.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}
