// Package server exposes lint and check as a small JSON API.
//
// Endpoints:
//   - GET  /healthz    liveness probe
//   - POST /v1/lint    manifest text in, findings out
//   - POST /v1/check   manifest text in, index check report out
//   - GET  /v1/history recent check runs, when a history store is configured
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/config"
	"github.com/pindown/pindown/pkg/history"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/resolve"
)

const shutdownTimeout = 10 * time.Second

// chainFactory builds the index chain used to check a parsed manifest.
// Split out so tests can point checks at local fakes.
type chainFactory func(m *manifest.Manifest) *resolve.Chain

// Server is the pindown HTTP API.
type Server struct {
	addr    string
	logger  *log.Logger
	router  chi.Router
	store   history.Store
	workers int
	chains  chainFactory
}

// New creates a Server from the given configuration. The cache backend is
// shared by all index lookups; store may be nil to disable history.
func New(cfg *config.Config, logger *log.Logger, backend cache.Cache, store history.Store) *Server {
	s := &Server{
		addr:    cfg.Server.Addr,
		logger:  logger,
		store:   store,
		workers: cfg.Check.Workers,
		chains: func(m *manifest.Manifest) *resolve.Chain {
			applyIndexDefaults(m, cfg)
			return resolve.NewChainForManifest(m, backend, cfg.CacheTTL())
		},
	}
	s.router = s.routes()
	return s
}

// applyIndexDefaults fills in configured index URLs for manifests that
// carry no directives of their own.
func applyIndexDefaults(m *manifest.Manifest, cfg *config.Config) {
	if m.IndexURL == "" {
		m.IndexURL = cfg.Index.URL
	}
	if len(m.ExtraIndexURLs) == 0 {
		m.ExtraIndexURLs = cfg.Index.ExtraURLs
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/lint", s.handleLint)
		r.Post("/check", s.handleCheck)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
