// Package ui provides the HTTP server of the explorer.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dysregnet/dysregnet-explorer/internal/cache"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	referencesFeature "github.com/dysregnet/dysregnet-explorer/internal/ui/features/references"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/notifier"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/router"
)

// Server is the explorer HTTP server.
type Server struct {
	deps     *common.Deps
	gatherer prometheus.Gatherer
	port     int
	watchDir string
	logger   *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Catalog   *reference.Catalog
	Loader    *table.Loader
	Runner    session.Runner
	Cache     *cache.ResultCache
	Graph     *graphdb.Store
	Assembler *neighborhood.Assembler
	Gatherer  prometheus.Gatherer
	Port      int
	// WatchDir enables catalog refreshes when the reference directory changes.
	WatchDir      string
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	notify := notifier.New()
	deps := &common.Deps{
		Catalog: cfg.Catalog,
		Loader:  cfg.Loader,
		Sessions: session.NewManager(session.Config{
			Runner:    cfg.Runner,
			Cache:     cfg.Cache,
			Publisher: notify,
			Logger:    logger,
		}),
		Cache:        cfg.Cache,
		Graph:        cfg.Graph,
		Assembler:    cfg.Assembler,
		Notifier:     notify,
		SessionStore: sessionStore,
		Logger:       logger,
	}

	return &Server{
		deps:     deps,
		gatherer: cfg.Gatherer,
		port:     cfg.Port,
		watchDir: cfg.WatchDir,
		logger:   logger,
	}
}

// Handler builds the routed handler with middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.deps, s.gatherer); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the server and blocks until the context is cancelled.
// Running analyses are cancelled on shutdown.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start reference directory watcher if enabled
	if s.watchDir != "" && s.deps.Catalog != nil {
		eg.Go(func() error {
			err := s.deps.Catalog.Watch(egctx, s.watchDir, func(opts []reference.Option) {
				s.logger.Info("reference options changed", "count", len(opts))
				s.deps.Notifier.Broadcast(referencesFeature.Topic)
			})
			if err != nil {
				// Don't fail - continue without watching
				s.logger.Error("failed to watch reference directory", "error", err)
			}
			return nil
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		s.deps.Sessions.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Sessions returns the server's session manager.
func (s *Server) Sessions() *session.Manager {
	return s.deps.Sessions
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.deps.Notifier
}
