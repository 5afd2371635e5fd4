// Package app wires the services, hub and HTTP surface together and owns
// the server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"tsprep/internal/config"
	"tsprep/internal/infrastructure"
	"tsprep/internal/middleware"
	"tsprep/internal/operations"
	"tsprep/internal/preset"
	"tsprep/internal/services"
	transporthttp "tsprep/internal/transport/http"
	"tsprep/internal/websocket"
)

// App holds the assembled application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	hub       *websocket.Hub
	providers *infrastructure.OTelProviders
	server    *http.Server
}

// New assembles the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	providers, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	store, err := preset.NewStore(cfg.Paths.PresetsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset store: %w", err)
	}

	hub := websocket.NewHub(logger)
	sink := websocket.NewSink(hub, logger)

	manager := operations.NewManager(logger, sink)
	prepSvc := services.NewPrepService(store, logger, metrics)
	opsSvc := services.NewOperationsService(manager, prepSvc, logger, metrics, cfg.Server.RunTimeout)

	router := buildRouter(cfg, logger, prepSvc, opsSvc, store, hub, providers)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return &App{
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "app")),
		hub:       hub,
		providers: providers,
		server:    server,
	}, nil
}

func buildRouter(
	cfg *config.Config,
	logger *slog.Logger,
	prepSvc *services.PrepService,
	opsSvc *services.OperationsService,
	store *preset.Store,
	hub *websocket.Hub,
	providers *infrastructure.OTelProviders,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	if cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", transporthttp.NewHealthHandler().Routes())
		r.Mount("/data", transporthttp.NewDataHandler(prepSvc, logger).Routes())
		r.Mount("/presets", transporthttp.NewPresetHandler(store, logger).Routes())
		r.Mount("/operations", transporthttp.NewOperationsHandler(opsSvc, store, logger).Routes())
	})

	r.Handle("/metrics", providers.PrometheusHTTP)

	wsHandler := transporthttp.NewWSHandler(hub, cfg.WebSocket, cfg.Security.AllowedOrigins, logger)
	r.Get("/ws", wsHandler.ServeHTTP)

	return r
}

// Run starts the hub and the HTTP server and blocks until the context is
// cancelled or the server fails. Shutdown is graceful within the
// configured timeout.
func (a *App) Run(ctx context.Context) error {
	a.hub.Start()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.Int("port", a.cfg.Server.Port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		a.hub.Stop()
		if err := a.providers.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})

	err := g.Wait()
	a.logger.Info("server stopped")
	infrastructure.CloseLogFile()
	return err
}
