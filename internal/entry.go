// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/clipman/internal/api"
	"github.com/starford/clipman/internal/clipservice"
	"github.com/starford/clipman/internal/logging"
	"github.com/starford/clipman/internal/mcpserver"
	"github.com/starford/clipman/internal/monitor"
	"github.com/starford/clipman/internal/search"
	"github.com/starford/clipman/internal/sse"
	"github.com/starford/clipman/internal/store"
)

// runtime is the wiring shared by the HTTP daemon and the MCP server.
type runtime struct {
	logger *slog.Logger
	store  *store.Store
	search *search.Hybrid
	closer io.Closer
}

func (rt *runtime) Close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Error("close store", slog.String("error", err.Error()))
	}
	_ = rt.closer.Close()
}

func setup(ctx context.Context, app *application, defaultConsole io.Writer) (*runtime, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	console := app.console
	if console == nil {
		console = defaultConsole
	}
	logger, closer := logging.New(cfg.App.Logging(), console)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("search_capacity", cfg.Search.Capacity),
		slog.Bool("monitor_enabled", cfg.Monitor.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	hs := search.NewHybrid(st, cfg.Search.Capacity, logging.ForComponent(logger, logging.CompSearch))
	if cfg.Search.WarmOnStart {
		if _, err := hs.Warm(ctx); err != nil {
			logger.Warn("prefix index warm-up failed", slog.String("error", err.Error()))
		}
	}

	return &runtime{logger: logger, store: st, search: hs, closer: closer}, nil
}

// newSource picks the clipboard source for the monitor.
func newSource(cfg MonitorConfig) (monitor.Source, monitor.Writer, []monitor.Option) {
	opts := []monitor.Option{monitor.WithInterval(cfg.Interval)}
	if cfg.Source == SourceFile {
		src := monitor.FileSource{Path: cfg.FilePath}
		return src, src, append(opts, monitor.WithWatchFile(cfg.FilePath, cfg.Burst))
	}
	return monitor.SystemClipboard{}, monitor.SystemClipboard{}, opts
}

// Run starts the HTTP daemon and the clipboard monitor.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := setup(ctx, app, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := app.config
	logger := rt.logger

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	src, writer, monitorOpts := newSource(cfg.Monitor)
	state := monitor.NewState()

	svcOpts := []clipservice.Option{
		clipservice.WithLogger(logger),
		clipservice.WithClipboard(writer),
		clipservice.WithEventCallback(broker.PublishEntryEvent),
	}
	var routerState *monitor.State
	if cfg.Monitor.Enabled {
		svcOpts = append(svcOpts, clipservice.WithMonitorState(state))
		routerState = state
	}
	svc := clipservice.NewService(rt.store, rt.search, svcOpts...)

	apiRouter := api.NewRouter(svc, routerState, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		entries, err := rt.store.Count(req.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"entries": entries,
			"indexed": svc.IndexSize(),
			"clients": broker.ClientCount(),
		})
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Monitor.Enabled {
		mon := monitor.New(src, svc, state, logging.ForComponent(logger, logging.CompMonitor), monitorOpts...)
		g.Go(func() error {
			if err := mon.Run(gCtx); err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Unblock the monitor even when only a signal arrived.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := setup(ctx, app, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := clipservice.NewService(rt.store, rt.search,
		clipservice.WithLogger(logging.ForComponent(rt.logger, logging.CompMCP)))

	version := app.version
	if version == "" {
		version = "dev"
	}
	rt.logger.Info("Starting MCP server on stdio", slog.String("version", version))
	return mcpserver.New(svc, version).ServeStdio()
}
