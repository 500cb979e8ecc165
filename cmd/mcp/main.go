package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/astrobridge/adapter/api"
	mcplocal "github.com/felixgeelhaar/astrobridge/adapter/mcp"
	"github.com/felixgeelhaar/astrobridge/internal/app"
	mcpinternal "github.com/felixgeelhaar/astrobridge/internal/mcp"
	"github.com/felixgeelhaar/astrobridge/pkg/config"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

var version = "dev"

func main() {
	logger := observability.NewLogger(observability.DefaultLogConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.LoggerFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, "astro-mcp", version, os.Stdout)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if cfg.MetricsAddr != "" {
		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = cfg.MetricsAddr
		server := api.NewServer(serverCfg, api.NewBridgeHandler(container.Bridge, logger),
			container.Exporter.Handler(), container.Health.Handler(), logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("API server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	deps := mcplocal.ToolDependencies{
		Bridge:  container.Bridge,
		Journal: container.Journal,
		Health:  container.Health,
	}
	if err := mcpinternal.Serve(ctx, cfg, deps, version, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
