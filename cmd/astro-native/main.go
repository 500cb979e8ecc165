// Command astro-native hosts the native library in its own process. It is
// started by the astro host through go-plugin and is not meant to be run by hand.
package main

import (
	"context"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/felixgeelhaar/astrobridge/internal/app"
	bridgegrpc "github.com/felixgeelhaar/astrobridge/internal/bridge/grpc"
	"github.com/felixgeelhaar/astrobridge/pkg/config"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

var version = "dev"

func main() {
	hlog := hclog.New(&hclog.LoggerOptions{
		Name:       "astro-native",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	cfg, err := config.Load()
	if err != nil {
		hlog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Native == config.NativePlugin {
		cfg.Native = cfg.PluginNative
	}
	// Without a terminal, go-plugin forwards stderr lines to the host logger.
	logger := observability.LoggerFor(cfg.AppEnv, cfg.LogLevel, "json", "astro-native", version, os.Stderr)

	// The host sends the kernel list through Initialize.
	container, err := app.NewContainer(context.Background(), cfg, logger, app.WithDeferredKernels())
	if err != nil {
		hlog.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	bridgegrpc.Serve(container.Bridge, hlog)
}
