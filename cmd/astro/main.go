package main

import (
	"context"
	"os"

	"github.com/felixgeelhaar/astrobridge/adapter/cli"
	"github.com/felixgeelhaar/astrobridge/internal/app"
	"github.com/felixgeelhaar/astrobridge/pkg/config"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

func main() {
	// Logs go to stderr so results on stdout stay parseable.
	logger := observability.LoggerFor("", "warn", "text", "astro", cli.Version, os.Stderr)
	cli.SetLogger(logger)

	cli.SetBootstrap(func(ctx context.Context, configFile string) (*cli.App, func(), error) {
		if configFile == "" {
			configFile = os.Getenv("ASTRO_CONFIG")
		}
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, nil, err
		}

		level := "warn"
		if cli.Verbose() {
			level = "debug"
		}
		logger := observability.LoggerFor(cfg.AppEnv, level, cfg.LogFormat, "astro", cli.Version, os.Stderr)
		cli.SetLogger(logger)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return cli.NewApp(container.Bridge, container.Journal, container.Health), container.Close, nil
	})

	cli.Execute()
}
