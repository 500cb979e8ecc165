package cli

import (
	"context"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/journal"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	Bridge  sdk.Bridge
	Journal *journal.Journal
	Health  *observability.HealthRegistry
}

// NewApp creates a new CLI application. journal and health may be nil.
func NewApp(bridge sdk.Bridge, journal *journal.Journal, health *observability.HealthRegistry) *App {
	return &App{Bridge: bridge, Journal: journal, Health: health}
}

// Bootstrap builds the App for a command. The returned func releases it.
type Bootstrap func(ctx context.Context, configFile string) (*App, func(), error)

var (
	app       *App
	bootstrap Bootstrap
	release   func()
)

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// SetBootstrap installs the function that builds the App on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}
