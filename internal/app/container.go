// Package app wires configuration into a ready bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/cache"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/journal"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/loader"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/ops"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/felixgeelhaar/astrobridge/internal/native/emulated"
	"github.com/felixgeelhaar/astrobridge/internal/native/spice"
	"github.com/felixgeelhaar/astrobridge/pkg/config"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Bridge is the call surface. It is the local executor, or the remote
	// native host behind a circuit breaker.
	Bridge sdk.Bridge

	// Executor is nil when the native library runs out of process.
	Executor *runtime.Executor

	Metrics  *runtime.MetricsCollector
	Exporter *runtime.Exporter
	Cache    *cache.Cache
	Journal  *journal.Journal
	Health   *observability.HealthRegistry

	loader       *loader.Loader
	deferKernels bool
}

// Option configures a Container.
type Option func(*Container)

// WithDeferredKernels leaves the bridge uninitialized so that a caller can
// send the kernel list later. The native plugin process uses it: its host
// initializes it over the wire.
func WithDeferredKernels() Option {
	return func(c *Container) {
		c.deferKernels = true
	}
}

// NewContainer builds the bridge described by cfg and loads its kernels.
// No configured kernels means an empty load: time conversions work, while
// ephemeris calls fail in the native library.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: runtime.NewMetricsCollector(),
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	exporter, err := runtime.NewExporter()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}
	c.Exporter = exporter
	c.Metrics.WithExporter(exporter)

	if cfg.JournalPath != "" {
		j, err := journal.Open(ctx, cfg.JournalPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		c.Journal = j
	}

	if err := c.initCache(); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Native == config.NativePlugin {
		err = c.initRemote(ctx)
	} else {
		err = c.initLocal()
	}
	if err != nil {
		c.Close()
		return nil, err
	}

	c.registerHealthChecks()

	if !c.deferKernels {
		if err := c.Bridge.Initialize(ctx, KernelTerms(cfg.Kernels)); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to load kernels: %w", err)
		}
		logger.Info("kernels loaded", "count", len(cfg.Kernels))
	}

	return c, nil
}

func (c *Container) initCache() error {
	var store cache.Store
	switch c.Config.Cache {
	case config.CacheMemory:
		store = cache.NewMemoryStore(c.Config.CacheSize)
	case config.CacheRedis:
		rs, err := cache.NewRedisStore(c.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to configure Redis cache: %w", err)
		}
		store = rs
	default:
		return nil
	}
	c.Cache = cache.New(store, c.Config.CacheTTL, c.Logger)
	c.Logger.Info("result cache enabled", "backend", c.Config.Cache)
	return nil
}

func (c *Container) initLocal() error {
	lib, err := openLibrary(c.Config)
	if err != nil {
		return err
	}

	table, err := ops.NewTable(c.Logger)
	if err != nil {
		return fmt.Errorf("failed to build operation table: %w", err)
	}

	gate := native.NewGate(lib)
	kernels := kernel.NewRegistry(gate, c.Logger)

	opts := []runtime.Option{runtime.WithMetrics(c.Metrics)}
	if c.Cache != nil {
		opts = append(opts, runtime.WithCache(c.Cache))
	}
	if c.Journal != nil {
		kernels.OnLoad(c.Journal.RecordLoad)
		opts = append(opts, runtime.WithRecorder(c.Journal))
	}

	c.Executor = runtime.NewExecutor(table, gate, kernels, c.Logger, opts...)
	c.Bridge = c.Executor
	c.Logger.Info("native library ready", "backend", c.Config.Native, "operations", table.Len())
	return nil
}

func openLibrary(cfg *config.Config) (native.Library, error) {
	switch cfg.Native {
	case config.NativeSpice:
		lib, err := spice.Open(spice.Options{CSPICEPath: cfg.CSPICELib, ERFAPath: cfg.ERFALib})
		if err != nil {
			return nil, fmt.Errorf("failed to open CSPICE: %w", err)
		}
		return lib, nil
	case config.NativeEmulated:
		return emulated.New(), nil
	default:
		return nil, fmt.Errorf("native backend %q cannot run in process", cfg.Native)
	}
}

func (c *Container) initRemote(ctx context.Context) error {
	c.loader = loader.New(c.Logger)
	guarded, err := c.loader.Load(ctx, loader.Options{
		Path:        c.Config.PluginPath,
		Checksum:    c.Config.PluginChecksum,
		Env:         []string{"ASTRO_NATIVE=" + c.Config.PluginNative},
		CallTimeout: c.Config.PluginCallTimeout,
		Breaker:     c.BreakerConfig(),
		Metrics:     c.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to start native host: %w", err)
	}
	c.Bridge = guarded
	return nil
}

// BreakerConfig returns the circuit breaker settings.
func (c *Container) BreakerConfig() runtime.BreakerConfig {
	return runtime.BreakerConfig{
		Enabled:          c.Config.BreakerEnabled,
		MaxRequests:      c.Config.BreakerMaxRequests,
		Interval:         c.Config.BreakerInterval,
		Timeout:          c.Config.BreakerTimeout,
		FailureThreshold: c.Config.BreakerFailureThreshold,
	}
}

func (c *Container) registerHealthChecks() {
	bridge := c.Bridge
	c.Health.Register("bridge", observability.ReportHealthChecker(func(ctx context.Context) (bool, string, map[string]any) {
		status := bridge.HealthCheck(ctx)
		return status.Healthy, status.Message, status.Details
	}))
	if c.Journal != nil {
		c.Health.Register("journal", observability.PingHealthChecker("journal", observability.HealthStatusDegraded, c.Journal.Ping))
	}
	if c.Cache != nil {
		c.Health.Register("cache", observability.PingHealthChecker("cache", observability.HealthStatusDegraded, c.Cache.Ping))
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Bridge != nil {
		if err := c.Bridge.Shutdown(ctx); err != nil {
			c.Logger.Warn("error shutting down bridge", "error", err)
		}
	}

	if c.loader != nil {
		c.loader.Unload()
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("error closing cache", "error", err)
		}
	}

	if c.Journal != nil {
		if err := c.Journal.Close(); err != nil {
			c.Logger.Warn("error closing journal", "error", err)
		}
	}
}

// KernelTerms converts kernel paths to the terms Initialize expects.
func KernelTerms(paths []string) []term.Term {
	terms := make([]term.Term, len(paths))
	for i, p := range paths {
		terms[i] = term.Binary(p)
	}
	return terms
}
