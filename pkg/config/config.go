package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Native backends.
const (
	NativeEmulated = "emulated"
	NativeSpice    = "spice"
	NativePlugin   = "plugin"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `toml:"app_env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Native library
	Native    string   `toml:"native"`
	CSPICELib string   `toml:"cspice_lib"`
	ERFALib   string   `toml:"erfa_lib"`
	Kernels   []string `toml:"kernels"`

	// Out-of-process native host
	PluginPath        string        `toml:"plugin_path"`
	PluginNative      string        `toml:"plugin_native"`
	PluginChecksum    string        `toml:"plugin_checksum"`
	PluginCallTimeout time.Duration `toml:"plugin_call_timeout"`

	// Circuit breaker around the native host
	BreakerEnabled          bool          `toml:"breaker_enabled"`
	BreakerMaxRequests      uint32        `toml:"breaker_max_requests"`
	BreakerInterval         time.Duration `toml:"breaker_interval"`
	BreakerTimeout          time.Duration `toml:"breaker_timeout"`
	BreakerFailureThreshold uint32        `toml:"breaker_failure_threshold"`

	// Result cache
	Cache     string        `toml:"cache"`
	CacheSize int           `toml:"cache_size"`
	CacheTTL  time.Duration `toml:"cache_ttl"`
	RedisURL  string        `toml:"redis_url"`

	// Journal
	JournalPath string `toml:"journal_path"`

	// MCP
	MCPAddr      string `toml:"mcp_addr"`
	MCPAuthToken string `toml:"mcp_auth_token"`

	// Metrics
	MetricsAddr string `toml:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppEnv:    "development",
		LogLevel:  "info",
		LogFormat: "text",

		Native: NativeEmulated,

		PluginNative:      NativeEmulated,
		PluginCallTimeout: 30 * time.Second,

		BreakerEnabled:          true,
		BreakerMaxRequests:      1,
		BreakerInterval:         time.Minute,
		BreakerTimeout:          30 * time.Second,
		BreakerFailureThreshold: 5,

		Cache:     CacheMemory,
		CacheSize: 1024,
		CacheTTL:  time.Hour,
		RedisURL:  "redis://localhost:6379/0",

		JournalPath: defaultJournalPath(),

		MCPAddr: "0.0.0.0:8082",
	}
}

// Load loads configuration from the file named by ASTRO_CONFIG, if any,
// and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("ASTRO_CONFIG"))
}

// LoadFile loads defaults, then the TOML file at path when path is not
// empty, then environment variables. Later sources win.
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.Native = getEnv("ASTRO_NATIVE", c.Native)
	c.CSPICELib = getEnv("ASTRO_CSPICE_LIB", c.CSPICELib)
	c.ERFALib = getEnv("ASTRO_ERFA_LIB", c.ERFALib)
	c.Kernels = getPathListEnv("ASTRO_KERNELS", c.Kernels)

	c.PluginPath = getEnv("ASTRO_PLUGIN_PATH", c.PluginPath)
	c.PluginNative = getEnv("ASTRO_PLUGIN_NATIVE", c.PluginNative)
	c.PluginChecksum = getEnv("ASTRO_PLUGIN_CHECKSUM", c.PluginChecksum)
	c.PluginCallTimeout = getDurationEnv("ASTRO_PLUGIN_CALL_TIMEOUT", c.PluginCallTimeout)

	c.BreakerEnabled = getBoolEnv("ASTRO_BREAKER_ENABLED", c.BreakerEnabled)
	c.BreakerMaxRequests = uint32(getIntEnv("ASTRO_BREAKER_MAX_REQUESTS", int(c.BreakerMaxRequests)))
	c.BreakerInterval = getDurationEnv("ASTRO_BREAKER_INTERVAL", c.BreakerInterval)
	c.BreakerTimeout = getDurationEnv("ASTRO_BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureThreshold = uint32(getIntEnv("ASTRO_BREAKER_FAILURE_THRESHOLD", int(c.BreakerFailureThreshold)))

	c.Cache = getEnv("ASTRO_CACHE", c.Cache)
	c.CacheSize = getIntEnv("ASTRO_CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getDurationEnv("ASTRO_CACHE_TTL", c.CacheTTL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)

	c.JournalPath = getEnv("ASTRO_JOURNAL_PATH", c.JournalPath)

	c.MCPAddr = getEnv("MCP_ADDR", c.MCPAddr)
	c.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", c.MCPAuthToken)

	c.MetricsAddr = getEnv("ASTRO_METRICS_ADDR", c.MetricsAddr)
}

// Validate checks enumerated settings and their dependencies.
func (c *Config) Validate() error {
	switch c.Native {
	case NativeEmulated, NativeSpice:
	case NativePlugin:
		if c.PluginPath == "" {
			return fmt.Errorf("ASTRO_PLUGIN_PATH is required when ASTRO_NATIVE=%s", NativePlugin)
		}
		if c.PluginNative != NativeEmulated && c.PluginNative != NativeSpice {
			return fmt.Errorf("unknown plugin native backend %q (want emulated or spice)", c.PluginNative)
		}
	default:
		return fmt.Errorf("unknown native backend %q (want emulated, spice or plugin)", c.Native)
	}

	switch c.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when ASTRO_CACHE=%s", CacheRedis)
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want none, memory or redis)", c.Cache)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("ASTRO_CACHE_SIZE must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getPathListEnv splits a list on the OS path list separator.
func getPathListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	paths := []string{}
	for _, p := range filepath.SplitList(value) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".astro", "journal.db")
	}
	return filepath.Join(home, ".astro", "journal.db")
}
