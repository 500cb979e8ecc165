package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all astrobridge-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "ASTRO_CONFIG",
		"ASTRO_NATIVE", "ASTRO_CSPICE_LIB", "ASTRO_ERFA_LIB", "ASTRO_KERNELS",
		"ASTRO_PLUGIN_PATH", "ASTRO_PLUGIN_NATIVE", "ASTRO_PLUGIN_CHECKSUM", "ASTRO_PLUGIN_CALL_TIMEOUT",
		"ASTRO_BREAKER_ENABLED", "ASTRO_BREAKER_MAX_REQUESTS", "ASTRO_BREAKER_INTERVAL",
		"ASTRO_BREAKER_TIMEOUT", "ASTRO_BREAKER_FAILURE_THRESHOLD",
		"ASTRO_CACHE", "ASTRO_CACHE_SIZE", "ASTRO_CACHE_TTL", "REDIS_URL",
		"ASTRO_JOURNAL_PATH", "MCP_ADDR", "MCP_AUTH_TOKEN", "ASTRO_METRICS_ADDR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	assert.Equal(t, NativeEmulated, cfg.Native)
	assert.Empty(t, cfg.Kernels)
	assert.Equal(t, 30*time.Second, cfg.PluginCallTimeout)

	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerFailureThreshold)

	assert.Equal(t, CacheMemory, cfg.Cache)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, time.Hour, cfg.CacheTTL)

	assert.Contains(t, cfg.JournalPath, filepath.Join(".astro", "journal.db"))
	assert.Equal(t, "0.0.0.0:8082", cfg.MCPAddr)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("ASTRO_NATIVE", "spice")
	os.Setenv("ASTRO_CSPICE_LIB", "/opt/cspice/libcspice.so")
	os.Setenv("ASTRO_KERNELS", "/k/naif0012.tls"+string(os.PathListSeparator)+"/k/de440.bsp")
	os.Setenv("ASTRO_CACHE", "redis")
	os.Setenv("REDIS_URL", "redis://cache:6379/2")
	os.Setenv("ASTRO_CACHE_TTL", "10m")
	os.Setenv("ASTRO_BREAKER_FAILURE_THRESHOLD", "3")
	os.Setenv("MCP_AUTH_TOKEN", "secret")
	os.Setenv("ASTRO_METRICS_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, NativeSpice, cfg.Native)
	assert.Equal(t, "/opt/cspice/libcspice.so", cfg.CSPICELib)
	assert.Equal(t, []string{"/k/naif0012.tls", "/k/de440.bsp"}, cfg.Kernels)
	assert.Equal(t, CacheRedis, cfg.Cache)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, uint32(3), cfg.BreakerFailureThreshold)
	assert.Equal(t, "secret", cfg.MCPAuthToken)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFile_TOMLThenEnv(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	path := filepath.Join(t.TempDir(), "astro.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"
native = "plugin"
plugin_path = "/usr/local/bin/astro-native"
plugin_call_timeout = "5s"
kernels = ["a.tls", "b.bsp"]
cache = "none"
`), 0o600))

	os.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, NativePlugin, cfg.Native)
	assert.Equal(t, "/usr/local/bin/astro-native", cfg.PluginPath)
	assert.Equal(t, 5*time.Second, cfg.PluginCallTimeout)
	assert.Equal(t, []string{"a.tls", "b.bsp"}, cfg.Kernels)
	assert.Equal(t, CacheNone, cfg.Cache)
	assert.Equal(t, 1024, cfg.CacheSize, "unset keys keep defaults")
}

func TestLoad_ConfigFromEnvPointer(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	path := filepath.Join(t.TempDir(), "astro.toml")
	require.NoError(t, os.WriteFile(path, []byte(`mcp_addr = "127.0.0.1:9000"`), 0o600))
	os.Setenv("ASTRO_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.MCPAddr)
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("native = ["), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown native", func(c *Config) { c.Native = "fortran" }, "unknown native backend"},
		{"plugin without path", func(c *Config) { c.Native = NativePlugin }, "ASTRO_PLUGIN_PATH"},
		{"plugin with path", func(c *Config) { c.Native = NativePlugin; c.PluginPath = "/bin/astro-native" }, ""},
		{"plugin hosting a plugin", func(c *Config) {
			c.Native = NativePlugin
			c.PluginPath = "/bin/astro-native"
			c.PluginNative = NativePlugin
		}, "plugin native backend"},
		{"unknown cache", func(c *Config) { c.Cache = "memcached" }, "unknown cache backend"},
		{"redis without url", func(c *Config) { c.Cache = CacheRedis; c.RedisURL = "" }, "REDIS_URL"},
		{"negative cache size", func(c *Config) { c.CacheSize = -1 }, "ASTRO_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		appEnv   string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.appEnv, func(t *testing.T) {
			cfg := &Config{AppEnv: tt.appEnv}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
			assert.Equal(t, tt.appEnv == "production", cfg.IsProduction())
		})
	}
}

func TestGetIntEnv(t *testing.T) {
	value := getIntEnv("NON_EXISTENT_INT", 42)
	assert.Equal(t, 42, value)

	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")
	assert.Equal(t, 100, getIntEnv("TEST_INT", 42))

	// Invalid values fall back to the default
	os.Setenv("TEST_INVALID_INT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_INT")
	assert.Equal(t, 42, getIntEnv("TEST_INVALID_INT", 42))
}

func TestGetDurationEnv(t *testing.T) {
	assert.Equal(t, 5*time.Second, getDurationEnv("NON_EXISTENT_DUR", 5*time.Second))

	os.Setenv("TEST_INVALID_DUR", "not-a-duration")
	defer os.Unsetenv("TEST_INVALID_DUR")
	assert.Equal(t, 5*time.Second, getDurationEnv("TEST_INVALID_DUR", 5*time.Second))
}

func TestGetBoolEnv(t *testing.T) {
	for _, tv := range []string{"true", "1", "TRUE"} {
		os.Setenv("TEST_BOOL", tv)
		assert.True(t, getBoolEnv("TEST_BOOL", false), "Expected true for value: %s", tv)
	}
	for _, fv := range []string{"false", "0", "False"} {
		os.Setenv("TEST_BOOL", fv)
		assert.False(t, getBoolEnv("TEST_BOOL", true), "Expected false for value: %s", fv)
	}
	os.Unsetenv("TEST_BOOL")
}

func TestGetPathListEnv(t *testing.T) {
	assert.Equal(t, []string{"keep"}, getPathListEnv("NON_EXISTENT_PATH", []string{"keep"}))

	sep := string(os.PathListSeparator)
	os.Setenv("TEST_PATHS", "/path1"+sep+sep+"/path2")
	defer os.Unsetenv("TEST_PATHS")
	assert.Equal(t, []string{"/path1", "/path2"}, getPathListEnv("TEST_PATHS", nil))
}
