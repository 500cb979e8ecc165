// Package loader starts an out-of-process native host and hands back a
// guarded sdk.Bridge that talks to it.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-plugin"

	bridgegrpc "github.com/felixgeelhaar/astrobridge/internal/bridge/grpc"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

// Options configures a plugin load.
type Options struct {
	// Path is the absolute path of the astro-native binary.
	Path string

	// Checksum is an optional "sha256:HEX" digest of the binary.
	Checksum string

	// Env is appended to the child's environment.
	Env []string

	// CallTimeout bounds each RPC whose context has no deadline.
	CallTimeout time.Duration

	// Breaker configures the circuit breaker around the remote bridge.
	Breaker runtime.BreakerConfig

	// Metrics receives breaker state changes. Optional.
	Metrics *runtime.MetricsCollector
}

// Loader owns the plugin child process.
type Loader struct {
	logger *slog.Logger

	mu     sync.Mutex
	client *plugin.Client
}

// New creates a loader.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load starts the native host and returns the remote bridge behind a circuit breaker.
func (l *Loader) Load(ctx context.Context, opts Options) (*runtime.Guarded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return nil, fmt.Errorf("native host already running")
	}

	path, err := validateBinaryPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("native host path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("native host not found: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("native host %s is not a regular file", path)
	}
	if opts.Checksum != "" {
		if err := verifyChecksum(path, opts.Checksum); err != nil {
			return nil, err
		}
	}

	var clientOpts []bridgegrpc.ClientOption
	if opts.CallTimeout > 0 {
		clientOpts = append(clientOpts, bridgegrpc.WithCallTimeout(opts.CallTimeout))
	}
	clientOpts = append(clientOpts, bridgegrpc.WithLogger(l.logger))

	// #nosec G204 -- path is validated by validateBinaryPath
	cmd := exec.Command(path)
	cmd.Env = append(os.Environ(), opts.Env...)

	l.logger.Info("starting native host", "binary", path)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: bridgegrpc.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			bridgegrpc.PluginName: &bridgegrpc.BridgePlugin{ClientOptions: clientOpts},
		},
		Cmd:              cmd,
		Logger:           newHclogAdapter(l.logger, filepath.Base(path)),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, &sdk.TransportError{Operation: "connect", Err: err}
	}
	raw, err := rpcClient.Dispense(bridgegrpc.PluginName)
	if err != nil {
		client.Kill()
		return nil, &sdk.TransportError{Operation: "dispense", Err: err}
	}
	remote, ok := raw.(sdk.Bridge)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("native host does not implement the bridge interface")
	}

	l.client = client
	l.logger.Info("native host started", "binary", path, "protocol", client.Protocol())
	return runtime.NewGuarded(remote, opts.Breaker, opts.Metrics, l.logger), nil
}

// Running reports whether a native host is running.
func (l *Loader) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client != nil && !l.client.Exited()
}

// Unload stops the native host.
func (l *Loader) Unload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil {
		return
	}
	l.client.Kill()
	l.client = nil
	l.logger.Info("native host stopped")
}

// validateBinaryPath rejects relative paths and shell metacharacters and resolves symlinks.
func validateBinaryPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}
	if i := strings.IndexAny(clean, ";&|$`(){}<>!\n\r\\'\""); i >= 0 {
		return "", fmt.Errorf("path contains forbidden character %q: %s", clean[i], path)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return resolved, nil
}

// verifyChecksum compares the file digest with "sha256:HEX" or a bare hex digest.
func verifyChecksum(path, expected string) error {
	algorithm, digest := "sha256", expected
	if a, d, ok := strings.Cut(expected, ":"); ok {
		algorithm, digest = strings.ToLower(a), d
	}
	if algorithm != "sha256" {
		return fmt.Errorf("unsupported checksum algorithm: %s", algorithm)
	}

	// #nosec G304 -- path is validated by validateBinaryPath
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open native host: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("read native host: %w", err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, digest) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", digest, got)
	}
	return nil
}
