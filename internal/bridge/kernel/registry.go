// Package kernel provides the kernel registry: the one-shot load of the
// kernel path list into the native library and the readiness gate every
// computation waits on.
package kernel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// Status represents the load state of the kernel set.
type Status string

const (
	// StatusUnloaded means no load has been attempted.
	StatusUnloaded Status = "unloaded"

	// StatusLoading means the load is in progress.
	StatusLoading Status = "loading"

	// StatusReady means every kernel loaded and computations are accepted.
	StatusReady Status = "ready"

	// StatusFailed means the load failed. The process cannot serve calls.
	StatusFailed Status = "failed"
)

// LoadEvent describes a finished load attempt.
type LoadEvent struct {
	Paths       []string
	Status      Status
	Err         error
	Duration    time.Duration
	Fingerprint string
}

// Registry tracks the process-wide kernel set. It is write-once.
type Registry struct {
	gate   *native.Gate
	logger *slog.Logger

	mu          sync.RWMutex
	status      Status
	paths       []string
	fingerprint string
	err         error
	loadedAt    time.Time
	listeners   []func(LoadEvent)
}

// NewRegistry creates a registry loading through gate.
func NewRegistry(gate *native.Gate, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gate:   gate,
		logger: logger,
		status: StatusUnloaded,
	}
}

// OnLoad registers fn to be called after every load attempt.
func (r *Registry) OnLoad(fn func(LoadEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Load loads kernels in order while holding the gate for the whole batch.
//
// It stops at the first path that is not a binary or that the native library
// rejects, reporting it as an *sdk.InitializationError. Paths before it stay
// loaded. A registry that has failed or succeeded cannot be loaded again.
func (r *Registry) Load(ctx context.Context, kernels []term.Term) error {
	r.mu.Lock()
	if r.status != StatusUnloaded {
		status := r.status
		r.mu.Unlock()
		return fmt.Errorf("%w (status %s)", sdk.ErrAlreadyInitialized, status)
	}
	r.status = StatusLoading
	r.mu.Unlock()

	start := time.Now()
	var (
		loaded  []string
		loadErr error
	)
	err := r.gate.Do(ctx, func(lib native.Library) {
		if lib.Failed() {
			r.logger.Warn("clearing stale native error before kernel load",
				"code", lib.GetMsg(native.MsgShort, native.MaxMessageLength),
			)
			lib.Reset()
		}
		loaded, loadErr = loadAll(lib, kernels)
	})
	if err != nil {
		// The gate was never acquired; nothing was loaded.
		r.mu.Lock()
		r.status = StatusUnloaded
		r.mu.Unlock()
		return err
	}

	event := LoadEvent{Paths: loaded, Err: loadErr, Duration: time.Since(start)}

	r.mu.Lock()
	r.paths = loaded
	r.err = loadErr
	if loadErr != nil {
		r.status = StatusFailed
	} else {
		r.status = StatusReady
		r.loadedAt = time.Now()
		r.fingerprint = Fingerprint(loaded)
	}
	event.Status = r.status
	event.Fingerprint = r.fingerprint
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	if loadErr != nil {
		r.logger.Error("kernel load failed",
			"loaded", len(loaded),
			"requested", len(kernels),
			"error", loadErr,
		)
	} else {
		r.logger.Info("kernels loaded",
			"count", len(loaded),
			"fingerprint", event.Fingerprint,
			"duration", event.Duration,
		)
	}

	for _, fn := range listeners {
		fn(event)
	}
	return loadErr
}

func loadAll(lib native.Library, kernels []term.Term) ([]string, error) {
	loaded := make([]string, 0, len(kernels))
	for i, k := range kernels {
		path, ok := k.Binary()
		if !ok {
			cause := sdk.NewDecodeError("load", i, "path", fmt.Sprintf("expected binary, got %s", k.Kind()))
			return loaded, sdk.NewInitializationError(i, "", "malformed kernel path", cause)
		}

		lib.Furnsh(path)
		if lib.Failed() {
			cause := &sdk.NativeError{
				Operation: "furnsh",
				Code:      lib.GetMsg(native.MsgShort, native.MaxMessageLength),
				Message:   lib.GetMsg(native.MsgLong, native.MaxMessageLength),
			}
			lib.Reset()
			return loaded, sdk.NewInitializationError(i, path, "kernel load failed", cause)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Ready returns nil once the kernel set is loaded. Otherwise it returns
// sdk.ErrNotReady or the load failure.
func (r *Registry) Ready() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch r.status {
	case StatusReady:
		return nil
	case StatusFailed:
		return r.err
	default:
		return sdk.ErrNotReady
	}
}

// Status returns the current load status.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Paths returns the loaded paths in load order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// Fingerprint returns the identity of the loaded set, or "" before it is ready.
func (r *Registry) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fingerprint
}

// LoadedAt returns when the set became ready.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Fingerprint hashes the ordered paths together with each file's size and
// modification time, so a changed kernel file yields a different value.
func Fingerprint(paths []string) string {
	h := sha256.New()
	for _, p := range paths {
		fmt.Fprintf(h, "%s\x00", p)
		if info, err := os.Stat(p); err == nil {
			fmt.Fprintf(h, "%d\x00%d\x00", info.Size(), info.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
