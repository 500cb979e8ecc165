// Package journal persists a history of bridge calls and kernel loads in SQLite.
// Journal failures are logged and never change the outcome of a call.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// LoadEntry is a journaled kernel load.
type LoadEntry struct {
	ID          int64
	Paths       []string
	Status      kernel.Status
	Error       string
	Fingerprint string
	Duration    time.Duration
	At          time.Time
}

// Journal records calls and kernel loads.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ runtime.Recorder = (*Journal)(nil)

// Open opens or creates the journal at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = MemoryPath
	}

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// SQLite doesn't support multiple writers, and each in-memory connection is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("journal opened", "path", path)
	return &Journal{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		stmt, err := migrationsFS.ReadFile("migrations/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}

// RecordCall stores a finished call.
func (j *Journal) RecordCall(ctx context.Context, rec runtime.CallRecord) {
	ctx = context.WithoutCancel(ctx)
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO calls (id, operation, arity, status, kind, code, message, cached, duration_us, called_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Arity, string(rec.Status), string(rec.Kind), rec.Code, rec.Message,
		rec.Cached, rec.Duration.Microseconds(), rec.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		j.logger.Warn("journal call", "operation", rec.Operation, "error", err)
	}
}

// RecordLoad stores a kernel load attempt. It matches kernel.Registry.OnLoad.
func (j *Journal) RecordLoad(ev kernel.LoadEvent) {
	var msg string
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	_, err := j.db.ExecContext(context.Background(), `
		INSERT INTO kernel_loads (paths, status, error, fingerprint, duration_us, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		strings.Join(ev.Paths, "\n"), string(ev.Status), msg, ev.Fingerprint,
		ev.Duration.Microseconds(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		j.logger.Warn("journal kernel load", "error", err)
	}
}

// RecentCalls returns up to limit calls, newest first.
func (j *Journal) RecentCalls(ctx context.Context, limit int) ([]runtime.CallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, operation, arity, status, kind, code, message, cached, duration_us, called_at
		FROM calls ORDER BY called_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var out []runtime.CallRecord
	for rows.Next() {
		var (
			rec            runtime.CallRecord
			status, kind   string
			durationMicros int64
			at             string
		)
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Arity, &status, &kind, &rec.Code,
			&rec.Message, &rec.Cached, &durationMicros, &at); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		rec.Status = sdk.Status(status)
		rec.Kind = sdk.ErrorKind(kind)
		rec.Duration = time.Duration(durationMicros) * time.Microsecond
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentLoads returns up to limit kernel loads, newest first.
func (j *Journal) RecentLoads(ctx context.Context, limit int) ([]LoadEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, paths, status, error, fingerprint, duration_us, loaded_at
		FROM kernel_loads ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query kernel loads: %w", err)
	}
	defer rows.Close()

	var out []LoadEntry
	for rows.Next() {
		var (
			e              LoadEntry
			paths, status  string
			durationMicros int64
			at             string
		)
		if err := rows.Scan(&e.ID, &paths, &status, &e.Error, &e.Fingerprint, &durationMicros, &at); err != nil {
			return nil, fmt.Errorf("scan kernel load: %w", err)
		}
		if paths != "" {
			e.Paths = strings.Split(paths, "\n")
		}
		e.Status = kernel.Status(status)
		e.Duration = time.Duration(durationMicros) * time.Microsecond
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// OutcomeCounts returns the number of journaled calls per status and error kind.
func (j *Journal) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT CASE WHEN kind = '' THEN status ELSE kind END AS outcome, COUNT(*)
		FROM calls GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// Ping verifies the database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
