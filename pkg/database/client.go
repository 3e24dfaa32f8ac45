// Package database provides the embedded SQL store used by the arena.
//
// The engine is modernc.org/sqlite, a pure-Go (no cgo) implementation, so
// that a single data file fully describes one arena instance — per
// spec.md §6 "one file per service port to allow multiple isolated
// instances." A single pooled connection is used deliberately: SQLite
// serializes writers regardless of how many *sql.DB connections are open,
// and collapsing the pool to one connection turns that serialization into
// an explicit, observable property of this package rather than a surprise
// under load (mirrors the "one connection per OS thread" requirement of
// §4.4 for a process that is itself single-writer at the storage layer).
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds database configuration.
type Config struct {
	// Path is the sqlite file path. Use ":memory:" for ephemeral stores
	// (tests, short-lived organizer runs).
	Path string
}

// Client wraps the underlying *sql.DB with migrations already applied.
type Client struct {
	db *sql.DB
}

// DB returns the underlying connection for health checks and packages that
// need to run bespoke queries (pkg/scoring, pkg/api).
func (c *Client) DB() *sql.DB { return c.db }

// Close closes the underlying connection.
func (c *Client) Close() error { return c.db.Close() }

// NewClient opens (creating if necessary) the sqlite file at cfg.Path,
// configures pragmas, and applies any pending migrations.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// See package doc: a single connection makes SQLite's write
	// serialization explicit instead of implicit.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database ready", "path", cfg.Path)
	return &Client{db: db}, nil
}

// NewClientFromDB wraps an already-open *sql.DB (useful for tests that want
// an in-memory database with migrations already applied by the caller).
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// runMigrations applies every embedded *.up.sql file, in filename order,
// that has not yet been recorded in schema_migrations. This follows the
// numbered-filename convention of golang-migrate (0001_init.up.sql, ...)
// without depending on golang-migrate itself — see DESIGN.md for why.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var applied int
		row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, name)
		if err := row.Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
		slog.Info("applied migration", "version", name)
	}

	return nil
}
