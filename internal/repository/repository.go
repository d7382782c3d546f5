// Package repository provides the database access layer.
// Two SQL engines are supported behind one Repository (PostgreSQL and SQLite),
// plus an in-memory variant that needs no database at all.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cptk8s/registro/internal/metrics"
)

// Options configures a SQL-backed Repository.
type Options struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// URL is the engine DSN.
	URL string
	// Returning enables single-statement INSERT ... RETURNING.
	// When false, every create goes through the pinned-connection fallback.
	Returning bool
	// MaxOpenConns bounds the pool. Zero keeps the driver default.
	MaxOpenConns int

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Repository provides database access methods.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New opens a connection pool for the configured engine, verifies it and
// applies pending migrations.
func New(ctx context.Context, opts Options) (*Repository, error) {
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	dialect.Returning = opts.Returning

	db, err := sql.Open(dialect.driverName, dialect.dsn(opts.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Connection pool settings
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := NewWithDB(db, dialect, opts.Logger, opts.Metrics)

	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an already opened pool. Migrations are not applied.
func NewWithDB(db *sql.DB, dialect Dialect, logger *slog.Logger, recorder metrics.Recorder) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger,
		metrics: recorder,
	}
}

// Dialect returns the SQL dialect in use.
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) DB() *sql.DB {
	return r.db
}
