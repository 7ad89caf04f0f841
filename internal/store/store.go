package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/sailors/internal/resultset"
	"github.com/roach88/sailors/internal/schema"
)

// Config selects the backend.
type Config struct {
	// Driver is one of DriverSQLite, DriverMySQL, DriverPostgres.
	Driver string

	// DSN is passed to the driver unchanged. For SQLite it is a file
	// path or ":memory:".
	DSN string
}

// Store owns the single connection to the backend.
type Store struct {
	db      *sqlx.DB
	schema  *schema.Schema
	dialect dialect
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for connection and statement events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithSchema replaces the default schema.
func WithSchema(sc *schema.Schema) Option {
	return func(s *Store) {
		s.schema = sc
	}
}

// Open connects to the configured backend and creates the tables.
//
// The connection is configured with:
//   - exactly one open connection (SetMaxOpenConns(1))
//   - SQLite: WAL mode, NORMAL synchronous, 5-second busy timeout,
//     foreign key enforcement
//
// A malformed schema is rejected before connecting. This function is
// idempotent - safe to call repeatedly against the same database.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	s := &Store{
		schema:  schema.Default(),
		dialect: d,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	// ConnectContext pings, so an unreachable backend fails here.
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	// One connection: an in-memory SQLite database lives and dies with it,
	// and the checks are sequential anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s.db = db

	if err := s.applySetup(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply connection setup: %w", err)
	}

	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("store opened", "driver", cfg.Driver, "tables", len(s.schema.Tables))
	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sqlx.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Schema returns the schema the tables were created from.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// CreateSchema creates every table that does not exist yet, in declaration
// order. Rerunning it neither fails nor touches existing rows.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, t := range s.schema.Tables {
		ddl := s.dialect.createTableSQL(t)
		s.logger.Debug("create table", "table", t.Name, "sql", ddl)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// Query executes a read statement written with ? placeholders and returns
// the fully scanned result. Placeholders are rebound for the driver.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*resultset.ResultSet, error) {
	bound := s.db.Rebind(query)
	s.logger.Debug("query", "sql", bound, "args", args)

	rows, err := s.db.QueryxContext(ctx, bound, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	rs, err := resultset.Scan(rows)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rs, nil
}

// applySetup runs the dialect's per-connection statements.
func (s *Store) applySetup(ctx context.Context) error {
	for _, stmt := range s.dialect.setup {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
