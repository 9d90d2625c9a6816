package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/taxon/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on category_path.descendant for ancestor lookups
const currentSchemaVersion = 1

// Store is the transactional storage adapter for the closure table.
// Uses SQLite with WAL mode for concurrent read access.
//
// Writes go through db, a single connection that begins with BEGIN
// IMMEDIATE. Reads go through reader, a query-only pool that begins with
// BEGIN DEFERRED and so never takes the write lock. In-memory databases
// have no second handle; reader is db there.
type Store struct {
	db       *sql.DB
	reader   *sql.DB
	compiler *querysql.SQLCompiler
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - Immediate write transactions (write lock taken at BEGIN)
//   - Deferred, query-only read transactions on a separate handle
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// A single connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	reader := db
	if !isMemory(path) {
		reader, err = openReader(path)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, reader: reader, compiler: querysql.NewSQLCompiler()}, nil
}

// openReader opens the query-only handle used by WithReadTx. Pragmas go in
// the DSN so that every pooled connection gets them.
func openReader(path string) (*sql.DB, error) {
	reader, err := sql.Open("sqlite3", readerDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	if err := reader.Ping(); err != nil {
		reader.Close()
		return nil, fmt.Errorf("failed to connect reader: %w", err)
	}
	return reader, nil
}

// dsn appends the writer's driver options to the database path.
func dsn(path string) string {
	return withParams(path, "_txlock=immediate")
}

// readerDSN appends the reader's driver options to the database path.
func readerDSN(path string) string {
	return withParams(path, "_txlock=deferred&_query_only=1&_busy_timeout=5000&_foreign_keys=1")
}

func withParams(path, params string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params
}

// isMemory reports whether path names an in-memory database, which a
// second handle would not share.
func isMemory(path string) bool {
	return strings.HasPrefix(path, ":memory:") ||
		strings.HasPrefix(path, "file::memory:") ||
		strings.Contains(path, "mode=memory")
}

// Close closes the database connections.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	var readerErr error
	if s.reader != nil && s.reader != s.db {
		readerErr = s.reader.Close()
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	return readerErr
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - writes made through it bypass the mutation engine.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the schema version recorded in PRAGMA user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// WithTx runs fn inside a read-write transaction.
// The transaction commits only if fn returns nil; any error rolls back
// every write fn made.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTx(ctx, false, fn)
}

// WithReadTx runs fn inside a deferred, query-only transaction that is
// always rolled back. fn observes one consistent snapshot of both tables
// and does not block other readers or the writer.
func (s *Store) WithReadTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTx(ctx, true, fn)
}

func (s *Store) withTx(ctx context.Context, readOnly bool, fn func(tx *Tx) error) error {
	db := s.db
	if readOnly {
		db = s.reader
	}
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&Tx{tx: tx, compiler: s.compiler}); err != nil {
		return err
	}

	if readOnly {
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes category_path by descendant. The primary key already
// serves ancestor-first lookups; parent and ancestor queries filter on
// descendant.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_category_path_descendant
		ON category_path(descendant, ancestor)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
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
