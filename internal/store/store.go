package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version of every history
// database. Bump it whenever schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaTooNew is returned by Open when the database was written by a
// newer vx with a schema this build does not understand.
var ErrSchemaTooNew = errors.New("history database schema is newer than this vx")

// Store is a handle on a vx history database.
//
// A Store holds a single SQLite connection; history writes are small and
// serialized, and WAL mode keeps concurrent readers (a second vx process
// running "history") from blocking on them.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating it when missing.
// ":memory:" gives a private in-memory history, which the scenario
// harness uses for every run.
//
// The connection is configured with:
//   - WAL journaling
//   - synchronous=NORMAL
//   - a 5 second busy timeout
//   - foreign key enforcement
//
// Opening an existing database never rewrites recorded units. A database
// stamped with a schema version above this build's is refused with
// ErrSchemaTooNew rather than written to.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: an in-memory database is per connection, and
	// SQLite allows one writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection. Tests use it to tamper with
// recorded rows; commands go through Store methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

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

// applySchema checks the stamped schema version, creates the units table
// and its indexes, and stamps a fresh database.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("open history: schema version %d, this vx supports %d: %w",
			version, schemaVersion, ErrSchemaTooNew)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
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
