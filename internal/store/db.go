package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sqlx.DB
}

func NewSQLiteDB(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Set pragmas for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.migrate(); err != nil {
		return nil, err
	}

	return wrapped, nil
}

// migrate applies the schema, gated by a version counter. On version mismatch
// every table is dropped and recreated: catalog content is re-derivable from
// the remote provider and files are re-downloadable, so losing local state is
// the accepted trade for never running a partial migration.
func (db *DB) migrate() error {
	var version int
	err := db.Get(&version, `SELECT version FROM schema_version LIMIT 1`)
	if err == nil && version != SchemaVersion {
		if _, dropErr := db.Exec(DropAll); dropErr != nil {
			return fmt.Errorf("failed to drop outdated schema (v%d): %w", version, dropErr)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error. Multi-row invariant-preserving writes go through here.
func (db *DB) WithTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
