// Package backup exports and imports the whole catalog as one opaque file.
// Import is a maintenance operation that runs with the engine closed: the
// candidate file is validated against a staging copy before it replaces the
// live database.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/store"
)

var ErrInvalidBackup = fmt.Errorf("backup file failed validation")

type Manager struct {
	// DBPath is the live database file.
	DBPath string
	Logger *logger.Logger
}

func NewManager(dbPath string, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		DBPath: dbPath,
		Logger: log.WithComponent("backup"),
	}
}

// Export checkpoints the WAL into the database file and copies it to destDir.
// The live engine stays open; the checkpoint makes the main file complete on
// its own. Returns the path of the snapshot.
func (m *Manager) Export(db *store.DB, destDir string) (string, error) {
	if _, err := db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return "", fmt.Errorf("failed to checkpoint wal: %w", err)
	}

	if err := os.MkdirAll(destDir, constants.DirPermissions); err != nil {
		return "", err
	}

	name := fmt.Sprintf("tunevault-%s-%s.db", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	dest := filepath.Join(destDir, name)

	if err := copyFile(m.DBPath, dest); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	m.Logger.Info("Exported backup", "path", dest)
	return dest, nil
}

// Import replaces the live database file with the given backup. The engine
// must be closed before calling and reopened after. The candidate is copied
// to a staging file next to the live one and opened there for validation, so
// a corrupt backup never touches the live file.
func (m *Manager) Import(src string) error {
	staging := filepath.Join(filepath.Dir(m.DBPath), ".import-"+uuid.NewString())
	if err := copyFile(src, staging); err != nil {
		return fmt.Errorf("failed to stage backup: %w", err)
	}
	defer os.Remove(staging)

	if err := validate(staging); err != nil {
		return err
	}

	// The WAL and shm of the old database would shadow the imported file.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(m.DBPath + suffix)
	}

	if err := os.Rename(staging, m.DBPath); err != nil {
		return fmt.Errorf("failed to swap database: %w", err)
	}

	m.Logger.Info("Imported backup", "source", src)
	return nil
}

// validate opens the staged copy as a throwaway database and runs an
// integrity query plus a probe of a known table.
func validate(path string) error {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	defer db.Close()

	var result string
	if err := db.Get(&result, `PRAGMA integrity_check`); err != nil || result != "ok" {
		return fmt.Errorf("%w: integrity check %q (%v)", ErrInvalidBackup, result, err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM songs`); err != nil {
		return fmt.Errorf("%w: missing songs table: %v", ErrInvalidBackup, err)
	}

	var version int
	if err := db.Get(&version, `SELECT version FROM schema_version LIMIT 1`); err != nil {
		return fmt.Errorf("%w: missing schema version: %v", ErrInvalidBackup, err)
	}
	if version != store.SchemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrInvalidBackup, version, store.SchemaVersion)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
