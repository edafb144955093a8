package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/store"
)

func openDB(t *testing.T, path string) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	return db
}

func seedSong(t *testing.T, db *store.DB, url string) {
	t.Helper()
	song := &domain.Song{
		URL:        url,
		Title:      "Title",
		ArtistName: "Artist",
		Duration:   180,
		Kind:       domain.KindStandard,
		InLibrary:  true,
		Status:     domain.StatusNotDownloaded,
	}
	if err := db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
}

func TestManager_ExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "live.db")
	m := NewManager(dbPath, logger.Default())

	db := openDB(t, dbPath)
	seedSong(t, db, "https://e/keep")

	snapshot, err := m.Export(db, filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := os.Stat(snapshot); err != nil {
		t.Fatalf("Snapshot missing: %v", err)
	}

	// Diverge the live database after the snapshot was taken.
	seedSong(t, db, "https://e/after")
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := m.Import(snapshot); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	restored := openDB(t, dbPath)
	defer restored.Close()

	song, err := restored.GetSongByURL("https://e/keep")
	if err != nil {
		t.Fatalf("GetSongByURL failed: %v", err)
	}
	if song == nil {
		t.Error("Expected snapshot song to survive import")
	}

	gone, err := restored.GetSongByURL("https://e/after")
	if err != nil {
		t.Fatalf("GetSongByURL failed: %v", err)
	}
	if gone != nil {
		t.Error("Expected post-snapshot song to be gone after import")
	}
}

func TestManager_ImportRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "live.db")
	m := NewManager(dbPath, logger.Default())

	db := openDB(t, dbPath)
	seedSong(t, db, "https://e/keep")
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("this is not a database"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := m.Import(garbage); !errors.Is(err, ErrInvalidBackup) {
		t.Fatalf("Expected ErrInvalidBackup, got %v", err)
	}

	// The live database is untouched.
	db = openDB(t, dbPath)
	defer db.Close()
	song, err := db.GetSongByURL("https://e/keep")
	if err != nil {
		t.Fatalf("GetSongByURL failed: %v", err)
	}
	if song == nil {
		t.Error("Expected live data to survive a rejected import")
	}
}

func TestManager_ImportRejectsForeignSchema(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "live.db")
	m := NewManager(dbPath, logger.Default())

	// A valid sqlite file that is not one of ours.
	foreignPath := filepath.Join(dir, "foreign.db")
	foreign := openDB(t, foreignPath)
	if _, err := foreign.Exec(`DROP TABLE songs`); err != nil {
		t.Fatalf("Failed to break schema: %v", err)
	}
	if _, err := foreign.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	if err := foreign.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := m.Import(foreignPath); !errors.Is(err, ErrInvalidBackup) {
		t.Fatalf("Expected ErrInvalidBackup, got %v", err)
	}
}
