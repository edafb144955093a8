package store

import (
	"testing"

	"github.com/tunevault/tunevault/internal/domain"
)

func TestDB_EnqueueDownloadIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	song := mustCreateSong(t, db, "https://e/q1", "Queued", "Artist")

	created, err := db.EnqueueDownload(song.ID)
	if err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	if !created {
		t.Error("Expected first enqueue to create a queue row")
	}

	fetched, _ := db.GetSongByID(song.ID)
	if fetched.Status != domain.StatusQueued {
		t.Errorf("Expected status %s, got %s", domain.StatusQueued, fetched.Status)
	}

	// Second enqueue collapses onto the existing row
	created, err = db.EnqueueDownload(song.ID)
	if err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	if created {
		t.Error("Expected duplicate enqueue to be a no-op")
	}

	count, err := db.CountQueueItems()
	if err != nil {
		t.Fatalf("CountQueueItems failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 queue item, got %d", count)
	}
}

func TestDB_EnqueueDownloadSkipsDownloaded(t *testing.T) {
	db := setupTestDB(t)

	path := "/music/done.mp3"
	song := testSong("https://e/q2", "Done", "Artist")
	song.LocalPath = &path
	stored, err := db.UpsertDownloadedSong(song)
	if err != nil {
		t.Fatalf("UpsertDownloadedSong failed: %v", err)
	}

	created, err := db.EnqueueDownload(stored.ID)
	if err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	if created {
		t.Error("Expected downloaded song not to be enqueued")
	}

	count, _ := db.CountQueueItems()
	if count != 0 {
		t.Errorf("Expected empty queue, got %d items", count)
	}
}

func TestDB_EnqueueFailedSongRequeues(t *testing.T) {
	db := setupTestDB(t)

	song := mustCreateSong(t, db, "https://e/q3", "Flaky", "Artist")
	if err := db.SetSongStatus(song.ID, domain.StatusFailed, 0); err != nil {
		t.Fatalf("SetSongStatus failed: %v", err)
	}

	created, err := db.EnqueueDownload(song.ID)
	if err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	if !created {
		t.Error("Expected failed song to be requeued")
	}

	fetched, _ := db.GetSongByID(song.ID)
	if fetched.Status != domain.StatusQueued {
		t.Errorf("Expected status %s, got %s", domain.StatusQueued, fetched.Status)
	}
}

func TestDB_EnqueueDownloadsBatch(t *testing.T) {
	db := setupTestDB(t)

	plain := mustCreateSong(t, db, "https://e/b1", "Plain", "Artist")

	path := "/music/b.mp3"
	downloaded := testSong("https://e/b2", "Already", "Artist")
	downloaded.LocalPath = &path
	stored, err := db.UpsertDownloadedSong(downloaded)
	if err != nil {
		t.Fatalf("UpsertDownloadedSong failed: %v", err)
	}

	queued := mustCreateSong(t, db, "https://e/b3", "AlreadyQueued", "Artist")
	if _, err := db.EnqueueDownload(queued.ID); err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}

	// Batch spans a fresh song, a downloaded song, an already-queued song
	// and a missing id; only the fresh song counts.
	enqueued, err := db.EnqueueDownloads([]int64{plain.ID, stored.ID, queued.ID, 9999})
	if err != nil {
		t.Fatalf("EnqueueDownloads failed: %v", err)
	}
	if enqueued != 1 {
		t.Errorf("Expected 1 newly enqueued song, got %d", enqueued)
	}

	count, _ := db.CountQueueItems()
	if count != 2 {
		t.Errorf("Expected 2 queue items, got %d", count)
	}
}

func TestDB_NextQueuedSongOrder(t *testing.T) {
	db := setupTestDB(t)

	next, err := db.NextQueuedSong()
	if err != nil {
		t.Fatalf("NextQueuedSong failed: %v", err)
	}
	if next != nil {
		t.Error("Expected nil for an empty queue")
	}

	first := mustCreateSong(t, db, "https://e/n1", "First", "Artist")
	second := mustCreateSong(t, db, "https://e/n2", "Second", "Artist")
	for _, id := range []int64{first.ID, second.ID} {
		if _, err := db.EnqueueDownload(id); err != nil {
			t.Fatalf("EnqueueDownload failed: %v", err)
		}
	}

	next, err = db.NextQueuedSong()
	if err != nil {
		t.Fatalf("NextQueuedSong failed: %v", err)
	}
	if next == nil || next.SongID != first.ID {
		t.Errorf("Expected oldest item %d, got %+v", first.ID, next)
	}

	if err := db.DeleteQueueItem(first.ID); err != nil {
		t.Fatalf("DeleteQueueItem failed: %v", err)
	}
	next, _ = db.NextQueuedSong()
	if next == nil || next.SongID != second.ID {
		t.Errorf("Expected item %d after consuming the first, got %+v", second.ID, next)
	}
}
