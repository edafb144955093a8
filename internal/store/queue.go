package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

// Download queue operations. The song id is the primary key, so overlapping
// producers (manual download, playlist auto-download, artist auto-download)
// racing to enqueue the same song all collapse onto one row.

// EnqueueDownload adds one pending request and moves the song to queued.
// A song already queued or downloading is left alone; a downloaded song is
// not re-enqueued. Returns whether a new queue row was created.
func (db *DB) EnqueueDownload(songID int64) (bool, error) {
	var created bool
	err := db.WithTx(func(tx *sqlx.Tx) error {
		var status domain.DownloadStatus
		if err := tx.Get(&status, `SELECT download_status FROM songs WHERE id = ?`, songID); err != nil {
			return fmt.Errorf("failed to read song status: %w", err)
		}
		if status == domain.StatusDownloaded {
			return nil
		}

		res, err := tx.Exec(`INSERT OR IGNORE INTO download_queue (song_id, created_at) VALUES (?, ?)`, songID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to enqueue download: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		if created {
			_, err = tx.Exec(`UPDATE songs SET download_status = ?, download_progress = 0 WHERE id = ? AND download_status IN (?, ?)`,
				domain.StatusQueued, songID, domain.StatusNotDownloaded, domain.StatusFailed)
		}
		return err
	})
	return created, err
}

// EnqueueDownloads batch-enqueues every given song in one transaction.
// Songs already queued or downloaded are silently skipped. Returns the
// number of newly enqueued songs.
func (db *DB) EnqueueDownloads(songIDs []int64) (int, error) {
	enqueued := 0
	err := db.WithTx(func(tx *sqlx.Tx) error {
		for _, songID := range songIDs {
			var status domain.DownloadStatus
			if err := tx.Get(&status, `SELECT download_status FROM songs WHERE id = ?`, songID); err != nil {
				if err == sql.ErrNoRows {
					continue
				}
				return err
			}
			if status == domain.StatusDownloaded {
				continue
			}

			res, err := tx.Exec(`INSERT OR IGNORE INTO download_queue (song_id, created_at) VALUES (?, ?)`, songID, time.Now())
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			enqueued++

			if _, err := tx.Exec(`UPDATE songs SET download_status = ?, download_progress = 0 WHERE id = ? AND download_status IN (?, ?)`,
				domain.StatusQueued, songID, domain.StatusNotDownloaded, domain.StatusFailed); err != nil {
				return err
			}
		}
		return nil
	})
	return enqueued, err
}

// NextQueuedSong returns the oldest pending queue item, or nil when the
// queue is empty. The worker is the single consumer.
func (db *DB) NextQueuedSong() (*domain.QueueItem, error) {
	var item domain.QueueItem
	err := db.Get(&item, `SELECT * FROM download_queue ORDER BY created_at ASC, song_id ASC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (db *DB) DeleteQueueItem(songID int64) error {
	_, err := db.Exec(`DELETE FROM download_queue WHERE song_id = ?`, songID)
	return err
}

func (db *DB) ListQueueItems() ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := db.Select(&items, `SELECT * FROM download_queue ORDER BY created_at ASC, song_id ASC`)
	return items, err
}

func (db *DB) CountQueueItems() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM download_queue`)
	return count, err
}
