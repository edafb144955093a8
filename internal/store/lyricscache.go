package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/domain"
)

// GetLyrics returns the cached lyrics for (artist, title), or nil on a miss.
func (db *DB) GetLyrics(artist, title string) (*domain.LyricsEntry, error) {
	var entry domain.LyricsEntry
	err := db.Get(&entry, `SELECT * FROM lyrics_cache WHERE artist = ? AND title = ?`, artist, title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutLyrics caches lyrics for (artist, title). When the insert would push
// the cache past capacity the oldest quartile is deleted first, amortizing
// eviction cost across many inserts.
func (db *DB) PutLyrics(artist, title, lyrics string) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM lyrics_cache WHERE artist = ? AND title = ?`, artist, title); err != nil {
			return err
		}

		if exists == 0 {
			var count int
			if err := tx.Get(&count, `SELECT COUNT(*) FROM lyrics_cache`); err != nil {
				return err
			}
			if count+1 > constants.LyricsCacheCapacity {
				if _, err := tx.Exec(`
					DELETE FROM lyrics_cache WHERE id IN (
						SELECT id FROM lyrics_cache ORDER BY created_at ASC, id ASC LIMIT ?
					)`, constants.LyricsCacheEviction); err != nil {
					return fmt.Errorf("failed to evict lyrics cache: %w", err)
				}
			}
		}

		_, err := tx.Exec(`
			INSERT INTO lyrics_cache (artist, title, lyrics, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(artist, title) DO UPDATE SET lyrics = excluded.lyrics`,
			artist, title, lyrics, time.Now())
		return err
	})
}

func (db *DB) CountLyrics() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM lyrics_cache`)
	return count, err
}

func (db *DB) ClearLyricsCache() error {
	_, err := db.Exec(`DELETE FROM lyrics_cache`)
	return err
}
