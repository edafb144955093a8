package store

import (
	"fmt"
	"time"

	"github.com/tunevault/tunevault/internal/domain"
)

// AppendHistory records one listening event. History is append-only; rows
// are only removed by the song-delete cascade.
func (db *DB) AppendHistory(songID int64) error {
	_, err := db.Exec(`INSERT INTO listening_history (song_id, played_at) VALUES (?, ?)`, songID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (db *DB) ListHistory(limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := db.Select(&entries, `SELECT * FROM listening_history ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	return entries, err
}

// CountPlays aggregates the play count of one song from history.
func (db *DB) CountPlays(songID int64) (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM listening_history WHERE song_id = ?`, songID)
	return count, err
}

// ListRecentlyPlayedSongs returns distinct songs ordered by most recent play.
func (db *DB) ListRecentlyPlayedSongs(limit int) ([]domain.Song, error) {
	return selectSongs(db, `
		SELECT s.* FROM songs s
		JOIN (
			SELECT song_id, MAX(played_at) AS last_played
			FROM listening_history
			GROUP BY song_id
		) h ON h.song_id = s.id
		ORDER BY h.last_played DESC, s.id DESC
		LIMIT ?`, limit)
}
