package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

func (db *DB) CreateSong(song *domain.Song) error {
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}

	query := `INSERT INTO songs (
		video_id, url, title, artist_name, duration, thumbnail_url,
		local_path, kind, in_library, play_count, group_id,
		download_status, download_progress, created_at
	) VALUES (
		:video_id, :url, :title, :artist_name, :duration, :thumbnail_url,
		:local_path, :kind, :in_library, :play_count, :group_id,
		:download_status, :download_progress, :created_at
	) RETURNING id`

	rows, err := db.NamedQuery(query, song)
	if err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	if rows.Next() {
		if err := rows.Scan(&song.ID); err != nil {
			return fmt.Errorf("failed to scan song id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}

	return nil
}

// UpsertSong inserts the song, or if one with the same canonical URL already
// exists refreshes its provider metadata in place. The existing row's
// library/download state is untouched. Returns the stored song.
func (db *DB) UpsertSong(song *domain.Song) (*domain.Song, error) {
	existing, err := db.GetSongByURL(song.URL)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := db.CreateSong(song); err != nil {
			return nil, err
		}
		return song, nil
	}

	_, err = db.Exec(`UPDATE songs SET title = ?, artist_name = ?, duration = ?, thumbnail_url = ? WHERE id = ?`,
		song.Title, song.ArtistName, song.Duration, song.ThumbnailURL, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh song metadata: %w", err)
	}
	return db.GetSongByID(existing.ID)
}

// UpsertDownloadedSong records a completed download. If a song with the same
// canonical URL exists only its local-file reference and download state are
// updated, which makes duplicate download completions idempotent.
func (db *DB) UpsertDownloadedSong(song *domain.Song) (*domain.Song, error) {
	song.Status = domain.StatusDownloaded
	song.Progress = 100
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}

	_, err := db.NamedExec(`INSERT INTO songs (
			video_id, url, title, artist_name, duration, thumbnail_url,
			local_path, kind, in_library, play_count, group_id,
			download_status, download_progress, created_at
		) VALUES (
			:video_id, :url, :title, :artist_name, :duration, :thumbnail_url,
			:local_path, :kind, :in_library, :play_count, :group_id,
			:download_status, :download_progress, :created_at
		)
		ON CONFLICT(url) DO UPDATE SET
			local_path = excluded.local_path,
			download_status = excluded.download_status,
			download_progress = excluded.download_progress`, song)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert downloaded song: %w", err)
	}

	return db.GetSongByURL(song.URL)
}

// SetSongDownloaded records a completed download against the claimed row.
// Returns false when the song was deleted while the transfer ran, so the
// caller can discard the file instead of re-creating the row.
func (db *DB) SetSongDownloaded(id int64, localPath string) (bool, error) {
	res, err := db.Exec(`UPDATE songs SET local_path = ?, download_status = ?, download_progress = 100 WHERE id = ?`,
		localPath, domain.StatusDownloaded, id)
	if err != nil {
		return false, fmt.Errorf("failed to record download: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) GetSongByID(id int64) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, `SELECT * FROM songs WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (db *DB) GetSongByURL(url string) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, `SELECT * FROM songs WHERE url = ?`, url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (db *DB) ListLibrarySongs() ([]domain.Song, error) {
	var songs []domain.Song
	err := db.Select(&songs, `SELECT * FROM songs WHERE in_library = 1 ORDER BY created_at DESC, id DESC`)
	return songs, err
}

func (db *DB) ListSongsByStatus(status domain.DownloadStatus) ([]domain.Song, error) {
	var songs []domain.Song
	err := db.Select(&songs, `SELECT * FROM songs WHERE download_status = ? ORDER BY id`, status)
	return songs, err
}

// ListSongsWithLocalFiles returns every song holding a local-file reference,
// regardless of download status.
func (db *DB) ListSongsWithLocalFiles() ([]domain.Song, error) {
	var songs []domain.Song
	err := db.Select(&songs, `SELECT * FROM songs WHERE local_path IS NOT NULL AND local_path != '' ORDER BY id`)
	return songs, err
}

// ListSongsWithoutArtistLinks returns songs with no artist cross-reference.
func (db *DB) ListSongsWithoutArtistLinks() ([]domain.Song, error) {
	var songs []domain.Song
	err := db.Select(&songs, `
		SELECT s.* FROM songs s
		LEFT JOIN artist_songs xr ON xr.song_id = s.id
		WHERE xr.song_id IS NULL
		ORDER BY s.id`)
	return songs, err
}

func (db *DB) SetSongInLibrary(id int64, inLibrary bool) error {
	_, err := db.Exec(`UPDATE songs SET in_library = ? WHERE id = ?`, inLibrary, id)
	return err
}

// SetSongStatus transitions the download state unconditionally. Use
// CompareAndSetSongStatus for transitions racing with cancellation.
func (db *DB) SetSongStatus(id int64, status domain.DownloadStatus, progress int) error {
	_, err := db.Exec(`UPDATE songs SET download_status = ?, download_progress = ? WHERE id = ?`, status, progress, id)
	return err
}

// CompareAndSetSongStatus transitions download state only when the current
// status matches from, so a stale worker never overwrites a newer transition.
// Returns whether the transition was applied.
func (db *DB) CompareAndSetSongStatus(id int64, from, to domain.DownloadStatus, progress int) (bool, error) {
	res, err := db.Exec(`UPDATE songs SET download_status = ?, download_progress = ? WHERE id = ? AND download_status = ?`,
		to, progress, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetSongProgress is a last-writer-wins update for the non-structural
// progress field; it deliberately leaves the status alone.
func (db *DB) SetSongProgress(id int64, progress int) error {
	_, err := db.Exec(`UPDATE songs SET download_progress = ? WHERE id = ?`, progress, id)
	return err
}

// ClearSongLocalFile drops the local-file reference and resets download
// state. The song row itself is kept.
func (db *DB) ClearSongLocalFile(id int64) error {
	_, err := db.Exec(`UPDATE songs SET local_path = NULL, download_status = ?, download_progress = 0 WHERE id = ?`,
		domain.StatusNotDownloaded, id)
	return err
}

func (db *DB) DeleteSong(id int64) error {
	_, err := db.Exec(`DELETE FROM songs WHERE id = ?`, id)
	return err
}

// DeleteOrphanSongs removes songs that are not in the library, not in any
// playlist, and not referenced by listening history. Returns the number of
// rows deleted.
func (db *DB) DeleteOrphanSongs() (int64, error) {
	res, err := db.Exec(`
		DELETE FROM songs
		WHERE in_library = 0
		  AND id NOT IN (SELECT song_id FROM playlist_songs)
		  AND id NOT IN (SELECT song_id FROM listening_history)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan songs: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) SearchSongs(q string, limit int) ([]domain.Song, error) {
	term := "%" + q + "%"
	var songs []domain.Song
	err := db.Select(&songs, `SELECT * FROM songs WHERE title LIKE ? OR artist_name LIKE ? ORDER BY created_at DESC LIMIT ?`,
		term, term, limit)
	return songs, err
}

func selectSongs(q sqlx.Queryer, query string, args ...interface{}) ([]domain.Song, error) {
	var songs []domain.Song
	err := sqlx.Select(q, &songs, query, args...)
	return songs, err
}
