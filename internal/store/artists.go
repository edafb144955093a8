package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

func (db *DB) CreateArtist(artist *domain.Artist) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		var maxPos int
		if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), -1) FROM artists`); err != nil {
			return fmt.Errorf("failed to read artist positions: %w", err)
		}
		artist.Position = maxPos + 1

		res, err := tx.Exec(`INSERT INTO artists (name, position, auto_download, hidden, group_id) VALUES (?, ?, ?, ?, ?)`,
			artist.Name, artist.Position, artist.AutoDownload, artist.Hidden, artist.GroupID)
		if err != nil {
			return fmt.Errorf("failed to create artist: %w", err)
		}
		artist.ID, err = res.LastInsertId()
		return err
	})
}

// FindOrCreateArtist resolves an artist by unique name, creating it at the
// next trailing collection position if absent. Safe under concurrent callers
// through the insert-or-ignore on the name key.
func (db *DB) FindOrCreateArtist(name string) (*domain.Artist, error) {
	err := db.WithTx(func(tx *sqlx.Tx) error {
		var maxPos int
		if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), -1) FROM artists`); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT OR IGNORE INTO artists (name, position) VALUES (?, ?)`, name, maxPos+1)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find-or-create artist: %w", err)
	}
	return db.GetArtistByName(name)
}

func (db *DB) GetArtistByID(id int64) (*domain.Artist, error) {
	var artist domain.Artist
	err := db.Get(&artist, `SELECT * FROM artists WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (db *DB) GetArtistByName(name string) (*domain.Artist, error) {
	var artist domain.Artist
	err := db.Get(&artist, `SELECT * FROM artists WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (db *DB) ListArtists(includeHidden bool) ([]domain.Artist, error) {
	query := `SELECT * FROM artists ORDER BY position ASC, id ASC`
	if !includeHidden {
		query = `SELECT * FROM artists WHERE hidden = 0 ORDER BY position ASC, id ASC`
	}
	var artists []domain.Artist
	err := db.Select(&artists, query)
	return artists, err
}

func (db *DB) SetArtistAutoDownload(id int64, enabled bool) error {
	_, err := db.Exec(`UPDATE artists SET auto_download = ? WHERE id = ?`, enabled, id)
	return err
}

func (db *DB) SetArtistHidden(id int64, hidden bool) error {
	_, err := db.Exec(`UPDATE artists SET hidden = ? WHERE id = ?`, hidden, id)
	return err
}

func (db *DB) DeleteArtist(id int64) error {
	_, err := db.Exec(`DELETE FROM artists WHERE id = ?`, id)
	return err
}

// DeleteOrphanedArtists removes artists with zero rows in the artist-song
// cross-reference table. Returns the number of rows deleted.
func (db *DB) DeleteOrphanedArtists() (int64, error) {
	res, err := db.Exec(`DELETE FROM artists WHERE id NOT IN (SELECT artist_id FROM artist_songs)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned artists: %w", err)
	}
	return res.RowsAffected()
}

// LinkArtistSong appends the song to the artist's list at the next trailing
// position. Re-linking an existing pair is a no-op.
func (db *DB) LinkArtistSong(artistID, songID int64) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		pos, err := nextPosition(tx, artistSongScope, artistID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO artist_songs (artist_id, song_id, position) VALUES (?, ?, ?)`,
			artistID, songID, pos)
		return err
	})
}

func (db *DB) UnlinkArtistSong(artistID, songID int64) error {
	_, err := db.Exec(`DELETE FROM artist_songs WHERE artist_id = ? AND song_id = ?`, artistID, songID)
	return err
}

// MoveArtistSong applies a drag-reorder within one artist's song list.
func (db *DB) MoveArtistSong(artistID int64, from, to int) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		return moveWithin(tx, artistSongScope, artistID, from, to)
	})
}

// MoveArtist applies a drag-reorder of the whole artist collection.
func (db *DB) MoveArtist(from, to int) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		var ids []int64
		if err := tx.Select(&ids, `SELECT id FROM artists ORDER BY position ASC, id ASC`); err != nil {
			return err
		}
		if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
			return fmt.Errorf("move out of range: from=%d to=%d size=%d", from, to, len(ids))
		}
		id := ids[from]
		ids = append(ids[:from], ids[from+1:]...)
		ids = append(ids[:to], append([]int64{id}, ids[to:]...)...)

		for pos, artistID := range ids {
			if _, err := tx.Exec(`UPDATE artists SET position = ? WHERE id = ?`, pos, artistID); err != nil {
				return err
			}
		}
		return nil
	})
}
