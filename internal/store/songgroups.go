package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

// Song groups sub-divide one artist's songs; both the group and its song
// cross-references cascade away with the artist.

func (db *DB) CreateSongGroup(group *domain.SongGroup) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		var maxPos int
		if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), -1) FROM song_groups WHERE artist_id = ?`, group.ArtistID); err != nil {
			return err
		}
		group.Position = maxPos + 1

		res, err := tx.Exec(`INSERT INTO song_groups (artist_id, name, position) VALUES (?, ?, ?)`,
			group.ArtistID, group.Name, group.Position)
		if err != nil {
			return fmt.Errorf("failed to create song group: %w", err)
		}
		group.ID, err = res.LastInsertId()
		return err
	})
}

func (db *DB) GetSongGroupByID(id int64) (*domain.SongGroup, error) {
	var group domain.SongGroup
	err := db.Get(&group, `SELECT * FROM song_groups WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (db *DB) ListSongGroupsForArtist(artistID int64) ([]domain.SongGroup, error) {
	var groups []domain.SongGroup
	err := db.Select(&groups, `SELECT * FROM song_groups WHERE artist_id = ? ORDER BY position ASC, id ASC`, artistID)
	return groups, err
}

func (db *DB) DeleteSongGroup(id int64) error {
	_, err := db.Exec(`DELETE FROM song_groups WHERE id = ?`, id)
	return err
}

// AddSongToSongGroup appends at the next trailing position; re-adding an
// existing member is a no-op.
func (db *DB) AddSongToSongGroup(groupID, songID int64) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		pos, err := nextPosition(tx, songGroupSongScope, groupID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO song_group_songs (group_id, song_id, position) VALUES (?, ?, ?)`,
			groupID, songID, pos)
		return err
	})
}

func (db *DB) RemoveSongFromSongGroup(groupID, songID int64) error {
	_, err := db.Exec(`DELETE FROM song_group_songs WHERE group_id = ? AND song_id = ?`, groupID, songID)
	return err
}

func (db *DB) MoveSongGroupSong(groupID int64, from, to int) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		return moveWithin(tx, songGroupSongScope, groupID, from, to)
	})
}

func (db *DB) ListSongGroupSongs(groupID int64) ([]domain.Song, error) {
	return selectSongs(db, `
		SELECT s.* FROM song_group_songs xr
		JOIN songs s ON s.id = xr.song_id
		WHERE xr.group_id = ?
		ORDER BY xr.position ASC, s.id ASC`, groupID)
}
