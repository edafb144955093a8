package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

// Library groups partition songs (optional membership) and playlists
// (required membership); deleting one cascades to both.

func (db *DB) CreateLibraryGroup(group *domain.LibraryGroup) error {
	res, err := db.Exec(`INSERT INTO library_groups (name) VALUES (?)`, group.Name)
	if err != nil {
		return fmt.Errorf("failed to create library group: %w", err)
	}
	group.ID, err = res.LastInsertId()
	return err
}

func (db *DB) GetLibraryGroupByID(id int64) (*domain.LibraryGroup, error) {
	var group domain.LibraryGroup
	err := db.Get(&group, `SELECT * FROM library_groups WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (db *DB) ListLibraryGroups() ([]domain.LibraryGroup, error) {
	var groups []domain.LibraryGroup
	err := db.Select(&groups, `SELECT * FROM library_groups ORDER BY id ASC`)
	return groups, err
}

func (db *DB) DeleteLibraryGroup(id int64) error {
	_, err := db.Exec(`DELETE FROM library_groups WHERE id = ?`, id)
	return err
}

// Artist groups order artists for display; deleting one detaches its
// artists (the FK is ON DELETE SET NULL, never a cascade).

func (db *DB) CreateArtistGroup(group *domain.ArtistGroup) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		var maxPos int
		if err := tx.Get(&maxPos, `SELECT COALESCE(MAX(position), -1) FROM artist_groups`); err != nil {
			return err
		}
		group.Position = maxPos + 1

		res, err := tx.Exec(`INSERT INTO artist_groups (name, position) VALUES (?, ?)`, group.Name, group.Position)
		if err != nil {
			return fmt.Errorf("failed to create artist group: %w", err)
		}
		group.ID, err = res.LastInsertId()
		return err
	})
}

func (db *DB) GetArtistGroupByID(id int64) (*domain.ArtistGroup, error) {
	var group domain.ArtistGroup
	err := db.Get(&group, `SELECT * FROM artist_groups WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (db *DB) ListArtistGroups() ([]domain.ArtistGroup, error) {
	var groups []domain.ArtistGroup
	err := db.Select(&groups, `SELECT * FROM artist_groups ORDER BY position ASC, id ASC`)
	return groups, err
}

func (db *DB) SetArtistGroup(artistID int64, groupID *int64) error {
	_, err := db.Exec(`UPDATE artists SET group_id = ? WHERE id = ?`, groupID, artistID)
	return err
}

func (db *DB) DeleteArtistGroup(id int64) error {
	_, err := db.Exec(`DELETE FROM artist_groups WHERE id = ?`, id)
	return err
}
