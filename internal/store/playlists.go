package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/domain"
)

func (db *DB) CreatePlaylist(playlist *domain.Playlist) error {
	res, err := db.Exec(`INSERT INTO playlists (name, auto_download, sort_mode, group_id) VALUES (?, ?, ?, ?)`,
		playlist.Name, playlist.AutoDownload, playlist.SortMode, playlist.GroupID)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	playlist.ID, err = res.LastInsertId()
	return err
}

func (db *DB) GetPlaylistByID(id int64) (*domain.Playlist, error) {
	var playlist domain.Playlist
	err := db.Get(&playlist, `SELECT * FROM playlists WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (db *DB) ListPlaylists() ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	err := db.Select(&playlists, `SELECT * FROM playlists ORDER BY name COLLATE NOCASE ASC, id ASC`)
	return playlists, err
}

func (db *DB) RenamePlaylist(id int64, name string) error {
	res, err := db.Exec(`UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("playlist with id %d not found", id)
	}
	return nil
}

func (db *DB) SetPlaylistAutoDownload(id int64, enabled bool) error {
	_, err := db.Exec(`UPDATE playlists SET auto_download = ? WHERE id = ?`, enabled, id)
	return err
}

func (db *DB) SetPlaylistSortMode(id int64, mode string) error {
	_, err := db.Exec(`UPDATE playlists SET sort_mode = ? WHERE id = ?`, mode, id)
	return err
}

func (db *DB) DeletePlaylist(id int64) error {
	_, err := db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// AddSongToPlaylist appends the song at the next trailing position. Adding a
// song that is already a member is a no-op.
func (db *DB) AddSongToPlaylist(playlistID, songID int64) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		pos, err := nextPosition(tx, playlistSongScope, playlistID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, added_at, position) VALUES (?, ?, ?, ?)`,
			playlistID, songID, time.Now(), pos)
		return err
	})
}

func (db *DB) RemoveSongFromPlaylist(playlistID, songID int64) error {
	_, err := db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	return err
}

// MovePlaylistSong applies a drag-reorder within one playlist: the song at
// index from is reinserted at index to and the whole scope is renumbered
// 0..n-1 in one transaction.
func (db *DB) MovePlaylistSong(playlistID int64, from, to int) error {
	return db.WithTx(func(tx *sqlx.Tx) error {
		return moveWithin(tx, playlistSongScope, playlistID, from, to)
	})
}

// ListPlaylistsContainingSong returns every playlist the song is a member of.
func (db *DB) ListPlaylistsContainingSong(songID int64) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	err := db.Select(&playlists, `
		SELECT p.* FROM playlists p
		JOIN playlist_songs xr ON xr.playlist_id = p.id
		WHERE xr.song_id = ?
		ORDER BY p.id`, songID)
	return playlists, err
}

// ListArtistsLinkedToSong returns every artist linked to the song.
func (db *DB) ListArtistsLinkedToSong(songID int64) ([]domain.Artist, error) {
	var artists []domain.Artist
	err := db.Select(&artists, `
		SELECT a.* FROM artists a
		JOIN artist_songs xr ON xr.artist_id = a.id
		WHERE xr.song_id = ?
		ORDER BY a.id`, songID)
	return artists, err
}
