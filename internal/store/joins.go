package store

import (
	"time"

	"github.com/tunevault/tunevault/internal/domain"
)

// Joined "with children" reads. Each is a single LEFT JOIN so a parent with
// no children still produces one row; the synthetic all-null child row is
// filtered out before returning to callers.

// nullableSongRow carries song columns from a left join where every child
// column may be NULL.
type nullableSongRow struct {
	SongID       *int64                 `db:"s_id"`
	VideoID      *string                `db:"s_video_id"`
	URL          *string                `db:"s_url"`
	Title        *string                `db:"s_title"`
	ArtistName   *string                `db:"s_artist_name"`
	Duration     *int                   `db:"s_duration"`
	ThumbnailURL *string                `db:"s_thumbnail_url"`
	LocalPath    *string                `db:"s_local_path"`
	Kind         *domain.SongKind       `db:"s_kind"`
	InLibrary    *bool                  `db:"s_in_library"`
	PlayCount    *int                   `db:"s_play_count"`
	GroupID      *int64                 `db:"s_group_id"`
	Status       *domain.DownloadStatus `db:"s_download_status"`
	Progress     *int                   `db:"s_download_progress"`
	CreatedAt    *time.Time             `db:"s_created_at"`
}

func (r *nullableSongRow) song() *domain.Song {
	if r.SongID == nil {
		return nil
	}
	s := &domain.Song{
		ID:        *r.SongID,
		VideoID:   r.VideoID,
		LocalPath: r.LocalPath,
		GroupID:   r.GroupID,
	}
	if r.URL != nil {
		s.URL = *r.URL
	}
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.ArtistName != nil {
		s.ArtistName = *r.ArtistName
	}
	if r.Duration != nil {
		s.Duration = *r.Duration
	}
	if r.ThumbnailURL != nil {
		s.ThumbnailURL = *r.ThumbnailURL
	}
	if r.Kind != nil {
		s.Kind = *r.Kind
	}
	if r.InLibrary != nil {
		s.InLibrary = *r.InLibrary
	}
	if r.PlayCount != nil {
		s.PlayCount = *r.PlayCount
	}
	if r.Status != nil {
		s.Status = *r.Status
	}
	if r.Progress != nil {
		s.Progress = *r.Progress
	}
	if r.CreatedAt != nil {
		s.CreatedAt = *r.CreatedAt
	}
	return s
}

const songJoinColumns = `
	s.id AS s_id, s.video_id AS s_video_id, s.url AS s_url, s.title AS s_title,
	s.artist_name AS s_artist_name, s.duration AS s_duration,
	s.thumbnail_url AS s_thumbnail_url, s.local_path AS s_local_path,
	s.kind AS s_kind, s.in_library AS s_in_library, s.play_count AS s_play_count,
	s.group_id AS s_group_id, s.download_status AS s_download_status,
	s.download_progress AS s_download_progress, s.created_at AS s_created_at`

// GetPlaylistWithSongs returns the playlist and its songs in custom order,
// or nil when the playlist does not exist.
func (db *DB) GetPlaylistWithSongs(id int64) (*domain.PlaylistWithSongs, error) {
	type row struct {
		domain.Playlist
		nullableSongRow
	}

	var rows []row
	err := db.Select(&rows, `
		SELECT p.id, p.name, p.auto_download, p.sort_mode, p.group_id,`+songJoinColumns+`
		FROM playlists p
		LEFT JOIN playlist_songs xr ON xr.playlist_id = p.id
		LEFT JOIN songs s ON s.id = xr.song_id
		WHERE p.id = ?
		ORDER BY xr.position ASC, s.id ASC`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	result := &domain.PlaylistWithSongs{Playlist: rows[0].Playlist, Songs: []domain.Song{}}
	for i := range rows {
		if s := rows[i].song(); s != nil {
			result.Songs = append(result.Songs, *s)
		}
	}
	return result, nil
}

// GetArtistWithSongs returns the artist and its linked songs in custom
// order, or nil when the artist does not exist.
func (db *DB) GetArtistWithSongs(id int64) (*domain.ArtistWithSongs, error) {
	type row struct {
		domain.Artist
		nullableSongRow
	}

	var rows []row
	err := db.Select(&rows, `
		SELECT a.id, a.name, a.position, a.auto_download, a.hidden, a.group_id,`+songJoinColumns+`
		FROM artists a
		LEFT JOIN artist_songs xr ON xr.artist_id = a.id
		LEFT JOIN songs s ON s.id = xr.song_id
		WHERE a.id = ?
		ORDER BY xr.position ASC, s.id ASC`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	result := &domain.ArtistWithSongs{Artist: rows[0].Artist, Songs: []domain.Song{}}
	for i := range rows {
		if s := rows[i].song(); s != nil {
			result.Songs = append(result.Songs, *s)
		}
	}
	return result, nil
}

// GetGroupWithArtists returns the artist group and its member artists, or
// nil when the group does not exist.
func (db *DB) GetGroupWithArtists(id int64) (*domain.GroupWithArtists, error) {
	type row struct {
		domain.ArtistGroup
		ArtistID       *int64  `db:"a_id"`
		ArtistName     *string `db:"a_name"`
		ArtistPosition *int    `db:"a_position"`
		AutoDownload   *bool   `db:"a_auto_download"`
		Hidden         *bool   `db:"a_hidden"`
	}

	var rows []row
	err := db.Select(&rows, `
		SELECT g.id, g.name, g.position,
			a.id AS a_id, a.name AS a_name, a.position AS a_position,
			a.auto_download AS a_auto_download, a.hidden AS a_hidden
		FROM artist_groups g
		LEFT JOIN artists a ON a.group_id = g.id
		WHERE g.id = ?
		ORDER BY a.position ASC, a.id ASC`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	result := &domain.GroupWithArtists{Group: rows[0].ArtistGroup, Artists: []domain.Artist{}}
	for _, r := range rows {
		if r.ArtistID == nil {
			continue
		}
		gid := r.ArtistGroup.ID
		artist := domain.Artist{ID: *r.ArtistID, GroupID: &gid}
		if r.ArtistName != nil {
			artist.Name = *r.ArtistName
		}
		if r.ArtistPosition != nil {
			artist.Position = *r.ArtistPosition
		}
		if r.AutoDownload != nil {
			artist.AutoDownload = *r.AutoDownload
		}
		if r.Hidden != nil {
			artist.Hidden = *r.Hidden
		}
		result.Artists = append(result.Artists, artist)
	}
	return result, nil
}
