package domain

import (
	"time"
)

// DownloadStatus represents where a song sits in the download state machine.
type DownloadStatus string

const (
	StatusNotDownloaded DownloadStatus = "not_downloaded"
	StatusQueued        DownloadStatus = "queued"
	StatusDownloading   DownloadStatus = "downloading"
	StatusDownloaded    DownloadStatus = "downloaded"
	StatusFailed        DownloadStatus = "failed"
)

// SongKind distinguishes catalog-sourced songs from purely local files.
type SongKind string

const (
	KindStandard SongKind = "standard"
	KindLocal    SongKind = "local"
)

// Song is the central catalog entity. ArtistName is the provider-supplied
// display string; the curated Artist rows are linked through artist_songs
// and reconciled by FixMissingArtistLinks.
type Song struct {
	ID           int64          `json:"id" db:"id"`
	VideoID      *string        `json:"video_id,omitempty" db:"video_id"`
	URL          string         `json:"url" db:"url"`
	Title        string         `json:"title" db:"title"`
	ArtistName   string         `json:"artist_name" db:"artist_name"`
	Duration     int            `json:"duration" db:"duration"`
	ThumbnailURL string         `json:"thumbnail_url" db:"thumbnail_url"`
	LocalPath    *string        `json:"local_path,omitempty" db:"local_path"`
	Kind         SongKind       `json:"kind" db:"kind"`
	InLibrary    bool           `json:"in_library" db:"in_library"`
	PlayCount    int            `json:"play_count" db:"play_count"` // legacy, superseded by history
	GroupID      *int64         `json:"group_id,omitempty" db:"group_id"`
	Status       DownloadStatus `json:"download_status" db:"download_status"`
	Progress     int            `json:"download_progress" db:"download_progress"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// Downloaded reports whether the song has a materialized local file.
func (s *Song) Downloaded() bool {
	return s.Status == StatusDownloaded && s.LocalPath != nil && *s.LocalPath != ""
}

// Artist is the locally-curated, user-orderable aggregate.
type Artist struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Position     int    `json:"position" db:"position"`
	AutoDownload bool   `json:"auto_download" db:"auto_download"`
	Hidden       bool   `json:"hidden" db:"hidden"`
	GroupID      *int64 `json:"group_id,omitempty" db:"group_id"`
}

// ArtistGroup is a user-defined grouping of artists. Deleting a group
// detaches its artists, it never removes them.
type ArtistGroup struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Position int    `json:"position" db:"position"`
}

// LibraryGroup partitions the library. Songs reference it optionally,
// playlists always; both cascade when the group is deleted.
type LibraryGroup struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Playlist struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	AutoDownload bool   `json:"auto_download" db:"auto_download"`
	SortMode     string `json:"sort_mode" db:"sort_mode"`
	GroupID      int64  `json:"group_id" db:"group_id"`
}

// SongGroup is a sub-grouping of one artist's songs.
type SongGroup struct {
	ID       int64  `json:"id" db:"id"`
	ArtistID int64  `json:"artist_id" db:"artist_id"`
	Name     string `json:"name" db:"name"`
	Position int    `json:"position" db:"position"`
}

// HistoryEntry is an append-only listening log row.
type HistoryEntry struct {
	ID       int64     `json:"id" db:"id"`
	SongID   int64     `json:"song_id" db:"song_id"`
	PlayedAt time.Time `json:"played_at" db:"played_at"`
}

// QueueItem is a persisted pending download request. The song id is the
// primary key, so enqueueing is naturally idempotent.
type QueueItem struct {
	SongID    int64     `json:"song_id" db:"song_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlaybackState is the singleton crash-recovery checkpoint. The queue holds
// song URLs; PendingPlays are URLs whose history rows have not been flushed.
type PlaybackState struct {
	Queue        URLList `json:"queue" db:"queue"`
	CurrentIndex int         `json:"current_index" db:"current_index"`
	PositionMS   int64       `json:"position_ms" db:"position_ms"`
	Playing      bool        `json:"playing" db:"playing"`
	ListenedMS   int64       `json:"listened_ms" db:"listened_ms"`
	PendingPlays URLList `json:"pending_plays" db:"pending_plays"`
}

// LyricsEntry is a bounded-cache row keyed by (artist, title).
type LyricsEntry struct {
	ID        int64     `json:"id" db:"id"`
	Artist    string    `json:"artist" db:"artist"`
	Title     string    `json:"title" db:"title"`
	Lyrics    string    `json:"lyrics" db:"lyrics"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SearchEntry is a bounded search-history row.
type SearchEntry struct {
	ID        int64     `json:"id" db:"id"`
	Query     string    `json:"query" db:"query"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlaylistWithSongs groups a playlist with its member songs in custom order.
type PlaylistWithSongs struct {
	Playlist Playlist `json:"playlist"`
	Songs    []Song   `json:"songs"`
}

// ArtistWithSongs groups an artist with its linked songs in custom order.
type ArtistWithSongs struct {
	Artist Artist `json:"artist"`
	Songs  []Song `json:"songs"`
}

// GroupWithArtists groups an artist group with its member artists.
type GroupWithArtists struct {
	Group   ArtistGroup `json:"group"`
	Artists []Artist    `json:"artists"`
}

// CatalogSong is a metadata record as delivered by the remote catalog
// provider. The engine never inspects provider structure beyond these fields.
type CatalogSong struct {
	VideoID      string `json:"video_id,omitempty"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	ArtistName   string `json:"artist_name"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ToSong converts a provider record into a catalog Song with defaults.
func (c *CatalogSong) ToSong() *Song {
	s := &Song{
		URL:          c.URL,
		Title:        c.Title,
		ArtistName:   c.ArtistName,
		Duration:     c.Duration,
		ThumbnailURL: c.ThumbnailURL,
		Kind:         KindStandard,
		Status:       StatusNotDownloaded,
		CreatedAt:    time.Now(),
	}
	if c.VideoID != "" {
		id := c.VideoID
		s.VideoID = &id
	}
	return s
}

// PlayableItem is what the playback engine consumes.
type PlayableItem struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	LocalPath string `json:"local_path,omitempty"`
	Duration  int    `json:"duration"`
}
