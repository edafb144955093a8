// Package library is the use-case facade over the catalog store. Every
// mutation goes through here so event publication, auto-download hooks,
// conflict checks, and per-scope reorder serialization happen in one place.
package library

import (
	"fmt"
	"time"

	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/mediastore"
	"github.com/tunevault/tunevault/internal/store"
)

// Downloads is the worker surface the facade needs: aborting a song's
// download and checking whether its transfer is in flight.
type Downloads interface {
	Cancel(songID int64) error
	Active(songID int64) bool
}

type Library struct {
	db        *store.DB
	media     *mediastore.Store
	bus       *events.Bus
	log       *logger.Logger
	locks     *scopeLocks
	downloads Downloads
}

func New(db *store.DB, media *mediastore.Store, bus *events.Bus, log *logger.Logger) *Library {
	return &Library{
		db:    db,
		media: media,
		bus:   bus,
		log:   log.WithComponent("library"),
		locks: newScopeLocks(),
	}
}

// AttachDownloads wires the download worker in after construction; the
// facade and the worker are built independently.
func (l *Library) AttachDownloads(d Downloads) {
	l.downloads = d
}

// Store exposes the underlying catalog store for read paths.
func (l *Library) Store() *store.DB {
	return l.db
}

// Media exposes the managed-directory collaborator.
func (l *Library) Media() *mediastore.Store {
	return l.media
}

// SaveSong upserts a provider metadata record into the library, optionally
// into a library group.
func (l *Library) SaveSong(record domain.CatalogSong, groupID *int64) (*domain.Song, error) {
	song := record.ToSong()
	song.GroupID = groupID
	song.InLibrary = true

	stored, err := l.db.UpsertSong(song)
	if err != nil {
		return nil, err
	}
	if !stored.InLibrary {
		if err := l.db.SetSongInLibrary(stored.ID, true); err != nil {
			return nil, err
		}
		stored.InLibrary = true
	}
	l.bus.Publish(events.TopicSongs)
	return stored, nil
}

// RegisterLocalSong adds a file that already lives in the managed directory
// as a local-only song. Local songs never enter the download queue.
func (l *Library) RegisterLocalSong(path, title, artistName string) (*domain.Song, error) {
	if err := l.media.Verify(path); err != nil {
		return nil, fmt.Errorf("local file is not readable: %w", err)
	}

	song := &domain.Song{
		URL:        "file://" + path,
		Title:      title,
		ArtistName: artistName,
		LocalPath:  &path,
		Kind:       domain.KindLocal,
		InLibrary:  true,
		Status:     domain.StatusDownloaded,
		Progress:   100,
		CreatedAt:  time.Now(),
	}
	stored, err := l.db.UpsertDownloadedSong(song)
	if err != nil {
		return nil, err
	}
	if !stored.InLibrary {
		if err := l.db.SetSongInLibrary(stored.ID, true); err != nil {
			return nil, err
		}
		stored.InLibrary = true
	}
	l.bus.Publish(events.TopicSongs)
	return stored, nil
}

// autoDownloadConflict returns the first owner that would immediately
// re-download the song after its file disappears.
func (l *Library) autoDownloadConflict(songID int64) (*ConflictError, error) {
	playlists, err := l.db.ListPlaylistsContainingSong(songID)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		if p.AutoDownload {
			return &ConflictError{Scope: "playlist", Name: p.Name}, nil
		}
	}

	artists, err := l.db.ListArtistsLinkedToSong(songID)
	if err != nil {
		return nil, err
	}
	for _, a := range artists {
		if a.AutoDownload {
			return &ConflictError{Scope: "artist", Name: a.Name}, nil
		}
	}
	return nil, nil
}

// DeleteSong removes a song and, through cascades, all of its
// cross-references. A queued or in-flight download is cancelled first so the
// worker cannot finish a transfer for a row that no longer exists. Deleting
// a downloaded song while an owning playlist or artist has auto-download
// enabled is refused with a ConflictError.
func (l *Library) DeleteSong(id int64) error {
	song, err := l.db.GetSongByID(id)
	if err != nil {
		return err
	}
	if song == nil {
		return ErrSongNotFound
	}

	if l.downloads != nil && (song.Status == domain.StatusQueued || song.Status == domain.StatusDownloading) {
		if err := l.downloads.Cancel(id); err != nil {
			l.log.Warn("failed to cancel download before delete", "song_id", id, "error", err)
		}
	}

	if song.Downloaded() {
		conflict, err := l.autoDownloadConflict(id)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}
		if err := l.media.Delete(*song.LocalPath); err != nil {
			l.log.Warn("failed to delete song file", "path", *song.LocalPath, "error", err)
		}
	}

	if err := l.db.DeleteSong(id); err != nil {
		return err
	}
	l.bus.Publish(events.TopicSongs, events.TopicPlaylists, events.TopicArtists, events.TopicQueue, events.TopicHistory)
	return nil
}

// RemoveDownload deletes a song's local file and resets its download state,
// keeping the catalog row. Refused with a ConflictError while auto-download
// owns the song.
func (l *Library) RemoveDownload(id int64) error {
	song, err := l.db.GetSongByID(id)
	if err != nil {
		return err
	}
	if song == nil {
		return ErrSongNotFound
	}
	if !song.Downloaded() {
		return nil
	}

	conflict, err := l.autoDownloadConflict(id)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflict
	}

	if err := l.media.Delete(*song.LocalPath); err != nil {
		l.log.Warn("failed to delete song file", "path", *song.LocalPath, "error", err)
	}
	if err := l.db.ClearSongLocalFile(id); err != nil {
		return err
	}
	l.bus.Publish(events.TopicSongs)
	return nil
}

// LinkSongToArtist links the song to the named artist, creating the artist
// at the next collection position when absent.
func (l *Library) LinkSongToArtist(songID int64, name string) (*domain.Artist, error) {
	artist, err := l.db.FindOrCreateArtist(name)
	if err != nil {
		return nil, err
	}
	if err := l.db.LinkArtistSong(artist.ID, songID); err != nil {
		return nil, err
	}
	l.bus.Publish(events.TopicArtists)
	return artist, nil
}

// UnlinkSongFromArtist removes one artist-song cross-reference.
func (l *Library) UnlinkSongFromArtist(artistID, songID int64) error {
	if err := l.db.UnlinkArtistSong(artistID, songID); err != nil {
		return err
	}
	l.bus.Publish(events.TopicArtists)
	return nil
}

// CreatePlaylist creates a playlist inside a library group.
func (l *Library) CreatePlaylist(name string, groupID int64) (*domain.Playlist, error) {
	playlist := &domain.Playlist{Name: name, GroupID: groupID}
	if err := l.db.CreatePlaylist(playlist); err != nil {
		return nil, err
	}
	l.bus.Publish(events.TopicPlaylists)
	return playlist, nil
}

func (l *Library) RenamePlaylist(id int64, name string) error {
	if err := l.db.RenamePlaylist(id, name); err != nil {
		return err
	}
	l.bus.Publish(events.TopicPlaylists)
	return nil
}

func (l *Library) DeletePlaylist(id int64) error {
	if err := l.db.DeletePlaylist(id); err != nil {
		return err
	}
	l.bus.Publish(events.TopicPlaylists)
	return nil
}

// AddSongToPlaylist appends the song and, when the playlist has
// auto-download enabled, enqueues it.
func (l *Library) AddSongToPlaylist(playlistID, songID int64) error {
	playlist, err := l.db.GetPlaylistByID(playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return fmt.Errorf("playlist with id %d not found", playlistID)
	}

	if err := l.db.AddSongToPlaylist(playlistID, songID); err != nil {
		return err
	}
	if playlist.AutoDownload {
		if _, err := l.db.EnqueueDownload(songID); err != nil {
			l.log.Warn("auto-download enqueue failed", "song_id", songID, "error", err)
		} else {
			l.bus.Publish(events.TopicQueue)
		}
	}
	l.bus.Publish(events.TopicPlaylists)
	return nil
}

func (l *Library) RemoveSongFromPlaylist(playlistID, songID int64) error {
	if err := l.db.RemoveSongFromPlaylist(playlistID, songID); err != nil {
		return err
	}
	l.bus.Publish(events.TopicPlaylists)
	return nil
}

// MovePlaylistSong reorders one playlist, serialized per playlist.
func (l *Library) MovePlaylistSong(playlistID int64, from, to int) error {
	lock := l.locks.get("playlist", playlistID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.db.MovePlaylistSong(playlistID, from, to); err != nil {
		return err
	}
	l.bus.Publish(events.TopicPlaylists)
	return nil
}

// MoveArtistSong reorders one artist's song list, serialized per artist.
func (l *Library) MoveArtistSong(artistID int64, from, to int) error {
	lock := l.locks.get("artist", artistID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.db.MoveArtistSong(artistID, from, to); err != nil {
		return err
	}
	l.bus.Publish(events.TopicArtists)
	return nil
}

// MoveArtist reorders the whole artist collection.
func (l *Library) MoveArtist(from, to int) error {
	lock := l.locks.get("artists", 0)
	lock.Lock()
	defer lock.Unlock()

	if err := l.db.MoveArtist(from, to); err != nil {
		return err
	}
	l.bus.Publish(events.TopicArtists)
	return nil
}

// MoveSongGroupSong reorders one song group, serialized per group.
func (l *Library) MoveSongGroupSong(groupID int64, from, to int) error {
	lock := l.locks.get("songgroup", groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.db.MoveSongGroupSong(groupID, from, to); err != nil {
		return err
	}
	l.bus.Publish(events.TopicGroups)
	return nil
}

// SetPlaylistAutoDownload toggles auto-download; enabling batch-enqueues the
// playlist's current members.
func (l *Library) SetPlaylistAutoDownload(id int64, enabled bool) (int, error) {
	if err := l.db.SetPlaylistAutoDownload(id, enabled); err != nil {
		return 0, err
	}
	l.bus.Publish(events.TopicPlaylists)
	if !enabled {
		return 0, nil
	}

	withSongs, err := l.db.GetPlaylistWithSongs(id)
	if err != nil {
		return 0, err
	}
	if withSongs == nil {
		return 0, nil
	}
	return l.enqueueMembers(withSongs.Songs)
}

// SetArtistAutoDownload toggles auto-download; enabling batch-enqueues the
// artist's current songs.
func (l *Library) SetArtistAutoDownload(id int64, enabled bool) (int, error) {
	if err := l.db.SetArtistAutoDownload(id, enabled); err != nil {
		return 0, err
	}
	l.bus.Publish(events.TopicArtists)
	if !enabled {
		return 0, nil
	}

	withSongs, err := l.db.GetArtistWithSongs(id)
	if err != nil {
		return 0, err
	}
	if withSongs == nil {
		return 0, nil
	}
	return l.enqueueMembers(withSongs.Songs)
}

// enqueueMembers batch-enqueues downloads for the given songs. Local songs
// and already-queued or downloaded members are skipped.
func (l *Library) enqueueMembers(songs []domain.Song) (int, error) {
	var ids []int64
	for _, song := range songs {
		if song.Kind == domain.KindLocal {
			continue
		}
		ids = append(ids, song.ID)
	}
	enqueued, err := l.db.EnqueueDownloads(ids)
	if err != nil {
		return 0, err
	}
	if enqueued > 0 {
		l.bus.Publish(events.TopicQueue)
	}
	return enqueued, nil
}

// EnqueueDownload requests a download for one song. Local songs are refused.
func (l *Library) EnqueueDownload(songID int64) (bool, error) {
	song, err := l.db.GetSongByID(songID)
	if err != nil {
		return false, err
	}
	if song == nil {
		return false, ErrSongNotFound
	}
	if song.Kind == domain.KindLocal {
		return false, fmt.Errorf("local song %d cannot be downloaded", songID)
	}

	created, err := l.db.EnqueueDownload(songID)
	if err != nil {
		return false, err
	}
	if created {
		l.bus.Publish(events.TopicQueue)
	}
	return created, nil
}

// RecordPlay appends one listening-history row.
func (l *Library) RecordPlay(songID int64) error {
	if err := l.db.AppendHistory(songID); err != nil {
		return err
	}
	l.bus.Publish(events.TopicHistory)
	return nil
}
