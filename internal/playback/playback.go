// Package playback bridges the catalog to the playback engine. It builds
// ordered playable lists from library scopes, hands them to the Player, and
// persists the singleton crash-recovery checkpoint.
package playback

import (
	"context"
	"fmt"

	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/store"
)

// Player is the audio engine collaborator. Decoding and output are out of
// scope here, the service only decides what plays and in which order.
type Player interface {
	Play(ctx context.Context, items []domain.PlayableItem, startIndex int) error
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, items []domain.PlayableItem, startIndex int) error

func (f PlayerFunc) Play(ctx context.Context, items []domain.PlayableItem, startIndex int) error {
	return f(ctx, items, startIndex)
}

type Service struct {
	db     *store.DB
	player Player
	bus    *events.Bus
	log    *logger.Logger
}

func NewService(db *store.DB, player Player, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		db:     db,
		player: player,
		bus:    bus,
		log:    log.WithComponent("playback"),
	}
}

// PlayableFromSongs maps songs to engine items, preferring the local file
// when one is materialized.
func PlayableFromSongs(songs []domain.Song) []domain.PlayableItem {
	items := make([]domain.PlayableItem, 0, len(songs))
	for _, song := range songs {
		item := domain.PlayableItem{
			URL:      song.URL,
			Title:    song.Title,
			Artist:   song.ArtistName,
			Duration: song.Duration,
		}
		if song.Downloaded() {
			item.LocalPath = *song.LocalPath
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) PlayPlaylist(ctx context.Context, playlistID int64, startIndex int) error {
	playlist, err := s.db.GetPlaylistWithSongs(playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return fmt.Errorf("playlist %d not found", playlistID)
	}
	return s.PlaySongs(ctx, playlist.Songs, startIndex)
}

func (s *Service) PlayArtist(ctx context.Context, artistID int64, startIndex int) error {
	artist, err := s.db.GetArtistWithSongs(artistID)
	if err != nil {
		return err
	}
	if artist == nil {
		return fmt.Errorf("artist %d not found", artistID)
	}
	return s.PlaySongs(ctx, artist.Songs, startIndex)
}

// PlaySongs starts the engine on an ordered list and checkpoints the new
// queue, replacing whatever checkpoint was there before.
func (s *Service) PlaySongs(ctx context.Context, songs []domain.Song, startIndex int) error {
	if len(songs) == 0 {
		return fmt.Errorf("nothing to play")
	}
	if startIndex < 0 || startIndex >= len(songs) {
		return fmt.Errorf("start index %d out of range [0,%d)", startIndex, len(songs))
	}

	items := PlayableFromSongs(songs)
	if err := s.player.Play(ctx, items, startIndex); err != nil {
		return err
	}

	queue := make(domain.URLList, len(items))
	for i, item := range items {
		queue[i] = item.URL
	}
	state := &domain.PlaybackState{
		Queue:        queue,
		CurrentIndex: startIndex,
		Playing:      true,
	}
	if err := s.db.SavePlaybackState(state); err != nil {
		s.log.Error("Failed to checkpoint playback", "error", err)
		return err
	}
	s.publish(events.TopicPlayback)
	return nil
}

// Checkpoint persists the engine's progress snapshot.
func (s *Service) Checkpoint(state *domain.PlaybackState) error {
	if err := s.db.SavePlaybackState(state); err != nil {
		return err
	}
	s.publish(events.TopicPlayback)
	return nil
}

// MarkPlayed queues a play-count increment on the checkpoint. The history
// row is written on the next Restore, so counts survive a crash between
// the listen and the flush.
func (s *Service) MarkPlayed(url string) error {
	state, err := s.db.GetPlaybackState()
	if err != nil {
		return err
	}
	if state == nil {
		state = &domain.PlaybackState{}
	}
	state.PendingPlays = append(state.PendingPlays, url)
	if err := s.db.SavePlaybackState(state); err != nil {
		return err
	}
	s.publish(events.TopicPlayback)
	return nil
}

// Restore returns the saved checkpoint, first flushing any pending play
// counts into listening history. Unknown URLs are logged and dropped.
func (s *Service) Restore(ctx context.Context) (*domain.PlaybackState, error) {
	state, err := s.db.GetPlaybackState()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	if len(state.PendingPlays) == 0 {
		return state, nil
	}

	flushed := 0
	for _, url := range state.PendingPlays {
		song, err := s.db.GetSongByURL(url)
		if err != nil {
			return nil, err
		}
		if song == nil {
			s.log.Warn("Dropping pending play for unknown song", "url", url)
			continue
		}
		if err := s.db.AppendHistory(song.ID); err != nil {
			return nil, err
		}
		flushed++
	}

	state.PendingPlays = nil
	if err := s.db.SavePlaybackState(state); err != nil {
		return nil, err
	}

	s.log.Info("Flushed pending plays", "count", flushed)
	s.publish(events.TopicHistory, events.TopicPlayback)
	return state, nil
}

func (s *Service) Clear() error {
	if err := s.db.ClearPlaybackState(); err != nil {
		return err
	}
	s.publish(events.TopicPlayback)
	return nil
}

func (s *Service) publish(topics ...events.Topic) {
	if s.bus == nil {
		return
	}
	for _, t := range topics {
		s.bus.Publish(t)
	}
}
