package store

import (
	"database/sql"
	"fmt"

	"github.com/tunevault/tunevault/internal/domain"
)

// Playback state is a singleton crash-recovery checkpoint, never a source of
// truth for the catalog.

func (db *DB) SavePlaybackState(state *domain.PlaybackState) error {
	_, err := db.Exec(`
		INSERT INTO playback_state (id, queue, current_index, position_ms, playing, listened_ms, pending_plays)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			queue = excluded.queue,
			current_index = excluded.current_index,
			position_ms = excluded.position_ms,
			playing = excluded.playing,
			listened_ms = excluded.listened_ms,
			pending_plays = excluded.pending_plays`,
		state.Queue, state.CurrentIndex, state.PositionMS, state.Playing, state.ListenedMS, state.PendingPlays)
	if err != nil {
		return fmt.Errorf("failed to save playback state: %w", err)
	}
	return nil
}

// GetPlaybackState returns the checkpoint, or nil when none has been saved.
func (db *DB) GetPlaybackState() (*domain.PlaybackState, error) {
	var state domain.PlaybackState
	err := db.Get(&state, `SELECT queue, current_index, position_ms, playing, listened_ms, pending_plays FROM playback_state WHERE id = 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (db *DB) ClearPlaybackState() error {
	_, err := db.Exec(`DELETE FROM playback_state WHERE id = 1`)
	return err
}
