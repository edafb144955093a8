package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Ordering helpers for the per-scope dense integer positions carried by the
// cross-reference tables. Appends take max+1; moves rewrite the whole scope
// as 0..n-1 inside the caller's transaction. Renumbering every row on a move
// trades write amplification for strict simplicity at expected list sizes.

type orderScope struct {
	table    string
	scopeCol string
	itemCol  string
}

var (
	playlistSongScope  = orderScope{"playlist_songs", "playlist_id", "song_id"}
	artistSongScope    = orderScope{"artist_songs", "artist_id", "song_id"}
	songGroupSongScope = orderScope{"song_group_songs", "group_id", "song_id"}
)

// nextPosition returns the next trailing position for a scope. The MAX query
// yields NULL for an empty scope which COALESCE maps to the -1 sentinel, so
// the first append lands on 0.
func nextPosition(tx *sqlx.Tx, sc orderScope, scopeID int64) (int, error) {
	var maxPos int
	query := fmt.Sprintf(`SELECT COALESCE(MAX(position), -1) FROM %s WHERE %s = ?`, sc.table, sc.scopeCol)
	if err := tx.Get(&maxPos, query, scopeID); err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	return maxPos + 1, nil
}

// renumberScope persists the given item ordering as sequential positions
// 0..n-1. Every item of the scope must be present in items.
func renumberScope(tx *sqlx.Tx, sc orderScope, scopeID int64, items []int64) error {
	query := fmt.Sprintf(`UPDATE %s SET position = ? WHERE %s = ? AND %s = ?`, sc.table, sc.scopeCol, sc.itemCol)
	for pos, itemID := range items {
		if _, err := tx.Exec(query, pos, scopeID, itemID); err != nil {
			return fmt.Errorf("failed to renumber item %d: %w", itemID, err)
		}
	}
	return nil
}

// orderedItems reads the scope's item ids in position order, ties broken by
// item id for determinism.
func orderedItems(tx *sqlx.Tx, sc orderScope, scopeID int64) ([]int64, error) {
	var ids []int64
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY position ASC, %s ASC`,
		sc.itemCol, sc.table, sc.scopeCol, sc.itemCol)
	if err := tx.Select(&ids, query, scopeID); err != nil {
		return nil, err
	}
	return ids, nil
}

// moveWithin removes the item at from and reinserts it at to, then renumbers
// the whole scope. Positions come out dense with the caller's permutation.
func moveWithin(tx *sqlx.Tx, sc orderScope, scopeID int64, from, to int) error {
	items, err := orderedItems(tx, sc, scopeID)
	if err != nil {
		return err
	}
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return fmt.Errorf("move out of range: from=%d to=%d size=%d", from, to, len(items))
	}

	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]int64{item}, items[to:]...)...)

	return renumberScope(tx, sc, scopeID, items)
}
