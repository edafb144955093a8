package store

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/domain"
)

// RecordSearch stores a search query, bumping its recency when it already
// exists, and trims the history to its maximum size.
func (db *DB) RecordSearch(query string) error {
	if query == "" {
		return nil
	}
	return db.WithTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO search_history (query, created_at) VALUES (?, ?)
			ON CONFLICT(query) DO UPDATE SET created_at = excluded.created_at`,
			query, time.Now()); err != nil {
			return err
		}
		_, err := tx.Exec(`
			DELETE FROM search_history WHERE id NOT IN (
				SELECT id FROM search_history ORDER BY created_at DESC, id DESC LIMIT ?
			)`, constants.SearchHistoryMaxSize)
		return err
	})
}

func (db *DB) ListRecentSearches(limit int) ([]domain.SearchEntry, error) {
	if limit <= 0 || limit > constants.SearchHistoryMaxSize {
		limit = constants.SearchHistoryMaxSize
	}
	entries := []domain.SearchEntry{}
	err := db.Select(&entries, `SELECT * FROM search_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return entries, err
}

func (db *DB) DeleteSearch(query string) error {
	_, err := db.Exec(`DELETE FROM search_history WHERE query = ?`, query)
	return err
}

func (db *DB) ClearSearchHistory() error {
	_, err := db.Exec(`DELETE FROM search_history`)
	return err
}
