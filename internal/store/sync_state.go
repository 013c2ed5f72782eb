package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sync state keys
const (
	KeyLastSync = "last_sync"
)

// GetSyncState returns the value for key, or "" when unset
func (s *Store) GetSyncState(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value
func (s *Store) SetSyncState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// LastSync returns the time of the last successful sync, zero if never
func (s *Store) LastSync() (time.Time, error) {
	v, err := s.GetSyncState(KeyLastSync)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", KeyLastSync, v, err)
	}
	return t, nil
}

// SetLastSync records a successful sync
func (s *Store) SetLastSync(t time.Time) error {
	return s.SetSyncState(KeyLastSync, t.UTC().Format(time.RFC3339))
}
