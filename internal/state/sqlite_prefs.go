package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// GetColumnConfig returns the stored column configuration for key, or nil
// when nothing is stored yet.
func (s *SQLiteStore) GetColumnConfig(key string) ([]core.ColumnConfig, error) {
	raw, err := s.getPref(key)
	if err != nil || raw == nil {
		return nil, err
	}

	var configs []core.ColumnConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode column config: %w", err)
	}
	return configs, nil
}

// SetColumnConfig stores the column configuration for key, replacing any
// previous value.
func (s *SQLiteStore) SetColumnConfig(key string, configs []core.ColumnConfig) error {
	raw, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to encode column config: %w", err)
	}
	return s.setPref(key, raw)
}

// CountPreferences returns the number of stored preference entries.
func (s *SQLiteStore) CountPreferences() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM preferences`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count preferences: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) getPref(key string) (json.RawMessage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE pref_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preference: %w", err)
	}
	return json.RawMessage(value), nil
}

func (s *SQLiteStore) setPref(key string, value json.RawMessage) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		INSERT INTO preferences (pref_key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pref_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write preference: %w", err)
	}

	s.logger.Debug("preference written", "key", key)
	return nil
}

// Compile-time check that the store satisfies the grid's interface.
var _ core.PreferenceStore = (*SQLiteStore)(nil)
