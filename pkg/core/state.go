package core

import "fmt"

// PreferenceStore persists display preferences across sessions. A nil
// result with a nil error means nothing is stored for the key yet.
//
// Writes are best effort from the grid's point of view: a failed write is
// surfaced and logged but never blocks the in-memory state change.
type PreferenceStore interface {
	GetColumnConfig(key string) ([]ColumnConfig, error)
	SetColumnConfig(key string, configs []ColumnConfig) error
}

// ColumnConfigKey builds the preference key under which the column
// configuration of one browsed table is stored.
func ColumnConfigKey(connectionID, schema, table string) string {
	return fmt.Sprintf("column_config_%s_%s_%s", connectionID, schema, table)
}
