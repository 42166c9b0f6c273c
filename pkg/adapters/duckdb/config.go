package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Setting names cannot be bound as statement parameters.
var settingRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// applySettings runs SET statements for each connection option, in name
// order so failures are deterministic. DuckDB coerces the quoted values
// to the setting's type.
func applySettings(ctx context.Context, db *sql.DB, options map[string]string) error {
	if len(options) == 0 {
		return nil
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !settingRe.MatchString(k) {
			return fmt.Errorf("invalid setting name %q", k)
		}
		value := strings.ReplaceAll(options[k], "'", "''")
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", k, value)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}
