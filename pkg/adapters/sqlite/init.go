// Package sqlite provides the SQLite database adapter.
//
// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/relgrid-labs/relgrid/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
