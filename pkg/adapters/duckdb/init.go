// Package duckdb provides the DuckDB database adapter.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/relgrid-labs/relgrid/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
