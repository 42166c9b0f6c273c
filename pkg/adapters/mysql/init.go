// Package mysql provides the MySQL database adapter.
//
// This file registers the MySQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/relgrid-labs/relgrid/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
