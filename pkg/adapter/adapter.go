// Package adapter defines the contract every database adapter implements
// and the shared SQL machinery they build on.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories
// and register themselves with this package's registry in their init()
// functions. Importing an adapter package with a blank identifier is all
// it takes to make its database type available.
package adapter

import (
	"context"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Config is an alias for core.ConnConfig, the connection settings shared
// across the system.
type Config = core.ConnConfig

// QueryResult is a fully materialized result set from a free-form query.
// The grid never uses this path; it exists for the REPL and the query API,
// where the statement text is the user's own.
type QueryResult struct {
	Columns []string       `json:"columns"`
	Rows    [][]core.Value `json:"rows"`
}

// Adapter is the interface every database adapter implements. Beyond
// connecting and raw statement execution it covers the three concerns the
// grid needs from a database: paged reads, row mutations and foreign key
// discovery.
type Adapter interface {
	// Connect establishes the connection described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection and its resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// ListSchemas returns the schema names of the connected database.
	ListSchemas(ctx context.Context) ([]string, error)

	// ListTables returns the table names within a schema.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// TableColumns returns the column metadata of a table, including
	// primary key membership.
	TableColumns(ctx context.Context, schema, table string) ([]core.Column, error)

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs a statement and materializes its result set.
	Query(ctx context.Context, sql string) (*QueryResult, error)

	// Dialect returns the SQL dialect descriptor for this adapter.
	Dialect() Dialect

	core.PageFetcher
	core.RowMutator
	core.RelationSource
}
