// Package duckdb provides the DuckDB database adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

var duckDialect = adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   adapter.PlaceholderQuestion,
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
	SupportsILike: true,
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQL: duckDialect},
	}
}

// Connect establishes a connection to DuckDB. Use ":memory:" or an empty
// path for an in-memory database. Config options are applied as session
// settings (memory_limit, threads and friends).
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	if err := applySettings(ctx, db, cfg.Options); err != nil {
		_ = db.Close()
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// ListSchemas returns the user-created schemas of the attached databases.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT DISTINCT schema_name
		FROM duckdb_schemas()
		WHERE NOT internal
		ORDER BY schema_name
	`)
}

// ListTables returns the base tables of a schema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
}

// TableColumns returns the column metadata of a table. Primary key
// membership comes from duckdb_constraints since the information_schema
// columns view does not carry it.
func (a *Adapter) TableColumns(ctx context.Context, schema, table string) ([]core.Column, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if schema == "" {
		schema = duckDialect.DefaultSchema
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}

	pkCols, err := a.primaryKeyColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		columns[i].PrimaryKey = pkCols[columns[i].Name]
	}
	return columns, nil
}

func (a *Adapter) primaryKeyColumns(ctx context.Context, schema, table string) (map[string]bool, error) {
	query := `
		SELECT unnest(constraint_column_names)
		FROM duckdb_constraints()
		WHERE constraint_type = 'PRIMARY KEY' AND schema_name = ? AND table_name = ?
	`
	names, err := a.ListStrings(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	pk := make(map[string]bool, len(names))
	for _, n := range names {
		pk[n] = true
	}
	return pk, nil
}

// Relations returns every foreign key edge of the attached databases.
// DuckDB foreign keys cannot cross schemas, so both sides share one.
func (a *Adapter) Relations(ctx context.Context) ([]core.Relation, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	// unnest over both name lists pairs them positionally.
	query := `
		SELECT
			schema_name,
			table_name,
			unnest(constraint_column_names),
			referenced_table,
			unnest(referenced_column_names)
		FROM duckdb_constraints()
		WHERE constraint_type = 'FOREIGN KEY'
		ORDER BY schema_name, table_name
	`

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []core.Relation
	for rows.Next() {
		var r core.Relation
		if err := rows.Scan(
			&r.SourceSchema, &r.SourceTable, &r.SourceColumn,
			&r.TargetTable, &r.TargetColumn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		r.TargetSchema = r.SourceSchema
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return rels, nil
}

// FetchPage loads one page of table data.
func (a *Adapter) FetchPage(ctx context.Context, schema, table string, opts core.QueryOptions) (*core.Page, error) {
	columns, err := a.TableColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	return a.FetchPageCommon(ctx, schema, table, columns, opts)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
