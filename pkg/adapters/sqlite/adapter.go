// Package sqlite provides the SQLite database adapter, backed by the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

var liteDialect = adapter.Dialect{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   adapter.PlaceholderQuestion,
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQL: liteDialect},
	}
}

// Connect opens the database file. An empty path opens an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every pool connection would otherwise open its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// ListSchemas returns the attached databases. A fresh connection has
// "main" and usually "temp".
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schemas []string
	for rows.Next() {
		var seq int
		var name, file sql.NullString
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, fmt.Errorf("failed to scan database list: %w", err)
		}
		schemas = append(schemas, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating database list: %w", err)
	}
	return schemas, nil
}

// ListTables returns the tables of an attached database, excluding the
// sqlite internal ones.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = liteDialect.DefaultSchema
	}
	query := fmt.Sprintf(`
		SELECT name FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, a.SQL.QuoteIdentifier(schema))
	return a.ListStrings(ctx, query)
}

// TableColumns returns the column metadata of a table. PRAGMA arguments
// cannot be bound, so identifiers are quoted in.
func (a *Adapter) TableColumns(ctx context.Context, schema, table string) ([]core.Column, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if schema == "" {
		schema = liteDialect.DefaultSchema
	}

	query := fmt.Sprintf("PRAGMA %s.table_info(%s)",
		a.SQL.QuoteIdentifier(schema), a.SQL.QuoteIdentifier(table))

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var cid, notNull, pk int
		var dflt sql.NullString
		var col core.Column
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		col.Position = cid + 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	// table_info on a missing table yields zero rows, not an error.
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}
	return columns, nil
}

// Relations walks every table's foreign_key_list. A foreign key declared
// without an explicit target column references the target's primary key,
// so those edges are resolved against the target table's metadata.
func (a *Adapter) Relations(ctx context.Context) ([]core.Relation, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schemas, err := a.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}

	var rels []core.Relation
	pkCache := make(map[string]string)

	for _, schema := range schemas {
		tables, err := a.ListTables(ctx, schema)
		if err != nil {
			return nil, err
		}
		for _, table := range tables {
			edges, err := a.foreignKeys(ctx, schema, table)
			if err != nil {
				return nil, err
			}
			for _, r := range edges {
				if r.TargetColumn == "" {
					pk, err := a.primaryKeyCached(ctx, pkCache, schema, r.TargetTable)
					if err != nil {
						return nil, err
					}
					r.TargetColumn = pk
				}
				rels = append(rels, r)
			}
		}
	}
	return rels, nil
}

func (a *Adapter) foreignKeys(ctx context.Context, schema, table string) ([]core.Relation, error) {
	query := fmt.Sprintf("PRAGMA %s.foreign_key_list(%s)",
		a.SQL.QuoteIdentifier(schema), a.SQL.QuoteIdentifier(table))

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []core.Relation
	for rows.Next() {
		var id, seq int
		var target, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		// Foreign keys cannot cross attached databases.
		rels = append(rels, core.Relation{
			SourceSchema: schema,
			SourceTable:  table,
			SourceColumn: from,
			TargetSchema: schema,
			TargetTable:  target,
			TargetColumn: to.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return rels, nil
}

func (a *Adapter) primaryKeyCached(ctx context.Context, cache map[string]string, schema, table string) (string, error) {
	key := schema + "." + table
	if pk, ok := cache[key]; ok {
		return pk, nil
	}
	columns, err := a.TableColumns(ctx, schema, table)
	if err != nil {
		return "", err
	}
	var pk string
	for _, c := range columns {
		if c.PrimaryKey {
			pk = c.Name
			break
		}
	}
	cache[key] = pk
	return pk, nil
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
