// Package postgres provides the PostgreSQL database adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

var pgDialect = adapter.Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   adapter.PlaceholderDollar,
	QuoteStart:    `"`,
	QuoteEnd:      `"`,
	SupportsILike: true,
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQL: pgDialect},
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// ListSchemas returns the user-visible schemas of the connected database.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT LIKE 'pg\_%' AND schema_name <> 'information_schema'
		ORDER BY schema_name
	`)
}

// ListTables returns the base tables of a schema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
}

// TableColumns returns the column metadata of a table, including primary
// key membership.
func (a *Adapter) TableColumns(ctx context.Context, schema, table string) ([]core.Column, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if schema == "" {
		schema = pgDialect.DefaultSchema
	}

	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.ordinal_position,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON kcu.constraint_name = tc.constraint_name
					AND kcu.table_schema = tc.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND kcu.column_name = c.column_name
			) AS is_primary
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
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
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &col.PrimaryKey); err != nil {
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
	return columns, nil
}

// Relations returns every foreign key edge of the connected database.
// Composite keys contribute one edge per column pair.
func (a *Adapter) Relations(ctx context.Context) ([]core.Relation, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT
			tc.table_schema,
			tc.table_name,
			kcu.column_name,
			ccu.table_schema,
			ccu.table_name,
			ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.table_schema, tc.table_name, kcu.column_name
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
			&r.TargetSchema, &r.TargetTable, &r.TargetColumn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
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
