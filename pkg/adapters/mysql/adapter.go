// Package mysql provides the MySQL database adapter.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

var myDialect = adapter.Dialect{
	Name:        "mysql",
	Placeholder: adapter.PlaceholderQuestion,
	QuoteStart:  "`",
	QuoteEnd:    "`",
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQL: myDialect},
	}
}

// Connect establishes a connection to MySQL. The connected database becomes
// the dialect's default schema, so unqualified table references resolve the
// way the server resolves them.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildMySQLDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.SQL.DefaultSchema = cfg.Database
	return nil
}

// buildMySQLDSN constructs a MySQL connection string via the driver's own
// Config type, so escaping and parameter formatting match what the driver
// parses.
func buildMySQLDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysqldrv.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", host, port)
	mc.DBName = cfg.Database
	mc.ParseTime = true

	for k, v := range cfg.Options {
		if mc.Params == nil {
			mc.Params = make(map[string]string)
		}
		mc.Params[k] = v
	}

	return mc.FormatDSN()
}

// ListSchemas returns the databases visible on the server, minus the
// system ones.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY schema_name
	`)
}

// ListTables returns the base tables of a database.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	return a.ListStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
}

// TableColumns returns the column metadata of a table. MySQL exposes
// primary key membership directly through column_key.
func (a *Adapter) TableColumns(ctx context.Context, schema, table string) ([]core.Column, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if schema == "" {
		schema = a.SQL.DefaultSchema
	}

	query := `
		SELECT column_name, data_type, is_nullable, ordinal_position, column_key
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
		var nullable, key string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &key); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.PrimaryKey = key == "PRI"
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

// Relations returns every foreign key edge visible to the connection.
// key_column_usage carries the referenced side inline, so no constraint
// joins are needed.
func (a *Adapter) Relations(ctx context.Context) ([]core.Relation, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT
			table_schema,
			table_name,
			column_name,
			referenced_table_schema,
			referenced_table_name,
			referenced_column_name
		FROM information_schema.key_column_usage
		WHERE referenced_table_name IS NOT NULL
		ORDER BY table_schema, table_name, ordinal_position
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
