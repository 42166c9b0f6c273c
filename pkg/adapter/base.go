package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Ping, Exec, Query and row mutation implementations, plus the
// shared paged SELECT builder.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.ConnConfig
	Logger *slog.Logger
	SQL    Dialect
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := b.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Dialect returns the SQL dialect descriptor.
func (b *BaseSQLAdapter) Dialect() Dialect {
	return b.SQL
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement and materializes the result set.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*QueryResult, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() is checked after iteration below
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		rec, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// FetchPageCommon runs the paged SELECT for one table: a COUNT over the
// filtered set, then the page itself with sorting, limit and offset. The
// caller supplies the column metadata since introspection is per-engine;
// filter and sort columns are validated against it before any identifier
// reaches the generated SQL.
func (b *BaseSQLAdapter) FetchPageCommon(ctx context.Context, schema, table string, columns []core.Column, opts core.QueryOptions) (*core.Page, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if !core.ValidPageSize(opts.PageSize) {
		opts.PageSize = core.DefaultPageSize
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	for _, f := range opts.Filters {
		if err := f.Validate(names); err != nil {
			return nil, err
		}
	}
	if opts.Sorted() && !containsName(names, opts.SortColumn) {
		return nil, fmt.Errorf("unknown sort column %q", opts.SortColumn)
	}

	where, err := filtersToSqlizer(opts.Filters, b.SQL)
	if err != nil {
		return nil, err
	}

	rel := b.SQL.QuoteQualified(schema, table)
	format := b.SQL.placeholderFormat()

	count := squirrel.Select("COUNT(*)").From(rel).PlaceholderFormat(format)
	if where != nil {
		count = count.Where(where)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := b.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	pk := primaryKeyOf(columns)

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.SQL.QuoteIdentifier(n)
	}
	sel := squirrel.Select(quoted...).From(rel).PlaceholderFormat(format)
	if where != nil {
		sel = sel.Where(where)
	}
	switch {
	case opts.Sorted():
		dir := "ASC"
		if opts.SortDir == core.SortDesc {
			dir = "DESC"
		}
		sel = sel.OrderBy(b.SQL.QuoteIdentifier(opts.SortColumn) + " " + dir)
	case pk != "":
		// Unsorted pages still need a deterministic order or pagination
		// can show the same row twice across pages.
		sel = sel.OrderBy(b.SQL.QuoteIdentifier(pk) + " ASC")
	}
	sel = sel.Limit(uint64(opts.PageSize)).Offset(uint64(opts.Page-1) * uint64(opts.PageSize))

	selSQL, selArgs, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build page query: %w", err)
	}

	if b.Logger != nil {
		b.Logger.Debug("fetching page",
			"table", table, "page", opts.Page, "page_size", opts.PageSize, "filters", len(opts.Filters))
	}

	//nolint:rowserrcheck // rows.Err() is checked after iteration below
	rows, err := b.DB.QueryContext(ctx, selSQL, selArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pageRows []core.Row
	for rows.Next() {
		rec, err := scanValues(rows, len(names))
		if err != nil {
			return nil, err
		}
		row := make(core.Row, len(names))
		for i, n := range names {
			row[n] = rec[i]
		}
		pageRows = append(pageRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &core.Page{
		Rows:       pageRows,
		Columns:    columns,
		PrimaryKey: pk,
		TotalRows:  total,
		TotalPages: int((total + int64(opts.PageSize) - 1) / int64(opts.PageSize)),
		Number:     opts.Page,
	}, nil
}

// InsertRow inserts one row. Columns are emitted in sorted order so the
// generated SQL is deterministic.
func (b *BaseSQLAdapter) InsertRow(ctx context.Context, schema, table string, values map[string]core.Value) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(values) == 0 {
		return fmt.Errorf("no values to insert")
	}

	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = b.SQL.QuoteIdentifier(c)
		args[i] = valueArg(values[c])
	}

	ins := squirrel.Insert(b.SQL.QuoteQualified(schema, table)).
		Columns(quoted...).
		Values(args...).
		PlaceholderFormat(b.SQL.placeholderFormat())
	insSQL, insArgs, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := b.DB.ExecContext(ctx, insSQL, insArgs...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// UpdateRow applies the changes to the row addressed by key. An update
// that matches no row is an error; it means the key went stale.
func (b *BaseSQLAdapter) UpdateRow(ctx context.Context, schema, table string, key core.PrimaryKeyRef, changes []core.CellChange) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(changes) == 0 {
		return fmt.Errorf("no changes to apply")
	}

	upd := squirrel.Update(b.SQL.QuoteQualified(schema, table)).
		PlaceholderFormat(b.SQL.placeholderFormat())
	for _, ch := range changes {
		upd = upd.Set(b.SQL.QuoteIdentifier(ch.Column), valueArg(ch.Value))
	}
	upd = upd.Where(squirrel.Eq{b.SQL.QuoteIdentifier(key.Column): valueArg(key.Value)})

	updSQL, updArgs, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := b.DB.ExecContext(ctx, updSQL, updArgs...)
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update matched no row for %s = %s", key.Column, key.Value.String())
	}
	return nil
}

// DeleteRow deletes the row addressed by key. Deleting a row that is
// already gone is not an error.
func (b *BaseSQLAdapter) DeleteRow(ctx context.Context, schema, table string, key core.PrimaryKeyRef) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	del := squirrel.Delete(b.SQL.QuoteQualified(schema, table)).
		Where(squirrel.Eq{b.SQL.QuoteIdentifier(key.Column): valueArg(key.Value)}).
		PlaceholderFormat(b.SQL.placeholderFormat())
	delSQL, delArgs, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := b.DB.ExecContext(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	return nil
}

// ListStrings runs a single-column query and collects the results. Shared
// by the schema and table listing implementations.
func (b *BaseSQLAdapter) ListStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() is checked after iteration below
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ParseQualifiedName splits a table reference into schema and name, falling
// back to the dialect's default schema when unqualified.
func ParseQualifiedName(table string, d Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

func primaryKeyOf(columns []core.Column) string {
	for _, c := range columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func scanValues(rows *sql.Rows, n int) ([]core.Value, error) {
	raw := make([]any, n)
	ptrs := make([]any, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	rec := make([]core.Value, n)
	for i, r := range raw {
		rec[i] = core.ValueFromAny(r)
	}
	return rec, nil
}

// valueArg converts a Value into the argument drivers bind. Numbers bind
// as int64 when they fit, float64 otherwise.
func valueArg(v core.Value) any {
	native := v.Native()
	if n, ok := native.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return native
}
