package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/grid"
)

// BrowseOptions holds options for the browse command.
type BrowseOptions struct {
	Connection string
	Schema     string
	Page       int
	PageSize   int
	Sort       string
	Filters    []string
	Search     string
	Format     string
	NoHeader   bool
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &BrowseOptions{}

	cmd := &cobra.Command{
		Use:   "browse <table>",
		Short: "Browse a table as a paged grid",
		Long: `Browse one table of a configured connection as a paged grid.

The view honors the column layout saved for the table, applies sort and
filter options on the server side, and searches within the fetched page.
Browse never writes to the connection.`,
		Example: `  # First page of a table
  relgrid browse users

  # Specific connection and schema
  relgrid browse orders -c warehouse --schema sales

  # Sorted, filtered, searched
  relgrid browse users --sort created_at:desc --filter "status:eq:active" --search alice

  # Page 3 at 100 rows per page
  relgrid browse events --page 3 --page-size 100

  # Export the page as CSV
  relgrid browse users -f csv > users.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Connection, "connection", "c", "", "Connection name from relgrid.yaml")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "Schema (default: the connection's schema)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page: 10, 25, 50, 100, 250, 500")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort column, optionally column:desc")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, `Filter condition "column:op[:value]" (repeatable)`)
	cmd.Flags().StringVar(&opts.Search, "search", "", "Highlight matches within the page")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "Omit the header row in csv output")

	return cmd
}

func runBrowse(cmd *cobra.Command, tableName string, opts *BrowseOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	ctx := cmd.Context()

	switch opts.Format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q (choose table, json or csv)", opts.Format)
	}

	// Parse option flags before touching the connection
	filters, err := parseFilters(opts.Filters)
	if err != nil {
		return err
	}
	sortColumn, sortDesc, err := parseSort(opts.Sort)
	if err != nil {
		return err
	}

	cc, err := resolveConnection(cfg, opts.Connection)
	if err != nil {
		return err
	}

	ad, cleanup, err := openAdapter(ctx, cc, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	schema := opts.Schema
	if schema == "" {
		schema = cc.Schema
	}
	if schema == "" {
		schema = ad.Dialect().DefaultSchema
	}

	// Saved column layouts are useful but not essential: browse still
	// works when the preference database cannot be opened.
	var prefs core.PreferenceStore
	if store, err := openStateStore(cfg, logger); err != nil {
		logger.Warn("preference store unavailable", "error", err)
	} else {
		defer func() { _ = store.Close() }()
		prefs = store
	}

	g, err := grid.New(grid.Config{
		ConnectionID: cc.Name,
		Schema:       schema,
		Table:        tableName,
		PageSize:     cfg.PageSize(),
		Fetcher:      ad,
		Relations:    ad,
		Prefs:        prefs,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := g.Load(ctx); err != nil {
		return fmt.Errorf("failed to load %s: %w", tableName, err)
	}

	if opts.PageSize != 0 {
		if err := g.SetPageSize(ctx, opts.PageSize); err != nil {
			return err
		}
	}
	if sortColumn != "" {
		if err := g.ToggleSort(ctx, sortColumn); err != nil {
			return err
		}
		if sortDesc {
			if err := g.ToggleSort(ctx, sortColumn); err != nil {
				return err
			}
		}
	}
	if len(filters) > 0 {
		if err := g.SetFilters(ctx, filters); err != nil {
			return err
		}
	}
	if opts.Page > 1 {
		if err := g.GoToPage(ctx, opts.Page); err != nil {
			return err
		}
	}
	if opts.Search != "" {
		g.Search(opts.Search)
	}

	return renderView(cmd.OutOrStdout(), g, opts)
}

// parseSort parses the --sort flag: a column name, optionally followed by
// :asc or :desc.
func parseSort(s string) (string, bool, error) {
	if s == "" {
		return "", false, nil
	}
	column, dir, ok := strings.Cut(s, ":")
	if !ok {
		return column, false, nil
	}
	switch dir {
	case "asc":
		return column, false, nil
	case "desc":
		return column, true, nil
	}
	return "", false, fmt.Errorf("invalid sort direction %q (choose asc or desc)", dir)
}

// parseFilters parses --filter flags of the form column:op[:value]. The
// value of an in filter is a comma separated list.
func parseFilters(specs []string) ([]core.FilterCondition, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	filters := make([]core.FilterCondition, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid filter %q (expected column:op[:value])", spec)
		}
		op := core.FilterOperator(parts[1])
		if !op.Valid() {
			return nil, fmt.Errorf("unknown filter operator %q (choose from %v)", parts[1], core.FilterOperators)
		}
		cond := core.FilterCondition{Column: parts[0], Operator: op}
		switch {
		case op.Unary():
			if len(parts) == 3 {
				return nil, fmt.Errorf("filter operator %q takes no value", op)
			}
		case len(parts) < 3:
			return nil, fmt.Errorf("filter %q needs a value (column:op:value)", spec)
		case op == core.OpIn:
			for _, v := range strings.Split(parts[2], ",") {
				cond.Values = append(cond.Values, filterValue(v))
			}
		default:
			cond.Value = filterValue(parts[2])
		}
		filters = append(filters, cond)
	}
	return filters, nil
}

// filterValue coerces a flag string the way untyped JSON input coerces:
// booleans and numeric literals keep their kind, everything else is text.
func filterValue(s string) core.Value {
	switch s {
	case "true":
		return core.Bool(true)
	case "false":
		return core.Bool(false)
	}
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		return core.Number(num)
	}
	return core.Text(s)
}

func renderView(w io.Writer, g *grid.Grid, opts *BrowseOptions) error {
	switch opts.Format {
	case "json":
		v, err := g.View()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "csv":
		text, err := g.ExportCSV(!opts.NoHeader)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(w, text)
		return nil
	default:
		return renderGridTable(w, g)
	}
}

func renderGridTable(w io.Writer, g *grid.Grid) error {
	v, err := g.View()
	if err != nil {
		return err
	}

	if len(v.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	columns := visibleColumns(v)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(columns))
	for i, col := range columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range v.Rows {
		out := make(table.Row, len(columns))
		for i, col := range columns {
			out[i] = formatCell(row[col])
		}
		t.AppendRow(out)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "Page %d of %d (%d rows total)\n", v.Options.Page, v.TotalPages, v.TotalRows)
	if v.Search.Query != "" {
		_, _ = fmt.Fprintf(w, "Search %q: %d matches\n", v.Search.Query, len(v.Search.Matches))
	}
	return nil
}

// visibleColumns returns the visible column names in display order.
func visibleColumns(v *grid.View) []string {
	cols := make([]grid.ColumnView, 0, len(v.Columns))
	for _, c := range v.Columns {
		if c.Visible {
			cols = append(cols, c)
		}
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func formatCell(v core.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}
