package grid

import "github.com/relgrid-labs/relgrid/pkg/core"

// ColumnView is one column of the rendered grid: the fetched column shape
// plus its display configuration and edit risk.
type ColumnView struct {
	core.Column
	Risk    RiskClass `json:"risk"`
	Visible bool      `json:"visible"`
	Order   int       `json:"order"`
}

// View is a render-ready snapshot of the whole grid state. It is what the
// HTTP API returns for a table view and what the CLI renders.
type View struct {
	Schema     string            `json:"schema"`
	Table      string            `json:"table"`
	Columns    []ColumnView      `json:"columns"`
	Rows       []core.Row        `json:"rows"`
	PrimaryKey string            `json:"primary_key,omitempty"`
	Options    core.QueryOptions `json:"options"`
	TotalRows  int64             `json:"total_rows"`
	TotalPages int               `json:"total_pages"`
	Search     SearchState       `json:"search"`
	Selected   []int             `json:"selected,omitempty"`
}

// View builds the current snapshot. It fails with ErrNotLoaded before the
// first successful fetch.
func (g *Grid) View() (*View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.page == nil {
		return nil, ErrNotLoaded
	}

	cfgByName := make(map[string]core.ColumnConfig, len(g.colcfg))
	for _, c := range g.colcfg {
		cfgByName[c.Name] = c
	}

	relmap := g.relmapLocked()
	columns := make([]ColumnView, 0, len(g.page.Columns))
	for _, col := range g.page.Columns {
		cv := ColumnView{
			Column: col,
			Risk:   relmap.Classify(col.Name, g.page.PrimaryKey),
		}
		if cfg, ok := cfgByName[col.Name]; ok {
			cv.Visible = cfg.Visible
			cv.Order = cfg.Order
		}
		columns = append(columns, cv)
	}

	return &View{
		Schema:     g.schema,
		Table:      g.table,
		Columns:    columns,
		Rows:       g.page.Rows,
		PrimaryKey: g.page.PrimaryKey,
		Options:    g.opts.QueryOptions,
		TotalRows:  g.page.TotalRows,
		TotalPages: g.page.TotalPages,
		Search:     g.search,
		Selected:   g.selectedLocked(),
	}, nil
}
