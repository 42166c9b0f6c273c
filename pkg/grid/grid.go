package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/csvcodec"
)

// Config configures a Grid. Fetcher is required; the other collaborators
// degrade gracefully when absent: no mutator makes the grid read only, no
// relation source disables foreign key warnings and navigation, no
// preference store keeps column configuration session-local.
type Config struct {
	ConnectionID string
	Schema       string
	Table        string

	// PageSize is the initial rows-per-page. Values outside the offered
	// set fall back to the default.
	PageSize int

	Fetcher   core.PageFetcher
	Mutator   core.RowMutator
	Relations core.RelationSource
	Prefs     core.PreferenceStore

	Logger *slog.Logger
}

// Grid owns the complete view state of one browsed table: query options,
// the loaded page, column configuration, search state, row selection and
// in-flight cell edits. All exported methods are safe for concurrent use.
//
// Remote calls run outside the mutex. Every fetch carries a sequence
// number taken when it was issued; a response whose sequence no longer
// matches the latest issued one is discarded, so a late page can never
// overwrite the state of a newer transition.
type Grid struct {
	fetcher   core.PageFetcher
	mutator   core.RowMutator
	relations core.RelationSource
	prefs     core.PreferenceStore
	logger    *slog.Logger

	connectionID string
	schema       string
	table        string

	mu       sync.Mutex
	seq      uint64
	opts     Options
	page     *core.Page
	relmap   *RelationMap
	colcfg   []core.ColumnConfig
	search   SearchState
	selected map[int]bool
	sessions map[CellRef]EditSession
}

// ImportReport summarizes a CSV paste import. Malformed rows never abort
// the import; they are counted and described here.
type ImportReport struct {
	Inserted int      `json:"inserted"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// New creates a Grid for one (connection, schema, table) context.
func New(cfg Config) (*Grid, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := NewOptions()
	if core.ValidPageSize(cfg.PageSize) {
		opts = opts.WithPageSize(cfg.PageSize)
	}
	return &Grid{
		fetcher:      cfg.Fetcher,
		mutator:      cfg.Mutator,
		relations:    cfg.Relations,
		prefs:        cfg.Prefs,
		logger:       logger,
		connectionID: cfg.ConnectionID,
		schema:       cfg.Schema,
		table:        cfg.Table,
		opts:         opts,
		selected:     make(map[int]bool),
		sessions:     make(map[CellRef]EditSession),
	}, nil
}

// Load fetches the page for the current query options. It is also the
// refresh operation; mutations call it after committing.
func (g *Grid) Load(ctx context.Context) error {
	return g.reload(ctx)
}

// GoToPage navigates to page n (clamped once the total is known) and
// fetches it.
func (g *Grid) GoToPage(ctx context.Context, n int) error {
	return g.transition(ctx, func(o Options) Options { return o.GoToPage(n) })
}

// ToggleSort cycles the sort state of a column and refetches from the
// first page.
func (g *Grid) ToggleSort(ctx context.Context, column string) error {
	if err := g.requireColumn(column); err != nil {
		return err
	}
	return g.transition(ctx, func(o Options) Options { return o.ToggleSort(column) })
}

// SetFilters replaces the active filter set and refetches from the first
// page. Conditions are validated against the loaded columns; an invalid
// set changes nothing.
func (g *Grid) SetFilters(ctx context.Context, filters []core.FilterCondition) error {
	g.mu.Lock()
	if g.page != nil {
		columns := g.page.ColumnNames()
		for _, f := range filters {
			if err := f.Validate(columns); err != nil {
				g.mu.Unlock()
				return err
			}
		}
	}
	g.mu.Unlock()
	return g.transition(ctx, func(o Options) Options { return o.WithFilters(filters) })
}

// ClearFilters removes all filters and refetches from the first page.
func (g *Grid) ClearFilters(ctx context.Context) error {
	return g.transition(ctx, func(o Options) Options { return o.ClearFilters() })
}

// SetPageSize switches the page size and refetches from the first page.
// Sizes outside core.PageSizes are rejected.
func (g *Grid) SetPageSize(ctx context.Context, n int) error {
	if !core.ValidPageSize(n) {
		return fmt.Errorf("page size %d is not offered", n)
	}
	return g.transition(ctx, func(o Options) Options { return o.WithPageSize(n) })
}

// Options returns the current query options state.
func (g *Grid) Options() Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts
}

// Page returns the loaded page, or nil before the first successful fetch.
// The page is immutable once published.
func (g *Grid) Page() *core.Page {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.page
}

// Search scans every cell of the loaded page for query and focuses the
// first match. Search is scoped to the loaded page and never reaches the
// remote source.
func (g *Grid) Search(query string) SearchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.page == nil {
		g.search = SearchState{Query: query, Current: -1}
		return g.search
	}
	g.search = SearchPage(g.page.Rows, g.page.ColumnNames(), query)
	return g.search
}

// NextMatch advances match focus, wrapping at the end.
func (g *Grid) NextMatch() SearchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.search = g.search.Next()
	return g.search
}

// PrevMatch steps match focus back, wrapping at the start.
func (g *Grid) PrevMatch() SearchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.search = g.search.Prev()
	return g.search
}

// ClearSearch resets the search state.
func (g *Grid) ClearSearch() SearchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.search = SearchState{Current: -1}
	return g.search
}

// SearchState returns the current search state.
func (g *Grid) SearchState() SearchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.search
}

// ColumnConfigs returns the current column configuration.
func (g *Grid) ColumnConfigs() []core.ColumnConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]core.ColumnConfig(nil), g.colcfg...)
}

// DisplayColumns returns the visible column names in display order.
func (g *Grid) DisplayColumns() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return DisplayColumns(g.colcfg)
}

// ToggleColumn flips the visibility of a column and persists the
// configuration. The in-memory state is updated even when persistence
// fails; the write error is still returned.
func (g *Grid) ToggleColumn(name string) error {
	g.mu.Lock()
	cfg, ok := ToggleColumn(g.colcfg, name)
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	g.colcfg = cfg
	snapshot := append([]core.ColumnConfig(nil), cfg...)
	g.mu.Unlock()
	return g.persistColumns(snapshot)
}

// MoveColumn moves a column to a new display position and persists the
// configuration, with the same best-effort semantics as ToggleColumn.
func (g *Grid) MoveColumn(name string, to int) error {
	g.mu.Lock()
	cfg, ok := MoveColumn(g.colcfg, name, to)
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	g.colcfg = cfg
	snapshot := append([]core.ColumnConfig(nil), cfg...)
	g.mu.Unlock()
	return g.persistColumns(snapshot)
}

// SelectRow marks a row of the loaded page as selected.
func (g *Grid) SelectRow(row int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkRowLocked(row); err != nil {
		return err
	}
	g.selected[row] = true
	return nil
}

// DeselectRow removes a row from the selection.
func (g *Grid) DeselectRow(row int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.selected, row)
}

// ClearSelection empties the selection.
func (g *Grid) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = make(map[int]bool)
}

// SelectedRows returns the selected row indexes in ascending order.
func (g *Grid) SelectedRows() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selectedLocked()
}

// ExportCSV renders the selected rows (or the whole page when nothing is
// selected) as CSV, using the visible columns in display order.
func (g *Grid) ExportCSV(includeHeader bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.page == nil {
		return "", ErrNotLoaded
	}

	rows := g.page.Rows
	if len(g.selected) > 0 {
		rows = make([]core.Row, 0, len(g.selected))
		for _, i := range g.selectedLocked() {
			rows = append(rows, g.page.Rows[i])
		}
	}

	return csvcodec.Encode(rows, DisplayColumns(g.colcfg), includeHeader), nil
}

// ImportCSV parses pasted CSV text and inserts its rows. Unknown columns
// are ignored, empty fields become NULL, and rows that fail to parse or
// insert are counted and reported without aborting the rest. The page is
// refreshed when anything was inserted.
func (g *Grid) ImportCSV(ctx context.Context, text string) (ImportReport, error) {
	g.mu.Lock()
	if g.page == nil {
		g.mu.Unlock()
		return ImportReport{}, ErrNotLoaded
	}
	if g.mutator == nil {
		g.mu.Unlock()
		return ImportReport{}, ErrReadOnly
	}
	types := make(map[string]string, len(g.page.Columns))
	for _, c := range g.page.Columns {
		types[c.Name] = c.Type
	}
	g.mu.Unlock()

	var report ImportReport
	doc := csvcodec.Decode(text)
	if len(doc.Columns) == 0 || len(doc.Rows) == 0 {
		return report, nil
	}

	for i, raw := range doc.Rows {
		values, err := importValues(raw, types)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if err := g.mutator.InsertRow(ctx, g.schema, g.table, values); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		report.Inserted++
	}

	g.logger.Debug("csv import finished",
		"table", g.table, "inserted", report.Inserted, "failed", report.Failed)

	if report.Inserted > 0 {
		if err := g.reload(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
			g.logger.Warn("failed to refresh after import", "error", err)
		}
	}
	return report, nil
}

// BeginEdit opens an edit session for a cell. Primary and foreign key
// columns start in the awaiting-confirm phase; a cell whose previous edit
// is still committing rejects re-entry.
func (g *Grid) BeginEdit(row int, column string) (EditSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkRowLocked(row); err != nil {
		return EditSession{}, err
	}
	colType, ok := g.columnTypeLocked(column)
	if !ok {
		return EditSession{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	cell := CellRef{Row: row, Column: column}
	if s, exists := g.sessions[cell]; exists && s.Phase == EditCommitting {
		return EditSession{}, ErrCommitting
	}

	risk := g.relmapLocked().Classify(column, g.page.PrimaryKey)
	s := NewEditSession(cell, risk, g.page.Rows[row].Get(column), colType)
	g.sessions[cell] = s

	g.logger.Debug("edit session opened", "cell", cell.String(), "risk", string(risk))
	return s, nil
}

// ConfirmEdit acknowledges the risk warning for a cell.
func (g *Grid) ConfirmEdit(row int, column string) (EditSession, error) {
	return g.updateSession(CellRef{Row: row, Column: column}, EditSession.Confirm)
}

// SetStaged replaces the staged text of a cell's edit session.
func (g *Grid) SetStaged(row int, column, text string) (EditSession, error) {
	return g.updateSession(CellRef{Row: row, Column: column}, func(s EditSession) (EditSession, error) {
		return s.Stage(text)
	})
}

// updateSession applies a pure session transition to a cell under the
// lock and stores the result.
func (g *Grid) updateSession(cell CellRef, fn func(EditSession) (EditSession, error)) (EditSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[cell]
	if !ok {
		return EditSession{}, ErrNoEdit
	}
	next, err := fn(s)
	if err != nil {
		return s, err
	}
	g.sessions[cell] = next
	return next, nil
}

// CancelEdit discards a cell's edit session. A committing session cannot
// be cancelled; its outcome decides.
func (g *Grid) CancelEdit(row int, column string) error {
	cell := CellRef{Row: row, Column: column}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[cell]
	if !ok {
		return ErrNoEdit
	}
	if s.Phase == EditCommitting {
		return ErrCommitting
	}
	delete(g.sessions, cell)
	return nil
}

// EditSessionFor returns the edit session of a cell, if one exists.
func (g *Grid) EditSessionFor(row int, column string) (EditSession, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[CellRef{Row: row, Column: column}]
	return s, ok
}

// CommitEdit parses the staged text and writes the cell to the remote
// source. A staged value equal to the original closes the session without
// a remote call. Parse failures keep the session open with the staged text
// intact. On success the page is refreshed; on remote failure the session
// returns to editing so the value can be corrected or cancelled.
func (g *Grid) CommitEdit(ctx context.Context, row int, column string) error {
	cell := CellRef{Row: row, Column: column}

	g.mu.Lock()
	s, ok := g.sessions[cell]
	if !ok {
		g.mu.Unlock()
		return ErrNoEdit
	}
	switch s.Phase {
	case EditAwaitingConfirm:
		g.mu.Unlock()
		return ErrConfirmRequired
	case EditCommitting:
		g.mu.Unlock()
		return ErrCommitting
	}

	parsed, err := s.StagedValue()
	if err != nil {
		g.mu.Unlock()
		return err
	}

	if parsed.String() == s.Original.String() {
		delete(g.sessions, cell)
		g.mu.Unlock()
		g.logger.Debug("no-op edit closed without remote call", "cell", cell.String())
		return nil
	}

	if g.mutator == nil {
		g.mu.Unlock()
		return ErrReadOnly
	}
	if g.page == nil || row < 0 || row >= len(g.page.Rows) {
		g.mu.Unlock()
		return ErrNoEdit
	}
	pk := g.page.PrimaryKey
	if pk == "" {
		g.mu.Unlock()
		return ErrNoPrimaryKey
	}
	pkVal := g.page.Rows[row].Get(pk)
	if pkVal.IsNull() {
		g.mu.Unlock()
		return fmt.Errorf("row %d: %w", row, ErrNoPrimaryKey)
	}

	s.Phase = EditCommitting
	g.sessions[cell] = s
	ref := core.PrimaryKeyRef{Column: pk, Value: pkVal}
	change := core.CellChange{Column: column, Value: parsed, ColumnType: s.ColumnType}
	g.mu.Unlock()

	err = g.mutator.UpdateRow(ctx, g.schema, g.table, ref, []core.CellChange{change})

	g.mu.Lock()
	if err != nil {
		if cur, exists := g.sessions[cell]; exists {
			cur.Phase = EditEditing
			g.sessions[cell] = cur
		}
		g.mu.Unlock()
		return fmt.Errorf("failed to update row: %w", err)
	}
	delete(g.sessions, cell)
	g.mu.Unlock()

	if err := g.reload(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
		g.logger.Warn("failed to refresh after update", "error", err)
	}
	return nil
}

// InsertRow inserts a new row and refreshes the page. Values must name
// loaded columns.
func (g *Grid) InsertRow(ctx context.Context, values map[string]core.Value) error {
	g.mu.Lock()
	if g.page == nil {
		g.mu.Unlock()
		return ErrNotLoaded
	}
	if g.mutator == nil {
		g.mu.Unlock()
		return ErrReadOnly
	}
	for name := range values {
		if _, ok := g.columnTypeLocked(name); !ok {
			g.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}
	g.mu.Unlock()

	if err := g.mutator.InsertRow(ctx, g.schema, g.table, values); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	if err := g.reload(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
		g.logger.Warn("failed to refresh after insert", "error", err)
	}
	return nil
}

// DeleteSelected deletes the selected rows by primary key and refreshes
// the page. Rows without a primary key value are skipped and reported; the
// count of deleted rows is returned either way.
func (g *Grid) DeleteSelected(ctx context.Context) (int, error) {
	g.mu.Lock()
	if g.page == nil {
		g.mu.Unlock()
		return 0, ErrNotLoaded
	}
	if g.mutator == nil {
		g.mu.Unlock()
		return 0, ErrReadOnly
	}
	pk := g.page.PrimaryKey
	if pk == "" {
		g.mu.Unlock()
		return 0, ErrNoPrimaryKey
	}

	var (
		refs []core.PrimaryKeyRef
		errs []error
	)
	for _, i := range g.selectedLocked() {
		v := g.page.Rows[i].Get(pk)
		if v.IsNull() {
			errs = append(errs, fmt.Errorf("row %d: %w", i, ErrNoPrimaryKey))
			continue
		}
		refs = append(refs, core.PrimaryKeyRef{Column: pk, Value: v})
	}
	g.mu.Unlock()

	deleted := 0
	for _, ref := range refs {
		if err := g.mutator.DeleteRow(ctx, g.schema, g.table, ref); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete row: %w", err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		if err := g.reload(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
			errs = append(errs, err)
		}
	}
	return deleted, errors.Join(errs...)
}

// ResolveCell returns the foreign key target a cell references.
func (g *Grid) ResolveCell(row int, column string) (core.RelationTarget, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkRowLocked(row); err != nil {
		return core.RelationTarget{}, err
	}
	if _, ok := g.columnTypeLocked(column); !ok {
		return core.RelationTarget{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	target, ok := g.relmapLocked().ResolveTarget(column, g.page.Rows[row].Get(column))
	if !ok {
		return core.RelationTarget{}, fmt.Errorf("%w: %s", ErrNoRelation, column)
	}
	return target, nil
}

// reload bumps the fetch sequence and fetches the page for the current
// options. Transitions and post-mutation refreshes all funnel through
// here.
func (g *Grid) reload(ctx context.Context) error {
	g.mu.Lock()
	seq := g.bumpSeqLocked()
	opts := g.opts.QueryOptions
	g.mu.Unlock()
	return g.fetch(ctx, seq, opts)
}

// transition applies a pure options transition, invalidates any in-flight
// fetch, and fetches the resulting page.
func (g *Grid) transition(ctx context.Context, fn func(Options) Options) error {
	g.mu.Lock()
	g.opts = fn(g.opts)
	seq := g.bumpSeqLocked()
	opts := g.opts.QueryOptions
	g.mu.Unlock()
	return g.fetch(ctx, seq, opts)
}

// fetch issues the remote page fetch for seq and applies the result if seq
// is still current. A failed fetch keeps the last good page; a stale
// response is discarded entirely.
func (g *Grid) fetch(ctx context.Context, seq uint64, opts core.QueryOptions) error {
	page, err := g.fetcher.FetchPage(ctx, g.schema, g.table, opts)
	if err != nil {
		g.mu.Lock()
		defer g.mu.Unlock()
		if seq != g.seq {
			return ErrStaleFetch
		}
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	relmap := g.relmapSnapshot()
	if relmap == nil {
		relmap = g.buildRelationMap(ctx)
	}

	var stored []core.ColumnConfig
	g.mu.Lock()
	needCfg := g.colcfg == nil
	g.mu.Unlock()
	if needCfg && g.prefs != nil {
		stored, err = g.prefs.GetColumnConfig(g.prefKey())
		if err != nil {
			g.logger.Warn("failed to load column config", "key", g.prefKey(), "error", err)
			stored = nil
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq {
		g.logger.Debug("discarding stale fetch", "seq", seq, "latest", g.seq)
		return ErrStaleFetch
	}
	g.applyPageLocked(page, relmap, stored)
	return nil
}

// applyPageLocked installs a fetched page: totals fold back into the
// options, the column configuration is reconciled against the live
// columns, an active search is recomputed against the new rows, the
// selection is reset, and edit sessions that are not mid-commit are
// dropped since their row indexes no longer bind.
func (g *Grid) applyPageLocked(page *core.Page, relmap *RelationMap, stored []core.ColumnConfig) {
	g.page = page
	g.opts = g.opts.WithTotalPages(page.TotalPages)
	if g.relmap == nil {
		g.relmap = relmap
	}

	base := g.colcfg
	if base == nil {
		base = stored
	}
	g.colcfg = ReconcileColumns(base, page.ColumnNames())

	if g.search.Query != "" {
		g.search = SearchPage(page.Rows, page.ColumnNames(), g.search.Query)
	}

	g.selected = make(map[int]bool)
	for cell, s := range g.sessions {
		if s.Phase != EditCommitting {
			delete(g.sessions, cell)
		}
	}

	g.logger.Debug("page applied",
		"table", g.table, "page", page.Number, "rows", len(page.Rows), "total_rows", page.TotalRows)
}

// buildRelationMap loads the cached relation snapshot and indexes it for
// this table. Failures degrade to an empty map: the warnings are advisory,
// a missing snapshot must not block browsing.
func (g *Grid) buildRelationMap(ctx context.Context) *RelationMap {
	if g.relations == nil {
		return BuildRelationMap(nil, g.schema, g.table)
	}
	rels, err := g.relations.Relations(ctx)
	if err != nil {
		g.logger.Warn("failed to load relations", "table", g.table, "error", err)
		rels = nil
	}
	return BuildRelationMap(rels, g.schema, g.table)
}

func (g *Grid) persistColumns(cfg []core.ColumnConfig) error {
	if g.prefs == nil {
		return nil
	}
	key := g.prefKey()
	if err := g.prefs.SetColumnConfig(key, cfg); err != nil {
		g.logger.Warn("failed to persist column config", "key", key, "error", err)
		return fmt.Errorf("failed to persist column config: %w", err)
	}
	return nil
}

func (g *Grid) prefKey() string {
	return core.ColumnConfigKey(g.connectionID, g.schema, g.table)
}

func (g *Grid) bumpSeqLocked() uint64 {
	g.seq++
	return g.seq
}

func (g *Grid) relmapSnapshot() *RelationMap {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.relmap
}

func (g *Grid) relmapLocked() *RelationMap {
	if g.relmap == nil {
		g.relmap = BuildRelationMap(nil, g.schema, g.table)
	}
	return g.relmap
}

func (g *Grid) checkRowLocked(row int) error {
	if g.page == nil {
		return ErrNotLoaded
	}
	if row < 0 || row >= len(g.page.Rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	return nil
}

func (g *Grid) columnTypeLocked(name string) (string, bool) {
	if g.page == nil {
		return "", false
	}
	for _, c := range g.page.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

func (g *Grid) requireColumn(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.page == nil {
		return nil // before the first load any column name is speculative
	}
	if _, ok := g.columnTypeLocked(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return nil
}

func (g *Grid) selectedLocked() []int {
	rows := make([]int, 0, len(g.selected))
	for i := range g.selected {
		rows = append(rows, i)
	}
	sort.Ints(rows)
	return rows
}

func importValues(raw map[string]string, types map[string]string) (map[string]core.Value, error) {
	values := make(map[string]core.Value)
	for col, text := range raw {
		colType, known := types[col]
		if !known {
			continue
		}
		v, err := parseStaged(text, colType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		values[col] = v
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no recognized columns")
	}
	return values, nil
}
