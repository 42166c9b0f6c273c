package grid

import (
	"sort"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// ReconcileColumns merges a stored column configuration with the column
// names the latest fetch reported. Live columns keep their stored entry
// when one exists and otherwise get a fresh visible entry ordered by their
// position; stored entries for columns that no longer exist are dropped.
// The result always has exactly one entry per live column.
func ReconcileColumns(stored []core.ColumnConfig, live []string) []core.ColumnConfig {
	byName := make(map[string]core.ColumnConfig, len(stored))
	for _, c := range stored {
		byName[c.Name] = c
	}

	out := make([]core.ColumnConfig, 0, len(live))
	for i, name := range live {
		if c, ok := byName[name]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, core.ColumnConfig{Name: name, Visible: true, Order: i})
	}
	return out
}

// DisplayColumns projects the visible column names in display order. Order
// values need not be contiguous; ties keep their slice order.
func DisplayColumns(configs []core.ColumnConfig) []string {
	visible := make([]core.ColumnConfig, 0, len(configs))
	for _, c := range configs {
		if c.Visible {
			visible = append(visible, c)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Order < visible[j].Order })

	names := make([]string, len(visible))
	for i, c := range visible {
		names[i] = c.Name
	}
	return names
}

// ToggleColumn returns a copy of configs with the named column's
// visibility flipped. The second result reports whether the column exists.
func ToggleColumn(configs []core.ColumnConfig, name string) ([]core.ColumnConfig, bool) {
	out := append([]core.ColumnConfig(nil), configs...)
	for i := range out {
		if out[i].Name == name {
			out[i].Visible = !out[i].Visible
			return out, true
		}
	}
	return out, false
}

// MoveColumn returns a copy of configs with the named column moved to
// position to (clamped) in the overall order, and all Order values
// renumbered to their positional index. The second result reports whether
// the column exists.
func MoveColumn(configs []core.ColumnConfig, name string, to int) ([]core.ColumnConfig, bool) {
	ordered := append([]core.ColumnConfig(nil), configs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	from := -1
	for i, c := range ordered {
		if c.Name == name {
			from = i
			break
		}
	}
	if from == -1 {
		return ordered, false
	}

	if to < 0 {
		to = 0
	}
	if to >= len(ordered) {
		to = len(ordered) - 1
	}

	moved := ordered[from]
	rest := make([]core.ColumnConfig, 0, len(ordered)-1)
	rest = append(rest, ordered[:from]...)
	rest = append(rest, ordered[from+1:]...)

	out := make([]core.ColumnConfig, 0, len(ordered))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)

	for i := range out {
		out[i].Order = i
	}
	return out, true
}
