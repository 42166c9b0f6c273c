package core

// Column describes one column of a browsed table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
	Position   int    `json:"position"`
}

// ColumnConfig is the persisted display preference for one column: whether
// it is shown and where it sits. Order values need not be contiguous; their
// sort defines the display order.
type ColumnConfig struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Order   int    `json:"order"`
}
