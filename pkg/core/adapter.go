package core

import "context"

// ConnConfig holds the settings for connecting to a database. Path is for
// file-based engines; Host and friends are for networked ones. The
// password never serializes.
type ConnConfig struct {
	Type     string            `json:"type"`
	Path     string            `json:"path,omitempty"`
	Host     string            `json:"host,omitempty"`
	Port     int               `json:"port,omitempty"`
	Database string            `json:"database,omitempty"`
	Username string            `json:"username,omitempty"`
	Password string            `json:"-"`
	Schema   string            `json:"schema,omitempty"`
	ReadOnly bool              `json:"read_only,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
}

// PrimaryKeyRef identifies one row by its primary key column and value.
type PrimaryKeyRef struct {
	Column string `json:"column"`
	Value  Value  `json:"value"`
}

// CellChange is one column mutation applied by UpdateRow. ColumnType
// carries the declared database type so the remote side can coerce the
// value appropriately.
type CellChange struct {
	Column     string `json:"column"`
	Value      Value  `json:"value"`
	ColumnType string `json:"column_type,omitempty"`
}

// PageFetcher loads one page of table data for the given options.
//
// FetchPage is idempotent and side-effect free: issuing the same options
// twice yields the same page (absent concurrent writers). The grid relies
// on this to discard stale responses and refetch freely.
type PageFetcher interface {
	FetchPage(ctx context.Context, schema, table string, opts QueryOptions) (*Page, error)
}

// RowMutator applies row-level writes to the connected database. Rows are
// addressed by primary key; callers must not invoke Update or Delete for
// tables without one.
type RowMutator interface {
	InsertRow(ctx context.Context, schema, table string, values map[string]Value) error
	UpdateRow(ctx context.Context, schema, table string, key PrimaryKeyRef, changes []CellChange) error
	DeleteRow(ctx context.Context, schema, table string, key PrimaryKeyRef) error
}

// RelationSource reports the foreign key edges of the connected database.
// The result is fetched once per connection and cached for the session.
type RelationSource interface {
	Relations(ctx context.Context) ([]Relation, error)
}
