package grid

import "github.com/relgrid-labs/relgrid/pkg/core"

// RiskClass labels how risky editing a column is. Primary keys identify
// rows, foreign keys reference other tables; both get an advisory warning
// before editing. The warning never blocks, it only forces an explicit
// confirmation step.
type RiskClass string

const (
	RiskPrimary RiskClass = "primary"
	RiskForeign RiskClass = "foreign"
	RiskNormal  RiskClass = "normal"
)

// RelationMap indexes the foreign key edges whose source is one table,
// keyed by source column for constant-time lookup. It is built once per
// table load from the connection's cached relation snapshot.
type RelationMap struct {
	schema   string
	table    string
	bySource map[string]core.Relation
}

// BuildRelationMap filters relations down to edges originating in
// schema.table and indexes them by source column.
func BuildRelationMap(relations []core.Relation, schema, table string) *RelationMap {
	m := &RelationMap{
		schema:   schema,
		table:    table,
		bySource: make(map[string]core.Relation),
	}
	for _, r := range relations {
		if r.SourceSchema == schema && r.SourceTable == table {
			m.bySource[r.SourceColumn] = r
		}
	}
	return m
}

// IsForeignKey reports whether the column participates in an outgoing
// foreign key relation.
func (m *RelationMap) IsForeignKey(column string) bool {
	_, ok := m.bySource[column]
	return ok
}

// Classify labels the column. A column that is both the primary key and a
// foreign key classifies as primary; identity outranks reference.
func (m *RelationMap) Classify(column, primaryKey string) RiskClass {
	switch {
	case primaryKey != "" && column == primaryKey:
		return RiskPrimary
	case m.IsForeignKey(column):
		return RiskForeign
	default:
		return RiskNormal
	}
}

// ResolveTarget returns the location a foreign key cell references. The
// result is pure data; whether to navigate is the caller's call.
func (m *RelationMap) ResolveTarget(column string, v core.Value) (core.RelationTarget, bool) {
	r, ok := m.bySource[column]
	if !ok {
		return core.RelationTarget{}, false
	}
	return core.RelationTarget{
		Schema: r.TargetSchema,
		Table:  r.TargetTable,
		Column: r.TargetColumn,
		Value:  v,
	}, true
}

// ForeignKeyColumns returns the source columns with outgoing relations, in
// no particular order.
func (m *RelationMap) ForeignKeyColumns() []string {
	cols := make([]string, 0, len(m.bySource))
	for c := range m.bySource {
		cols = append(cols, c)
	}
	return cols
}
