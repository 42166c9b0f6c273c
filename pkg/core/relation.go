package core

// Relation is one foreign key edge of the connected database: a source
// column referencing a target column. The set of relations is fetched once
// per connection and treated as immutable for the session.
type Relation struct {
	SourceSchema string `json:"source_schema"`
	SourceTable  string `json:"source_table"`
	SourceColumn string `json:"source_column"`
	TargetSchema string `json:"target_schema"`
	TargetTable  string `json:"target_table"`
	TargetColumn string `json:"target_column"`
}

// RelationTarget identifies the referenced location a foreign key cell
// points at. Resolving a target is pure data flow; navigation is the
// caller's decision.
type RelationTarget struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Column string `json:"column"`
	Value  Value  `json:"value"`
}
