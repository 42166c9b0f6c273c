// Package grid implements the relational data-grid engine behind the table
// browsing screen: server-side pagination, sorting and filtering state,
// client-side search with match navigation, persisted column visibility and
// ordering, foreign-key aware cell editing, and CSV export/import.
//
// The engine is deliberately split in two layers. The small state machines
// (Options, SearchState, EditSession, RelationMap, the column config
// functions) are pure: transitions take a state and an input and return the
// next state, with no I/O. The Grid controller composes them, owns the
// mutex, and talks to the collaborators defined in pkg/core.
package grid
