package grid

import "errors"

// Sentinel errors callers branch on. Messages are the short, user-visible
// forms; wrap with context where it helps.
var (
	// ErrNotLoaded is returned by operations that need a loaded page.
	ErrNotLoaded = errors.New("no page loaded")

	// ErrNoPrimaryKey is returned when a row-addressed mutation is
	// attempted against a table (or row) without a usable primary key.
	ErrNoPrimaryKey = errors.New("no primary key")

	// ErrInvalidJSON is returned when staged text for a JSON column (or
	// JSON-shaped text) fails to parse. The edit session stays open.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNoEdit is returned when no edit session exists for the cell.
	ErrNoEdit = errors.New("no edit in progress")

	// ErrCommitting is returned when a cell already has a commit in
	// flight. Other cells are unaffected.
	ErrCommitting = errors.New("cell commit in progress")

	// ErrConfirmRequired is returned when a risky edit is committed
	// before its warning was confirmed.
	ErrConfirmRequired = errors.New("confirmation required")

	// ErrStaleFetch reports that a fetch response arrived after a newer
	// one was issued and was discarded, never applied.
	ErrStaleFetch = errors.New("stale fetch discarded")

	// ErrUnknownColumn is returned for operations naming a column the
	// loaded page does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoRelation is returned when resolving a cell that has no
	// foreign key relation.
	ErrNoRelation = errors.New("column has no relation")

	// ErrReadOnly is returned for mutations when no row mutator is
	// configured.
	ErrReadOnly = errors.New("connection is read only")
)
