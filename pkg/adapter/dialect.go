package adapter

import (
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
)

// PlaceholderStyle selects how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion formats parameters as "?".
	PlaceholderQuestion PlaceholderStyle = iota

	// PlaceholderDollar formats parameters as "$1", "$2", ...
	PlaceholderDollar
)

// Dialect describes the SQL surface an adapter speaks: identifier quoting,
// parameter placeholders, the default schema and the predicate features the
// generated SQL may rely on.
type Dialect struct {
	Name          string
	DefaultSchema string
	Placeholder   PlaceholderStyle

	// QuoteStart and QuoteEnd wrap identifiers; QuoteEnd characters inside
	// a name are doubled.
	QuoteStart string
	QuoteEnd   string

	// SupportsILike reports native ILIKE support. Without it,
	// case-insensitive matching lowers both sides.
	SupportsILike bool
}

// FormatPlaceholder returns the placeholder for a 1-based parameter index.
func (d Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdentifier quotes a single identifier.
func (d Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.QuoteEnd, d.QuoteEnd+d.QuoteEnd)
	return d.QuoteStart + escaped + d.QuoteEnd
}

// QuoteQualified quotes a schema-qualified table reference. An empty schema
// falls back to the dialect default; an empty default leaves the name
// unqualified.
func (d Dialect) QuoteQualified(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema
	}
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// placeholderFormat maps the dialect onto squirrel's placeholder formats.
func (d Dialect) placeholderFormat() squirrel.PlaceholderFormat {
	if d.Placeholder == PlaceholderDollar {
		return squirrel.Dollar
	}
	return squirrel.Question
}
