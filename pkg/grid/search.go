package grid

import (
	"strings"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Match is one search hit on the loaded page: the row index, the column
// name, and the cell's canonical string form.
type Match struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// SearchState is the result of searching the loaded page. Current indexes
// into Matches and is -1 exactly when Matches is empty. Highlighting
// mirrors whether any match exists.
type SearchState struct {
	Query        string  `json:"query"`
	Matches      []Match `json:"matches"`
	Current      int     `json:"current"`
	Highlighting bool    `json:"highlighting"`
}

// SearchPage scans every cell of the given rows case-insensitively for
// query as a substring. Null cells never match. Matches are produced in
// row-major order (rows top to bottom, then columns left to right), which
// is what makes Next walk visibly down the grid.
//
// An empty query returns the cleared state.
func SearchPage(rows []core.Row, columns []string, query string) SearchState {
	if query == "" {
		return SearchState{Current: -1}
	}

	needle := strings.ToLower(query)
	var matches []Match

	for ri, row := range rows {
		for _, col := range columns {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			s := v.String()
			if strings.Contains(strings.ToLower(s), needle) {
				matches = append(matches, Match{Row: ri, Column: col, Value: s})
			}
		}
	}

	state := SearchState{Query: query, Matches: matches, Current: -1}
	if len(matches) > 0 {
		state.Current = 0
		state.Highlighting = true
	}
	return state
}

// Next advances to the following match, wrapping from the last back to the
// first. On an empty state it is a no-op.
func (s SearchState) Next() SearchState {
	if len(s.Matches) == 0 {
		return s
	}
	s.Current = (s.Current + 1) % len(s.Matches)
	return s
}

// Prev steps to the preceding match, wrapping from the first to the last.
func (s SearchState) Prev() SearchState {
	if len(s.Matches) == 0 {
		return s
	}
	s.Current--
	if s.Current < 0 {
		s.Current = len(s.Matches) - 1
	}
	return s
}

// CurrentMatch returns the focused match, if any.
func (s SearchState) CurrentMatch() (Match, bool) {
	if s.Current < 0 || s.Current >= len(s.Matches) {
		return Match{}, false
	}
	return s.Matches[s.Current], true
}
