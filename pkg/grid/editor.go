package grid

import (
	"fmt"
	"strings"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// EditPhase is the lifecycle phase of a cell edit session.
type EditPhase string

const (
	// EditAwaitingConfirm means the cell is risky (primary or foreign
	// key) and the warning has not been acknowledged yet.
	EditAwaitingConfirm EditPhase = "awaiting_confirm"

	// EditEditing means the staged text may be changed and committed.
	EditEditing EditPhase = "editing"

	// EditCommitting means the remote update is in flight. The session
	// rejects further input until the commit resolves.
	EditCommitting EditPhase = "committing"
)

// CellRef addresses one cell on the loaded page.
type CellRef struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// EditSession is one in-flight cell edit. Sessions begin in
// EditAwaitingConfirm for risky columns and EditEditing otherwise; the
// staged text starts as the cell's canonical string form.
type EditSession struct {
	Cell       CellRef    `json:"cell"`
	Risk       RiskClass  `json:"risk"`
	Original   core.Value `json:"original"`
	Staged     string     `json:"staged"`
	Phase      EditPhase  `json:"phase"`
	ColumnType string     `json:"column_type,omitempty"`
}

// NewEditSession opens a session for a cell. Risky columns start awaiting
// confirmation; the warning is advisory and confirming always proceeds.
func NewEditSession(cell CellRef, risk RiskClass, original core.Value, columnType string) EditSession {
	phase := EditEditing
	if risk == RiskPrimary || risk == RiskForeign {
		phase = EditAwaitingConfirm
	}
	return EditSession{
		Cell:       cell,
		Risk:       risk,
		Original:   original,
		Staged:     original.String(),
		Phase:      phase,
		ColumnType: columnType,
	}
}

// Confirm acknowledges the risk warning and unlocks editing.
func (s EditSession) Confirm() (EditSession, error) {
	switch s.Phase {
	case EditAwaitingConfirm:
		s.Phase = EditEditing
		return s, nil
	case EditCommitting:
		return s, ErrCommitting
	default:
		return s, nil // already editing; confirming twice is harmless
	}
}

// Stage replaces the staged text. Only legal while editing.
func (s EditSession) Stage(text string) (EditSession, error) {
	switch s.Phase {
	case EditEditing:
		s.Staged = text
		return s, nil
	case EditCommitting:
		return s, ErrCommitting
	default:
		return s, ErrConfirmRequired
	}
}

// StagedValue parses the staged text into the value a commit would write.
// Empty text is SQL NULL. Text for a JSON-typed column, or text that looks
// like a JSON document, must parse as JSON; anything else passes through
// as text.
func (s EditSession) StagedValue() (core.Value, error) {
	return parseStaged(s.Staged, s.ColumnType)
}

// NoOp reports whether committing would write back the original value. The
// comparison runs on canonical strings after JSON canonicalization, so
// reformatting a JSON cell without changing its content is still a no-op.
func (s EditSession) NoOp() (bool, error) {
	v, err := s.StagedValue()
	if err != nil {
		return false, err
	}
	return v.String() == s.Original.String(), nil
}

func parseStaged(staged, columnType string) (core.Value, error) {
	if staged == "" {
		return core.Null(), nil
	}
	if isJSONType(columnType) || looksLikeJSON(staged) {
		v, err := core.JSON(staged)
		if err != nil {
			return core.Value{}, ErrInvalidJSON
		}
		return v, nil
	}
	return core.Text(staged), nil
}

// isJSONType matches json and jsonb declared types.
func isJSONType(columnType string) bool {
	return strings.Contains(strings.ToLower(columnType), "json")
}

// looksLikeJSON reports whether the text reads as a JSON document or array.
func looksLikeJSON(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}

func (c CellRef) String() string {
	return fmt.Sprintf("%s[%d]", c.Column, c.Row)
}
