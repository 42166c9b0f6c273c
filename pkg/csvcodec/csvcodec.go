// Package csvcodec implements the CSV text format the grid uses for
// copy/paste and export.
//
// The format is deliberately simple: one line per record, fields joined by
// commas, and a field quoted only when it contains a comma, a quote or a
// newline (internal quotes doubled). Cell values are encoded in their
// canonical string form, so NULL becomes the empty string and JSON cells
// keep their compact form.
//
// Decoding is line oriented and best effort: it never fails, short rows
// simply leave their trailing columns absent, and a raw newline inside a
// quoted field is not recognized across lines. This is not the stdlib
// encoding/csv contract; that reader's strict quoting and per-record field
// count rules would reject exactly the ragged clipboard input this codec
// exists to accept.
package csvcodec

import (
	"strings"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Document is the result of decoding CSV text: the header columns and one
// string map per data row. Rows hold only the fields that were present.
type Document struct {
	Columns []string
	Rows    []map[string]string
}

// Encode renders rows to CSV text. Fields appear in the order of columns;
// values a row does not carry encode as empty. The output ends with a
// trailing newline when any line was written.
func Encode(rows []core.Row, columns []string, includeHeader bool) string {
	var sb strings.Builder

	if includeHeader {
		writeLine(&sb, columns)
	}

	fields := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			fields[i] = row.Get(col).String()
		}
		writeLine(&sb, fields)
	}

	return sb.String()
}

// EncodeStrings renders pre-stringified records, first the header then the
// rows. Used for query results that never pass through core.Row.
func EncodeStrings(columns []string, rows [][]string) string {
	var sb strings.Builder
	writeLine(&sb, columns)
	for _, row := range rows {
		writeLine(&sb, row)
	}
	return sb.String()
}

// Decode parses CSV text. The first non-blank line is the header;
// every following non-blank line is a data row. Malformed input never
// produces an error; the decoder recovers what it can.
func Decode(text string) Document {
	var doc Document

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		fields := parseLine(line)
		if doc.Columns == nil {
			doc.Columns = fields
			continue
		}

		row := make(map[string]string, len(doc.Columns))
		for i, col := range doc.Columns {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		doc.Rows = append(doc.Rows, row)
	}

	return doc
}

func writeLine(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeField(f))
	}
	sb.WriteByte('\n')
}

// escapeField quotes a field when it contains a comma, quote or newline,
// doubling internal quotes.
func escapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// parseLine splits one line into fields, honoring quoting. A doubled quote
// inside a quoted section is a literal quote. An unterminated quote runs to
// the end of the line.
func parseLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteByte(c)
			}
		case c == '"':
			inQuotes = true
		case c == ',':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())

	return fields
}
