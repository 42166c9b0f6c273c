package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/csvcodec"
)

func renderResults(w io.Writer, result *adapter.QueryResult, format string) error {
	switch format {
	case "json":
		return renderResultJSON(w, result)
	case "csv":
		return renderResultCSV(w, result)
	case "md", "markdown":
		return renderResultMarkdown(w, result)
	case "table":
		return renderResultTable(w, result)
	}
	return fmt.Errorf("unknown format %q (choose table, json, csv or md)", format)
}

func renderResultTable(w io.Writer, result *adapter.QueryResult) error {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, row := range result.Rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = formatCell(v)
		}
		t.AppendRow(out)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
	return nil
}

func renderResultJSON(w io.Writer, result *adapter.QueryResult) error {
	// Rows as objects keyed by column name, the shape scripts expect
	out := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		obj := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderResultCSV(w io.Writer, result *adapter.QueryResult) error {
	records := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = v.String()
		}
		records = append(records, fields)
	}
	_, err := io.WriteString(w, csvcodec.EncodeStrings(result.Columns, records))
	return err
}

func renderResultMarkdown(w io.Writer, result *adapter.QueryResult) error {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(result.Columns, " | "))
	// Separator
	seps := make([]string, len(result.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, row := range result.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = formatCell(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(fields, " | "))
	}
	return nil
}
