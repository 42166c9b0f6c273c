package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

func runQueryREPL(cmd *cobra.Command, cfg *config.Config, cc config.ConnectionConfig, ad adapter.Adapter, opts *QueryOptions) error {
	ctx := cmd.Context()

	schema := cc.Schema
	if schema == "" {
		schema = ad.Dialect().DefaultSchema
	}

	// History lives next to the preference database
	historyFile := filepath.Join(filepath.Dir(cfg.StatePath), "query_history")

	// Get table names for completion
	completer := newTableCompleter(ctx, ad, schema)

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "relgrid> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Relgrid SQL REPL (connection: %s)\n", cc.Name)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("relgrid> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, ad, schema, line, opts.Format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("relgrid> ")

		// Execute query
		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRender(cmd, ad, query, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, ad adapter.Adapter, schema, line, format string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".tables":
		if err := listConnectionTables(ctx, cmd.OutOrStdout(), ad, schema, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".schemas":
		if err := listConnectionSchemas(ctx, cmd.OutOrStdout(), ad, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return true
		}
		if err := showTableColumns(ctx, cmd.OutOrStdout(), ad, schema, parts[1], format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List tables in the working schema
  .schemas        List schemas of the connection
  .schema <name>  Show columns of a table
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// The catalog dot-commands render through the ordinary result pipeline,
// so --format applies to them too.

func listConnectionTables(ctx context.Context, w io.Writer, ad adapter.Adapter, schema, format string) error {
	tables, err := ad.ListTables(ctx, schema)
	if err != nil {
		return err
	}
	result := &adapter.QueryResult{Columns: []string{"table"}}
	for _, t := range tables {
		result.Rows = append(result.Rows, []core.Value{core.Text(t)})
	}
	return renderResults(w, result, format)
}

func listConnectionSchemas(ctx context.Context, w io.Writer, ad adapter.Adapter, format string) error {
	schemas, err := ad.ListSchemas(ctx)
	if err != nil {
		return err
	}
	result := &adapter.QueryResult{Columns: []string{"schema"}}
	for _, s := range schemas {
		result.Rows = append(result.Rows, []core.Value{core.Text(s)})
	}
	return renderResults(w, result, format)
}

func showTableColumns(ctx context.Context, w io.Writer, ad adapter.Adapter, schema, tableName, format string) error {
	columns, err := ad.TableColumns(ctx, schema, tableName)
	if err != nil {
		return err
	}
	result := &adapter.QueryResult{Columns: []string{"column", "type", "nullable", "primary_key"}}
	for _, c := range columns {
		result.Rows = append(result.Rows, []core.Value{
			core.Text(c.Name),
			core.Text(c.Type),
			core.Bool(c.Nullable),
			core.Bool(c.PrimaryKey),
		})
	}
	return renderResults(w, result, format)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, ad adapter.Adapter, schema string) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	tables, err := ad.ListTables(ctx, schema)
	if err == nil {
		for _, t := range tables {
			items = append(items, readline.PcItem(t))
		}
	}
	// Completion is best effort; a failed listing just means no table names.

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schemas"),
		readline.PcItem(".schema"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
