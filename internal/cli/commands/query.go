package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Connection string
	Format     string
	Input      string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against a connection",
		Long: `Run SQL against a configured connection.

Statements come from the arguments, from --input, or from piped stdin.
Supports multiple output formats for scripting and integration.

When invoked without arguments on a terminal, enters interactive REPL
mode.`,
		Example: `  # Execute SQL directly
  relgrid query "SELECT * FROM users LIMIT 10"

  # Pick the connection
  relgrid query "SELECT count(*) FROM orders" -c warehouse

  # Read SQL from a file
  relgrid query -i report.sql

  # Pipe SQL in
  echo "SELECT 1" | relgrid query

  # Output as JSON
  relgrid query "SELECT * FROM users" --format json

  # Interactive mode
  relgrid query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Connection, "connection", "c", "", "Connection name from relgrid.yaml")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	cc, err := resolveConnection(cfg, opts.Connection)
	if err != nil {
		return err
	}

	ad, cleanup, err := openAdapter(cmd.Context(), cc, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cfg, cc, ad, opts)
	}

	return executeAndRender(cmd, ad, sqlQuery, opts.Format)
}

func executeAndRender(cmd *cobra.Command, ad adapter.Adapter, sqlQuery, format string) error {
	result, err := ad.Query(cmd.Context(), sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderResults(cmd.OutOrStdout(), result, format)
}
