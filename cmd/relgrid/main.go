// Package main provides the relgrid command line interface.
package main

import (
	"os"

	"github.com/relgrid-labs/relgrid/internal/cli"

	// Database adapters register themselves on import.
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/duckdb"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/mysql"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/postgres"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
