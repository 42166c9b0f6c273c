package commands

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// openCatalogAdapter connects a sqlite adapter to a database with two
// tables, for catalog command tests.
func openCatalogAdapter(t *testing.T) adapter.Adapter {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id));
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := core.ConnConfig{Type: "sqlite", Path: dbPath}
	ad, err := adapter.NewAdapter(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, ad.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = ad.Close() })
	return ad
}

func TestREPLCatalogCommands(t *testing.T) {
	ad := openCatalogAdapter(t)
	ctx := context.Background()

	buf := new(bytes.Buffer)
	require.NoError(t, listConnectionTables(ctx, buf, ad, "main", "table"))
	assert.Contains(t, buf.String(), "users")
	assert.Contains(t, buf.String(), "orders")

	buf.Reset()
	require.NoError(t, listConnectionSchemas(ctx, buf, ad, "table"))
	assert.Contains(t, buf.String(), "main")

	buf.Reset()
	require.NoError(t, showTableColumns(ctx, buf, ad, "main", "users", "table"))
	output := buf.String()
	assert.Contains(t, output, "id")
	assert.Contains(t, output, "name")
	assert.Contains(t, output, "true") // primary key flag
}

func TestHandleDotCommand(t *testing.T) {
	ad := openCatalogAdapter(t)
	ctx := context.Background()

	newCmd := func() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
		cmd := &cobra.Command{}
		out := new(bytes.Buffer)
		errOut := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		return cmd, out, errOut
	}

	t.Run("help", func(t *testing.T) {
		cmd, out, _ := newCmd()
		handled := handleDotCommand(ctx, cmd, ad, "main", ".help", "table")
		assert.True(t, handled)
		assert.Contains(t, out.String(), ".tables")
		assert.Contains(t, out.String(), ".quit")
	})

	t.Run("tables", func(t *testing.T) {
		cmd, out, _ := newCmd()
		handled := handleDotCommand(ctx, cmd, ad, "main", ".tables", "table")
		assert.True(t, handled)
		assert.Contains(t, out.String(), "users")
	})

	t.Run("schema without argument", func(t *testing.T) {
		cmd, _, errOut := newCmd()
		handled := handleDotCommand(ctx, cmd, ad, "main", ".schema", "table")
		assert.True(t, handled)
		assert.Contains(t, errOut.String(), "Usage: .schema <table>")
	})

	t.Run("unknown command", func(t *testing.T) {
		cmd, _, errOut := newCmd()
		handled := handleDotCommand(ctx, cmd, ad, "main", ".nope", "table")
		assert.True(t, handled)
		assert.Contains(t, errOut.String(), "Unknown command")
	})

	t.Run("quit", func(t *testing.T) {
		cmd, _, _ := newCmd()
		assert.True(t, handleDotCommand(ctx, cmd, ad, "main", ".quit", "table"))
	})
}

func TestNewTableCompleter(t *testing.T) {
	ad := openCatalogAdapter(t)

	completer := newTableCompleter(context.Background(), ad, "main")
	require.NotNil(t, completer)

	// Completion offers the table names
	line := []rune("us")
	newLine, _ := completer.Do(line, len(line))
	require.NotEmpty(t, newLine)
}
