package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgrid-labs/relgrid/pkg/adapter"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/duckdb"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/mysql"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/postgres"
	_ "github.com/relgrid-labs/relgrid/pkg/adapters/sqlite"
)

func TestSelfRegistration(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "sqlite", "duckdb"} {
		assert.True(t, adapter.IsRegistered(name), "%s adapter should be auto-registered", name)
	}
}

func TestListAdapters(t *testing.T) {
	adapters := adapter.ListAdapters()

	assert.Contains(t, adapters, "postgres", "postgres should be in adapter list")
	assert.Contains(t, adapters, "sqlite", "sqlite should be in adapter list")
}

func TestGet(t *testing.T) {
	// Get existing adapter
	factory, ok := adapter.Get("sqlite")
	require.True(t, ok, "Get(sqlite) should return true")
	require.NotNil(t, factory, "Get(sqlite) should return non-nil factory")

	// Get non-existing adapter
	_, ok = adapter.Get("nonexistent")
	assert.False(t, ok, "Get(nonexistent) should return false")
}

func TestNewAdapter_Success(t *testing.T) {
	cfg := adapter.Config{
		Type: "sqlite",
		Path: ":memory:",
	}

	adp, err := adapter.NewAdapter(cfg, nil)
	require.NoError(t, err, "NewAdapter(sqlite) failed")
	require.NotNil(t, adp, "NewAdapter(sqlite) returned nil adapter")
}

func TestNewAdapter_UnknownType(t *testing.T) {
	cfg := adapter.Config{
		Type: "unknown_adapter",
	}

	_, err := adapter.NewAdapter(cfg, nil)
	require.Error(t, err, "NewAdapter(unknown_adapter) should fail")

	// Check error type
	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, "unknown_adapter", unknownErr.Type, "error type")

	// Available should include the built-in adapters
	assert.Contains(t, unknownErr.Available, "postgres", "Available adapters should include postgres")
}
