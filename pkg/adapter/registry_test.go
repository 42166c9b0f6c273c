package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Registered once per process; Register panics on duplicates, so tests
// must not call it with this name again.
func init() {
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })
}

func TestRegister(t *testing.T) {
	assert.True(t, IsRegistered("test_adapter_internal"))

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok, "Get should find a registered factory")
	assert.NotNil(t, factory)

	assert.Contains(t, ListAdapters(), "test_adapter_internal")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })
	})
}

func TestRegisterNilFactoryPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("test_adapter_nil_factory", nil)
	})
	assert.False(t, IsRegistered("test_adapter_nil_factory"), "a nil factory must not be stored")
}

func TestNewAdapterEmptyType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestNewAdapterUnknownType(t *testing.T) {
	_, err := NewAdapter(Config{Type: "nosql"}, nil)
	require.Error(t, err)

	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nosql", unknown.Type)
	assert.Contains(t, unknown.Available, "test_adapter_internal")

	assert.Contains(t, err.Error(), "nosql", "message should name the unknown type")
	assert.Contains(t, err.Error(), "relgrid.yaml", "message should point at the config file")
}
