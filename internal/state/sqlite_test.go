package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestColumnConfigRoundTrip(t *testing.T) {
	store := openTestStore(t)
	key := core.ColumnConfigKey("c1", "public", "users")

	t.Run("missing key reads as nil", func(t *testing.T) {
		configs, err := store.GetColumnConfig(key)
		require.NoError(t, err)
		assert.Nil(t, configs)
	})

	configs := []core.ColumnConfig{
		{Name: "id", Visible: true, Order: 0},
		{Name: "name", Visible: false, Order: 1},
		{Name: "company_id", Visible: true, Order: 2},
	}

	t.Run("store and read back", func(t *testing.T) {
		require.NoError(t, store.SetColumnConfig(key, configs))

		got, err := store.GetColumnConfig(key)
		require.NoError(t, err)
		assert.Equal(t, configs, got)
	})

	t.Run("set replaces previous value", func(t *testing.T) {
		update := []core.ColumnConfig{
			{Name: "name", Visible: true, Order: 0},
			{Name: "id", Visible: true, Order: 1},
		}
		require.NoError(t, store.SetColumnConfig(key, update))

		got, err := store.GetColumnConfig(key)
		require.NoError(t, err)
		assert.Equal(t, update, got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		other := core.ColumnConfigKey("c1", "public", "orders")
		require.NoError(t, store.SetColumnConfig(other, configs[:1]))

		count, err := store.CountPreferences()
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestStoreNotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.GetColumnConfig("k")
	assert.ErrorContains(t, err, "not opened")

	err = store.SetColumnConfig("k", nil)
	assert.ErrorContains(t, err, "not opened")

	_, err = store.CountPreferences()
	assert.ErrorContains(t, err, "not opened")

	assert.ErrorContains(t, store.Migrate(), "not opened")

	_, err = store.GetMigrationVersion()
	assert.ErrorContains(t, err, "not opened")

	assert.NoError(t, store.Close())
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	key := core.ColumnConfigKey("c1", "main", "notes")
	configs := []core.ColumnConfig{{Name: "id", Visible: true, Order: 0}}

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	require.NoError(t, store.SetColumnConfig(key, configs))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	require.NoError(t, reopened.Migrate())
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetColumnConfig(key)
	require.NoError(t, err)
	assert.Equal(t, configs, got)
}
