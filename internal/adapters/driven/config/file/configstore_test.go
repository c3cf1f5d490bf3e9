package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("schedule.sheet_id", "sheet-123"))
	require.NoError(t, store.Set("auth.callback_port", 9001))
	require.NoError(t, store.Set("verbose", true))

	assert.Equal(t, "sheet-123", store.GetString("schedule.sheet_id"))
	assert.Equal(t, 9001, store.GetInt("auth.callback_port"))
	assert.True(t, store.GetBool("verbose"))
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, store.GetString("absent"))
	assert.Zero(t, store.GetInt("absent"))
	assert.False(t, store.GetBool("absent"))

	_, ok := store.Get("absent")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("auth.timeout_seconds", 120))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 120, reloaded.GetInt("auth.timeout_seconds"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	toml := "[schedule]\nsheet_id = \"nested-sheet\"\ninterval_hours = 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "nested-sheet", store.GetString("schedule.sheet_id"))
	assert.Equal(t, 2, store.GetInt("schedule.interval_hours"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
