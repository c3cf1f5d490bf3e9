package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldClientID, "id")
	rec.Set(domain.FieldRefreshToken, "secret-token")
	rec.Validation = &domain.CachedValidation{
		TokenSHA256: "abcd",
		AccountName: "someone",
		Extra:       map[string]string{"channel_id": "42"},
	}

	require.NoError(t, store.Save(ctx, "linkedin", "default", rec))

	got, err := store.Load(ctx, "linkedin", "default")
	require.NoError(t, err)
	assert.Equal(t, "id", got.Get(domain.FieldClientID))
	assert.Equal(t, "secret-token", got.Get(domain.FieldRefreshToken))
	require.NotNil(t, got.Validation)
	assert.Equal(t, "someone", got.Validation.AccountName)
	assert.Equal(t, "42", got.Validation.Extra["channel_id"])
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := domain.NewCredentialRecord()
	first.Set(domain.FieldBotToken, "old")
	require.NoError(t, store.Save(ctx, "discord", "default", first))

	second := domain.NewCredentialRecord()
	second.Set(domain.FieldBotToken, "new")
	require.NoError(t, store.Save(ctx, "discord", "default", second))

	got, err := store.Load(ctx, "discord", "default")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Get(domain.FieldBotToken))
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "twitter", "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		rec := domain.NewCredentialRecord()
		rec.Set(domain.FieldAccessToken, "tok-"+id)
		require.NoError(t, store.Save(ctx, "whatsapp", id, rec))
	}

	got, err := store.List(ctx, "whatsapp")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "alpha", got[0].Identifier)
	assert.Equal(t, "mid", got[1].Identifier)
	assert.Equal(t, "zeta", got[2].Identifier)
	assert.Equal(t, "tok-alpha", got[0].Record.Get(domain.FieldAccessToken))
}

func TestStore_ListScopedByPlatform(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldAccessToken, "x")
	require.NoError(t, store.Save(ctx, "facebook", "page-1", rec))

	got, err := store.List(ctx, "twitter")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldBotToken, "tok")
	require.NoError(t, store.Save(ctx, "discord", "default", rec))

	require.NoError(t, store.Delete(ctx, "discord", "default"))
	_, err := store.Load(ctx, "discord", "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "discord", "default"))
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	store := newTestStore(t)
	rec := domain.NewCredentialRecord()

	assert.ErrorIs(t, store.Save(context.Background(), "", "default", rec), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), "twitter", "", rec), domain.ErrInvalidInput)
}

func TestStore_SecretsEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldRefreshToken, "cleartext-marker-value")
	require.NoError(t, store.Save(context.Background(), "linkedin", "default", rec))
	require.NoError(t, store.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "tokens.db"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "cleartext-marker-value")
}

func TestStore_KeyFilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(filepath.Join(dir, "store.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_ReopenWithSameKey(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldAccessToken, "survives-reopen")
	require.NoError(t, store.Save(ctx, "whatsapp", "123", rec))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "whatsapp", "123")
	require.NoError(t, err)
	assert.Equal(t, "survives-reopen", got.Get(domain.FieldAccessToken))
}
