package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldOAuthToken, "tok")
	require.NoError(t, store.Save(ctx, "twitter", "default", rec))

	got, err := store.Load(ctx, "twitter", "default")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Get(domain.FieldOAuthToken))
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore()
	_, err := store.Load(context.Background(), "twitter", "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CloneIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldBotToken, "original")
	require.NoError(t, store.Save(ctx, "discord", "default", rec))

	// Mutating the caller's copy must not affect the stored record.
	rec.Set(domain.FieldBotToken, "mutated")

	got, err := store.Load(ctx, "discord", "default")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Get(domain.FieldBotToken))

	// Mutating a loaded copy must not affect the store either.
	got.Set(domain.FieldBotToken, "mutated-again")
	again, err := store.Load(ctx, "discord", "default")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Get(domain.FieldBotToken))
}

func TestStore_ListOrdered(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Save(ctx, "facebook", id, domain.NewCredentialRecord()))
	}

	got, err := store.List(ctx, "facebook")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Identifier)
	assert.Equal(t, "b", got[1].Identifier)
	assert.Equal(t, "c", got[2].Identifier)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "linkedin", "default", domain.NewCredentialRecord()))
	require.NoError(t, store.Delete(ctx, "linkedin", "default"))

	_, err := store.Load(ctx, "linkedin", "default")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "linkedin", "default"))
}
