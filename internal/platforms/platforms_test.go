package platforms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/tokenstore/memory"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

func TestResolve_Precedence(t *testing.T) {
	t.Setenv("AGORAS_TEST_VAR", "from-env")

	assert.Equal(t, "explicit", Resolve("explicit", "AGORAS_TEST_VAR", "stored"))
	assert.Equal(t, "from-env", Resolve("", "AGORAS_TEST_VAR", "stored"))
	assert.Equal(t, "stored", Resolve("", "AGORAS_TEST_UNSET", "stored"))
	assert.Empty(t, Resolve("", "AGORAS_TEST_UNSET", ""))
}

func TestRequireFields(t *testing.T) {
	fields := map[string]string{
		domain.FieldClientID:     "id",
		domain.FieldClientSecret: "",
	}

	require.NoError(t, RequireFields("linkedin", fields, domain.FieldClientID))

	err := RequireFields("linkedin", fields, domain.FieldClientID, domain.FieldClientSecret)
	require.Error(t, err)
	assert.True(t, domain.IsMissingField(err))
	assert.Contains(t, err.Error(), domain.FieldClientSecret)
	assert.Contains(t, err.Error(), "agoras linkedin authorize")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	b := Fingerprint("token-b")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	// Stable across calls and process runs.
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Fingerprint("hello"))
}

func TestIsAuthRejection(t *testing.T) {
	assert.True(t, IsAuthRejection(&StatusError{Code: http.StatusUnauthorized}))
	assert.True(t, IsAuthRejection(&StatusError{Code: http.StatusForbidden}))
	assert.True(t, IsAuthRejection(&StatusError{Code: http.StatusBadRequest}))
	assert.False(t, IsAuthRejection(&StatusError{Code: http.StatusInternalServerError}))
	assert.False(t, IsAuthRejection(context.DeadlineExceeded))
	assert.False(t, IsAuthRejection(nil))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123","name":"someone"}`))
	}))
	defer srv.Close()

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	err := GetJSON(context.Background(), srv.Client(), srv.URL, "Bearer tok", &out)
	require.NoError(t, err)
	assert.Equal(t, "123", out.ID)
	assert.Equal(t, "someone", out.Name)
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.Client(), srv.URL, "", nil)
	require.Error(t, err)
	assert.True(t, IsAuthRejection(err))
}

func TestPostJSON_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := PostJSON(context.Background(), srv.Client(), srv.URL, "", map[string]string{"text": "hi"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestResolveIdentifier_ExplicitHit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldAccessToken, "tok")
	require.NoError(t, store.Save(ctx, "facebook", "page-9", rec))

	id, got, err := ResolveIdentifier(ctx, store, "facebook", "page-9")
	require.NoError(t, err)
	assert.Equal(t, "page-9", id)
	assert.Equal(t, "tok", got.Get(domain.FieldAccessToken))
}

func TestResolveIdentifier_SingleIdentityFallback(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	rec := domain.NewCredentialRecord()
	rec.Set(domain.FieldAccessToken, "sole")
	require.NoError(t, store.Save(ctx, "facebook", "page-1", rec))

	// No identifier given: "default" is absent but the sole stored
	// identity is recovered.
	id, got, err := ResolveIdentifier(ctx, store, "facebook", "")
	require.NoError(t, err)
	assert.Equal(t, "page-1", id)
	assert.Equal(t, "sole", got.Get(domain.FieldAccessToken))
}

func TestResolveIdentifier_AmbiguousStaysNotFound(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "facebook", "page-1", domain.NewCredentialRecord()))
	require.NoError(t, store.Save(ctx, "facebook", "page-2", domain.NewCredentialRecord()))

	id, got, err := ResolveIdentifier(ctx, store, "facebook", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.DefaultIdentifier, id)
	assert.Nil(t, got)
}

func TestResolveIdentifier_EmptyStore(t *testing.T) {
	store := memory.NewStore()

	id, got, err := ResolveIdentifier(context.Background(), store, "twitter", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.DefaultIdentifier, id)
	assert.Nil(t, got)
}
