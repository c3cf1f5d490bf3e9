package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/tokenstore/memory"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

func fakeGraph(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/me":
			if r.URL.Query().Get("access_token") != "long-lived" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "name": "Some User"})
		case "/page-7":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "page-token"})
		case "/oauth/access_token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "fb_exchange_token", r.Form.Get("grant_type"))
			assert.Equal(t, "short-lived", r.Form.Get("fb_exchange_token"))
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "long-lived", "expires_in": 5184000})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	old := GraphURL
	GraphURL = srv.URL
	t.Cleanup(func() { GraphURL = old })
}

func TestAuthenticate_NoTokenIsNotError(t *testing.T) {
	m := New(Config{}, memory.NewStore())

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	fakeGraph(t)
	store := memory.NewStore()
	m := New(Config{RefreshToken: "long-lived"}, store)

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "long-lived", m.AccessToken())
	assert.Empty(t, m.PageToken())

	rec, err := store.Load(context.Background(), PlatformName, domain.DefaultIdentifier)
	require.NoError(t, err)
	require.NotNil(t, rec.Validation)
	assert.Equal(t, platforms.Fingerprint("long-lived"), rec.Validation.TokenSHA256)
	assert.Equal(t, "Some User", rec.Validation.AccountName)
}

func TestAuthenticate_ResolvesPageToken(t *testing.T) {
	fakeGraph(t)
	m := New(Config{RefreshToken: "long-lived", ObjectID: "page-7"}, memory.NewStore())

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page-token", m.PageToken())
}

func TestAuthenticate_RejectedTokenIsFalseNotError(t *testing.T) {
	fakeGraph(t)
	m := New(Config{RefreshToken: "revoked"}, memory.NewStore())

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorize_HeadlessEnvToken(t *testing.T) {
	t.Setenv(EnvRefreshToken, "env-token")
	store := memory.NewStore()
	m := New(Config{}, store)

	token, err := m.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)

	rec, err := store.Load(context.Background(), PlatformName, domain.DefaultIdentifier)
	require.NoError(t, err)
	assert.Equal(t, "env-token", rec.Get(domain.FieldRefreshToken))
}

func TestExchangeLongLivedToken(t *testing.T) {
	fakeGraph(t)

	token, err := ExchangeLongLivedToken(context.Background(), "cid", "csecret", "short-lived")
	require.NoError(t, err)
	assert.Equal(t, "long-lived", token)
}

func TestCredentialPrecedence_EnvOverStored(t *testing.T) {
	fakeGraph(t)
	t.Setenv(EnvRefreshToken, "long-lived")
	store := memory.NewStore()

	stored := domain.NewCredentialRecord()
	stored.Set(domain.FieldRefreshToken, "older-stored-token")
	require.NoError(t, store.Save(context.Background(), PlatformName, domain.DefaultIdentifier, stored))

	m := New(Config{}, store)
	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "long-lived", m.AccessToken())
}
