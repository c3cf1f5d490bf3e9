package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/tokenstore/memory"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

func fakeGraph(t *testing.T, hits *atomic.Int64) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/phone-1":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id":                   "phone-1",
				"display_phone_number": "+1 555 0100",
				"verified_name":        "Agoras",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	old := GraphURL
	GraphURL = srv.URL
	t.Cleanup(func() { GraphURL = old })
}

func TestAuthenticate_MissingCredentialIsNotError(t *testing.T) {
	m := New(Config{}, memory.NewStore())

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorize_ValidatesAndStoresUnderPhoneID(t *testing.T) {
	fakeGraph(t, nil)
	store := memory.NewStore()
	m := New(Config{AccessToken: "good-token", PhoneNumberID: "phone-1"}, store)

	token, err := m.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good-token", token)

	rec, err := store.Load(context.Background(), PlatformName, "phone-1")
	require.NoError(t, err)
	assert.Equal(t, "good-token", rec.Get(domain.FieldAccessToken))
	require.NotNil(t, rec.Validation)
	assert.Equal(t, platforms.Fingerprint("good-token"), rec.Validation.TokenSHA256)
	assert.Equal(t, "+1 555 0100", rec.Validation.AccountName)
	assert.Equal(t, "Agoras", rec.Validation.Extra["verified_name"])
}

func TestAuthorize_MissingFieldsFailFast(t *testing.T) {
	m := New(Config{AccessToken: "good-token"}, memory.NewStore())

	_, err := m.Authorize(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsMissingField(err))
}

func TestAuthenticate_RejectedTokenIsFalseNotError(t *testing.T) {
	fakeGraph(t, nil)
	m := New(Config{AccessToken: "revoked", PhoneNumberID: "phone-1"}, memory.NewStore())

	ok, err := m.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_CachedFingerprintSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	fakeGraph(t, &hits)
	store := memory.NewStore()

	m := New(Config{AccessToken: "good-token", PhoneNumberID: "phone-1"}, store)
	_, err := m.Authorize(context.Background())
	require.NoError(t, err)
	after := hits.Load()

	m2 := New(Config{PhoneNumberID: "phone-1"}, store)
	ok, err := m2.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, after, hits.Load())
	assert.Equal(t, "good-token", m2.AccessToken())
	assert.Equal(t, "phone-1", m2.PhoneNumberID())
}

func TestSingleIdentityFallback(t *testing.T) {
	fakeGraph(t, nil)
	store := memory.NewStore()

	m := New(Config{AccessToken: "good-token", PhoneNumberID: "phone-1"}, store)
	_, err := m.Authorize(context.Background())
	require.NoError(t, err)

	// No phone number configured: the sole stored identity is found.
	m2 := New(Config{}, store)
	ok, err := m2.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "phone-1", m2.PhoneNumberID())
}
