package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content-type sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	att, err := NewDownloader().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.ContentType)
	assert.Equal(t, pngHeader, att.Data)
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewDownloader().Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetch_SniffsOverHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Lying server: says JSON, sends PNG.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	att, err := NewDownloader().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.ContentType)
}

func TestFetchAll_PerSlotIsolation(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	results := NewDownloader().FetchAll(context.Background(),
		[]string{good.URL, bad.URL, good.URL})

	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestFetchAll_Empty(t *testing.T) {
	results := NewDownloader().FetchAll(context.Background(), nil)
	assert.Empty(t, results)
}
