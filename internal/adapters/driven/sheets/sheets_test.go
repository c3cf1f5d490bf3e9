package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// stubWorksheet builds a Worksheet against a recording stub API.
func stubWorksheet(t *testing.T, calls *[]string) *Worksheet {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithoutAuthentication(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return NewWorksheetWithService(svc, "sheet-1")
}

func TestReplaceAll_RewritesAfterClear(t *testing.T) {
	var calls []string
	w := stubWorksheet(t, &calls)

	rows := [][]string{{"text", "", "", "", "", "", "2026-09-01", "09", "draft"}}
	require.NoError(t, w.ReplaceAll(context.Background(), rows))

	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], ":clear")
	assert.Contains(t, calls[1], "/values/A1")
}

func TestReplaceAll_EmptySheetClearsWithoutUpdate(t *testing.T) {
	var calls []string
	w := stubWorksheet(t, &calls)

	require.NoError(t, w.ReplaceAll(context.Background(), nil))

	// No update call follows the clear: the API rejects an empty
	// value range.
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], ":clear")
}

func TestAppend(t *testing.T) {
	var calls []string
	w := stubWorksheet(t, &calls)

	require.NoError(t, w.Append(context.Background(), [][]string{{"a"}}))

	require.Len(t, calls, 1)
	assert.True(t, strings.Contains(calls[0], ":append"), calls[0])
}
