package oauth

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	s := NewCallbackServer(0, state)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func get(t *testing.T, s *CallbackServer, query string) *http.Response {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), query))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCallbackServer_ReceivesCode(t *testing.T) {
	s := startServer(t, "expected-state")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q := url.Values{"code": {"auth-code"}, "state": {"expected-state"}}
		_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), q.Encode()))
	}()

	cb, err := s.Wait(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", cb.Code)
}

func TestCallbackServer_ReceivesOAuth1Pair(t *testing.T) {
	// OAuth1a flows carry no state parameter.
	s := startServer(t, "")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q := url.Values{"oauth_token": {"req-token"}, "oauth_verifier": {"verif"}}
		_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), q.Encode()))
	}()

	cb, err := s.Wait(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "req-token", cb.Token)
	assert.Equal(t, "verif", cb.Verifier)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	s := startServer(t, "expected-state")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q := url.Values{"code": {"auth-code"}, "state": {"tampered"}}
		_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), q.Encode()))
	}()

	_, err := s.Wait(5 * time.Second)
	assert.ErrorIs(t, err, domain.ErrStateMismatch)
}

func TestCallbackServer_ProviderError(t *testing.T) {
	s := startServer(t, "state")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q := url.Values{"error": {"access_denied"}, "error_description": {"user said no"}}
		_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), q.Encode()))
	}()

	_, err := s.Wait(5 * time.Second)
	assert.ErrorIs(t, err, domain.ErrCallbackFailed)
}

func TestCallbackServer_TimeoutReleasesPort(t *testing.T) {
	s := NewCallbackServer(0, "state")
	require.NoError(t, s.Start())
	port := s.Port()

	start := time.Now()
	_, err := s.Wait(1 * time.Second)
	assert.ErrorIs(t, err, domain.ErrAuthorizationTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)

	require.NoError(t, s.Stop())

	// The port must be bindable again after teardown.
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	_ = l.Close()
}

func TestCallbackServer_SecondCallbackIgnored(t *testing.T) {
	s := startServer(t, "state")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q := url.Values{"code": {"first"}, "state": {"state"}}
		_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", s.Port(), q.Encode()))
	}()

	cb, err := s.Wait(5 * time.Second)
	require.NoError(t, err)
	require.Equal(t, "first", cb.Code)

	resp := get(t, s, "code=second&state=state")
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort(DefaultPortRangeStart, DefaultPortRangeEnd)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, DefaultPortRangeStart)
	assert.LessOrEqual(t, port, DefaultPortRangeEnd)
}

func TestCallbackServer_RedirectURI(t *testing.T) {
	s := startServer(t, "state")
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", s.Port()), s.RedirectURI())
}
