// Package oauth provides the loopback OAuth callback server and
// browser utilities used during interactive authorization.
package oauth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

// DefaultTimeout is the hard wall-clock limit for an authorization
// attempt. After it elapses the server self-terminates and releases
// its port regardless of in-flight request state.
const DefaultTimeout = 300 * time.Second

// Default port range probed when no fixed port is configured.
const (
	DefaultPortRangeStart = 8990
	DefaultPortRangeEnd   = 9090
)

// Callback is the result of one authorization redirect.
// OAuth2 flows populate Code; OAuth1a flows populate Token and
// Verifier.
type Callback struct {
	Code     string
	Token    string
	Verifier string
}

// CallbackServer hosts a single-use local HTTP endpoint that receives
// the redirect from a platform's authorization page. Exactly one
// successful callback is accepted per session; later requests are
// ignored.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	resultChan    chan Callback
	errChan       chan error
	server        *http.Server
	listener      net.Listener
	done          bool
}

// NewCallbackServer creates a callback server bound to the given port.
// If port is 0 a free port is chosen at Start. The expectedState is
// matched against the callback's state parameter; pass "" for OAuth1a
// flows that carry no state.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		resultChan:    make(chan Callback, 1),
		errChan:       make(chan error, 1),
	}
}

// Start binds the loopback listener and begins serving callbacks.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.done = false

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// handleCallback processes the redirect request.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	finished := s.done
	s.mu.Unlock()
	if finished {
		// A callback was already accepted for this session.
		w.WriteHeader(http.StatusGone)
		return
	}

	q := r.URL.Query()

	// Check for error from provider
	if errParam := q.Get("error"); errParam != "" {
		errDesc := q.Get("error_description")
		s.fail(fmt.Errorf("%w: %s - %s", domain.ErrCallbackFailed, errParam, errDesc))
		s.respond(w, fmt.Sprintf("Authorization failed: %s", errDesc), "")
		return
	}

	// Validate state parameter when this session expects one
	if s.expectedState != "" {
		if state := q.Get("state"); state != s.expectedState {
			s.fail(fmt.Errorf("%w: expected %s, got %s", domain.ErrStateMismatch, s.expectedState, state))
			s.respond(w, "Authorization failed: invalid state parameter", "")
			return
		}
	}

	cb := Callback{
		Code:     q.Get("code"),
		Token:    q.Get("oauth_token"),
		Verifier: q.Get("oauth_verifier"),
	}
	if cb.Code == "" && cb.Verifier == "" {
		s.fail(fmt.Errorf("%w: no authorization code or verifier received", domain.ErrCallbackFailed))
		s.respond(w, "Authorization failed: no code received", "")
		return
	}

	s.mu.Lock()
	s.done = true
	s.mu.Unlock()

	select {
	case s.resultChan <- cb:
	default:
	}

	s.respond(w, "Authorization successful!", "You can close this window and return to the CLI.")
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

func (s *CallbackServer) respond(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, resultHTML(title, message))
}

// Wait blocks until one valid callback arrives, an error occurs, or
// timeout elapses. Timeout is reported as domain.ErrAuthorizationTimeout.
// The server keeps running; callers stop it via Stop in all cases.
func (s *CallbackServer) Wait(timeout time.Duration) (Callback, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case cb := <-s.resultChan:
		return cb, nil
	case err := <-s.errChan:
		return Callback{}, err
	case <-ctx.Done():
		return Callback{}, domain.ErrAuthorizationTimeout
	}
}

// StartAndWait runs the full single-use lifecycle: serve, wait for one
// callback or timeout, then tear the server down and release the port.
func (s *CallbackServer) StartAndWait(timeout time.Duration) (Callback, error) {
	if err := s.Start(); err != nil {
		return Callback{}, err
	}
	defer s.Stop() //nolint:errcheck // teardown on the way out

	return s.Wait(timeout)
}

// Stop shuts down the callback server and releases the port.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.Port())
}

func resultHTML(title, message string) string {
	escapedTitle := html.EscapeString(title)
	escapedMessage := html.EscapeString(message)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Agoras - OAuth Callback</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 40px 60px;
            border-radius: 16px;
            box-shadow: 0 10px 40px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 10px; }
        p { color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, escapedTitle, escapedMessage)
}

// OpenBrowser opens the default browser to the given URL. Failure is
// non-fatal for callers; the URL is also printed for manual visiting.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}
