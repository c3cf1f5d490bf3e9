// Package platforms defines the per-platform auth manager contract and
// the helpers shared by all concrete managers.
package platforms

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

// Manager orchestrates the credential lifecycle for one platform:
// validate, authenticate, refresh, authorize.
//
// State machine shared by every platform:
//
//	UNAUTHENTICATED --(stored fields complete)--> CREDENTIALED
//	CREDENTIALED --(Authenticate: refresh/validate ok)--> AUTHENTICATED
//	CREDENTIALED --(Authenticate fails or secret missing)--> UNAUTHENTICATED (false, nil)
//	any --(Authorize: OAuth dance)--> long-lived token persisted
//	AUTHENTICATED --(Disconnect)--> UNAUTHENTICATED
type Manager interface {
	// Platform returns the platform name used as the storage key.
	Platform() string

	// Authenticate makes the manager ready to issue API calls. It
	// returns (false, nil) for the common "not yet authorized" case
	// and errors only on unexpected transport failures. On success it
	// holds an in-memory access token and an account info snapshot.
	Authenticate(ctx context.Context) (bool, error)

	// Authorize drives the platform's authorization flow and persists
	// the resulting long-lived credential. It returns the persisted
	// token value.
	Authorize(ctx context.Context) (string, error)

	// Disconnect clears the stored credential for this identity.
	Disconnect(ctx context.Context) error
}

// Resolve applies the uniform credential precedence:
// explicit parameter > environment variable > stored value.
// A field resolved from a higher-precedence source is never
// overwritten by a lower one.
func Resolve(explicit, envVar, stored string) string {
	if explicit != "" {
		return explicit
	}
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return stored
}

// RequireFields fails fast with a MissingFieldError naming the first
// empty field. It runs before any network call.
func RequireFields(platform string, fields map[string]string, names ...string) error {
	for _, name := range names {
		if fields[name] == "" {
			return &domain.MissingFieldError{Platform: platform, Field: name}
		}
	}
	return nil
}

// Fingerprint returns the hex SHA-256 of a token, used to key cached
// validation data. Stable across process runs, unlike a language-level
// hash.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// StatusError is a non-2xx platform API response. It carries the
// status code but never the token.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s failed with status %d", e.URL, e.Code)
}

// IsAuthRejection reports whether an error is a credential rejection
// (400/401/403) rather than a transport failure. Managers map these to
// the (false, nil) "not authenticated" result.
func IsAuthRejection(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusBadRequest ||
		se.Code == http.StatusUnauthorized ||
		se.Code == http.StatusForbidden
}

// GetJSON issues an authenticated GET and decodes the JSON response
// into out. Non-2xx responses are returned as *StatusError.
func GetJSON(ctx context.Context, client *http.Client, url, authHeader string, out any) error {
	return DoJSON(ctx, client, http.MethodGet, url, authHeader, nil, out)
}

// PostJSON issues an authenticated POST with a JSON body and decodes
// the response into out.
func PostJSON(ctx context.Context, client *http.Client, url, authHeader string, body, out any) error {
	return DoJSON(ctx, client, http.MethodPost, url, authHeader, body, out)
}

// DoJSON is the request core behind GetJSON/PostJSON: optional JSON
// body in, optional JSON decode out, *StatusError on non-2xx.
func DoJSON(ctx context.Context, client *http.Client, method, url, authHeader string, body, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ResolveIdentifier picks the storage identifier for a platform: the
// caller-supplied id when given, otherwise "default", falling back to
// the sole stored identity when "default" has no record.
func ResolveIdentifier(ctx context.Context, store interface {
	Load(ctx context.Context, platform, identifier string) (*domain.CredentialRecord, error)
	List(ctx context.Context, platform string) ([]domain.StoredCredential, error)
}, platform, id string) (string, *domain.CredentialRecord, error) {
	if id == "" {
		id = domain.DefaultIdentifier
	}

	rec, err := store.Load(ctx, platform, id)
	if err == nil {
		return id, rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", nil, err
	}

	// Fallback: a single stored identity is still found without the
	// caller knowing its identifier.
	stored, err := store.List(ctx, platform)
	if err != nil {
		return "", nil, err
	}
	if len(stored) == 1 {
		rec := stored[0].Record
		return stored[0].Identifier, &rec, nil
	}

	return id, nil, domain.ErrNotFound
}
