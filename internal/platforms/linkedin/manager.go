// Package linkedin implements the auth manager for LinkedIn using the
// standard OAuth2 authorization-code and refresh-token flows.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauth2linkedin "golang.org/x/oauth2/linkedin"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driving/oauth"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// PlatformName is the storage key for LinkedIn credentials.
const PlatformName = "linkedin"

// Environment variables feeding credential resolution.
const (
	EnvClientID     = "LINKEDIN_CLIENT_ID"
	EnvClientSecret = "LINKEDIN_CLIENT_SECRET"
	// EnvRefreshToken carries a pre-obtained refresh token for
	// headless/CI runs, skipping the interactive flow entirely.
	EnvRefreshToken = "AGORAS_LINKEDIN_REFRESH_TOKEN"
)

const userInfoURL = "https://api.linkedin.com/v2/userinfo"

var defaultScopes = []string{"openid", "profile", "w_member_social"}

// Config holds explicit credential parameters. Every field is
// optional; empty fields fall back to environment variables and then
// to the token store.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Identifier selects the stored identity; empty means "default"
	// with single-identity fallback.
	Identifier string
	// CallbackPort fixes the loopback port; 0 probes the default range.
	CallbackPort int
	// AuthTimeout bounds the interactive flow; 0 means the 300s default.
	AuthTimeout time.Duration
}

// Manager is the LinkedIn auth manager.
type Manager struct {
	cfg   Config
	store driven.TokenStore

	// populated by Authenticate
	accessToken string
	accountID   string
	accountName string
}

// Ensure Manager implements the shared contract.
var _ platforms.Manager = (*Manager)(nil)

// New creates a LinkedIn auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// AccessToken returns the in-memory access token populated by a
// successful Authenticate.
func (m *Manager) AccessToken() string { return m.accessToken }

// AccountID returns the member id snapshot from the last Authenticate.
func (m *Manager) AccountID() string { return m.accountID }

// resolve merges explicit parameters, environment variables and the
// stored record into a working credential set.
func (m *Manager) resolve(ctx context.Context) (string, *domain.CredentialRecord, map[string]string, error) {
	identifier, stored, err := platforms.ResolveIdentifier(ctx, m.store, PlatformName, m.cfg.Identifier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", nil, nil, err
	}
	if stored == nil {
		rec := domain.NewCredentialRecord()
		stored = &rec
	}

	fields := map[string]string{
		domain.FieldClientID:     platforms.Resolve(m.cfg.ClientID, EnvClientID, stored.Get(domain.FieldClientID)),
		domain.FieldClientSecret: platforms.Resolve(m.cfg.ClientSecret, EnvClientSecret, stored.Get(domain.FieldClientSecret)),
		domain.FieldRefreshToken: platforms.Resolve(m.cfg.RefreshToken, EnvRefreshToken, stored.Get(domain.FieldRefreshToken)),
	}
	return identifier, stored, fields, nil
}

// Authenticate exchanges the stored refresh token for an access token
// and fetches the member snapshot. Returns (false, nil) when no
// refresh token is available or the platform rejects it.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	if fields[domain.FieldRefreshToken] == "" {
		logger.Debug("linkedin: no refresh token stored, not authenticated")
		return false, nil
	}
	if err := platforms.RequireFields(PlatformName, fields,
		domain.FieldClientID, domain.FieldClientSecret); err != nil {
		return false, err
	}

	conf := m.oauthConfig(fields, "")
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: fields[domain.FieldRefreshToken]})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// The platform rejected the refresh token: expired or
			// revoked, the ordinary "please authorize again" case.
			logger.Debug("linkedin: refresh rejected: %v", retrieveErr.ErrorCode)
			return false, nil
		}
		return false, fmt.Errorf("linkedin token refresh: %w", err)
	}

	m.accessToken = tok.AccessToken

	var info struct {
		Sub  string `json:"sub"`
		Name string `json:"name"`
	}
	if err := platforms.GetJSON(ctx, &http.Client{Timeout: 10 * time.Second},
		userInfoURL, "Bearer "+tok.AccessToken, &info); err != nil {
		return false, fmt.Errorf("linkedin userinfo: %w", err)
	}
	m.accountID = info.Sub
	m.accountName = info.Name

	// Persist a rotated refresh token, load-mutate-save so unrelated
	// fields survive.
	rec := stored.Clone()
	rec.Set(domain.FieldClientID, fields[domain.FieldClientID])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	if tok.RefreshToken != "" {
		rec.Set(domain.FieldRefreshToken, tok.RefreshToken)
	} else {
		rec.Set(domain.FieldRefreshToken, fields[domain.FieldRefreshToken])
	}
	rec.Validation = &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(rec.Get(domain.FieldRefreshToken)),
		AccountID:   info.Sub,
		AccountName: info.Name,
		CheckedAt:   time.Now(),
	}
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving linkedin credentials: %w", err)
	}

	logger.Info("linkedin: authenticated as %s", info.Name)
	return true, nil
}

// Authorize obtains and persists a refresh token. When
// AGORAS_LINKEDIN_REFRESH_TOKEN is set the interactive flow is skipped
// and that value is persisted directly.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}

	// Headless/CI variant.
	if env := os.Getenv(EnvRefreshToken); env != "" {
		logger.Info("linkedin: using refresh token from %s", EnvRefreshToken)
		return env, m.persistToken(ctx, identifier, stored, fields, env)
	}

	if err := platforms.RequireFields(PlatformName, fields,
		domain.FieldClientID, domain.FieldClientSecret); err != nil {
		return "", err
	}

	port := m.cfg.CallbackPort
	if port == 0 {
		port, err = oauth.FindAvailablePort(oauth.DefaultPortRangeStart, oauth.DefaultPortRangeEnd)
		if err != nil {
			return "", err
		}
	}

	state := uuid.NewString()
	server := oauth.NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return "", err
	}
	defer server.Stop() //nolint:errcheck // teardown on the way out

	conf := m.oauthConfig(fields, server.RedirectURI())
	authURL := conf.AuthCodeURL(state)

	fmt.Printf("Visit this URL to authorize agoras with LinkedIn:\n\n  %s\n\n", authURL)
	if err := oauth.OpenBrowser(authURL); err != nil {
		logger.Debug("linkedin: could not open browser: %v", err)
	}

	cb, err := server.Wait(m.cfg.AuthTimeout)
	if err != nil {
		return "", err
	}

	tok, err := conf.Exchange(ctx, cb.Code)
	if err != nil {
		return "", fmt.Errorf("linkedin code exchange: %w", err)
	}

	// LinkedIn only issues refresh tokens to approved applications;
	// otherwise the long-lived access token is persisted under the
	// same field name.
	longLived := tok.RefreshToken
	if longLived == "" {
		longLived = tok.AccessToken
	}
	m.accessToken = tok.AccessToken

	if err := m.persistToken(ctx, identifier, stored, fields, longLived); err != nil {
		return "", err
	}
	return longLived, nil
}

// Disconnect clears the stored credential for this identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	identifier := m.cfg.Identifier
	if identifier == "" {
		identifier = domain.DefaultIdentifier
	}
	m.accessToken = ""
	m.accountID = ""
	m.accountName = ""
	return m.store.Delete(ctx, PlatformName, identifier)
}

func (m *Manager) persistToken(ctx context.Context, identifier string, stored *domain.CredentialRecord, fields map[string]string, token string) error {
	rec := stored.Clone()
	rec.Set(domain.FieldClientID, fields[domain.FieldClientID])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	rec.Set(domain.FieldRefreshToken, token)
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return fmt.Errorf("saving linkedin credentials: %w", err)
	}
	logger.Info("linkedin: stored refresh token %s under %q", logger.Secret(token), identifier)
	return nil
}

func (m *Manager) oauthConfig(fields map[string]string, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     fields[domain.FieldClientID],
		ClientSecret: fields[domain.FieldClientSecret],
		Endpoint:     oauth2linkedin.Endpoint,
		RedirectURL:  redirectURI,
		Scopes:       defaultScopes,
	}
}
