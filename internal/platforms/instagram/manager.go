// Package instagram implements the auth manager for the Instagram
// Graph API. Instagram shares Facebook's token model: the same
// authorization-code flow and fb_exchange_token grant, with its own
// storage key and a business-account object id.
package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauth2facebook "golang.org/x/oauth2/facebook"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driving/oauth"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
	"github.com/agoraslabs/agoras-cli/internal/platforms/facebook"
)

// PlatformName is the storage key for Instagram credentials, distinct
// from Facebook's even though the Graph app may be the same.
const PlatformName = "instagram"

// Environment variables feeding credential resolution.
const (
	EnvClientID     = "INSTAGRAM_CLIENT_ID"
	EnvClientSecret = "INSTAGRAM_CLIENT_SECRET"
	EnvRefreshToken = "INSTAGRAM_REFRESH_TOKEN"
	EnvObjectID     = "INSTAGRAM_OBJECT_ID"
)

var defaultScopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"pages_read_engagement",
}

// Config holds explicit credential parameters with the usual
// explicit > env > stored fallback per field.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// ObjectID is the Instagram business account id. It doubles as the
	// storage identifier.
	ObjectID     string
	CallbackPort int
	AuthTimeout  time.Duration
}

// Manager is the Instagram auth manager.
type Manager struct {
	cfg   Config
	store driven.TokenStore

	accessToken string
	accountID   string
	accountName string
}

var _ platforms.Manager = (*Manager)(nil)

// New creates an Instagram auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// AccessToken returns the in-memory token from Authenticate.
func (m *Manager) AccessToken() string { return m.accessToken }

// AccountID returns the business account id from the last
// Authenticate.
func (m *Manager) AccountID() string { return m.accountID }

func (m *Manager) objectID() string {
	return platforms.Resolve(m.cfg.ObjectID, EnvObjectID, "")
}

func (m *Manager) resolve(ctx context.Context) (string, *domain.CredentialRecord, map[string]string, error) {
	identifier, stored, err := platforms.ResolveIdentifier(ctx, m.store, PlatformName, m.objectID())
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
		domain.FieldObjectID:     platforms.Resolve(m.cfg.ObjectID, EnvObjectID, stored.Get(domain.FieldObjectID)),
	}
	return identifier, stored, fields, nil
}

// Authenticate validates the stored long-lived token against the
// business account endpoint. Returns (false, nil) when no token is
// stored or the platform rejects it.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	token := fields[domain.FieldRefreshToken]
	objectID := fields[domain.FieldObjectID]
	if token == "" || objectID == "" {
		logger.Debug("instagram: token or object id missing, not authenticated")
		return false, nil
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var account struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	u := fmt.Sprintf("%s/%s?fields=id,username&access_token=%s",
		facebook.GraphURL, url.PathEscape(objectID), url.QueryEscape(token))
	if err := platforms.GetJSON(ctx, client, u, "", &account); err != nil {
		if platforms.IsAuthRejection(err) {
			logger.Debug("instagram: token rejected")
			return false, nil
		}
		return false, fmt.Errorf("instagram validation: %w", err)
	}

	m.accessToken = token
	m.accountID = account.ID
	m.accountName = account.Username

	rec := stored.Clone()
	rec.Set(domain.FieldClientID, fields[domain.FieldClientID])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	rec.Set(domain.FieldRefreshToken, token)
	rec.Set(domain.FieldObjectID, objectID)
	rec.Validation = &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(token),
		AccountID:   account.ID,
		AccountName: account.Username,
		CheckedAt:   time.Now(),
	}
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving instagram credentials: %w", err)
	}

	logger.Info("instagram: authenticated as %s", account.Username)
	return true, nil
}

// Authorize runs the authorization-code flow against the Facebook
// endpoint and exchanges the short-lived token for a long-lived one.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}

	// Headless/CI variant.
	if env := os.Getenv(EnvRefreshToken); env != "" {
		logger.Info("instagram: using long-lived token from %s", EnvRefreshToken)
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

	conf := &oauth2.Config{
		ClientID:     fields[domain.FieldClientID],
		ClientSecret: fields[domain.FieldClientSecret],
		Endpoint:     oauth2facebook.Endpoint,
		RedirectURL:  server.RedirectURI(),
		Scopes:       defaultScopes,
	}
	authURL := conf.AuthCodeURL(state)

	fmt.Printf("Visit this URL to authorize agoras with Instagram:\n\n  %s\n\n", authURL)
	if err := oauth.OpenBrowser(authURL); err != nil {
		logger.Debug("instagram: could not open browser: %v", err)
	}

	cb, err := server.Wait(m.cfg.AuthTimeout)
	if err != nil {
		return "", err
	}

	shortTok, err := conf.Exchange(ctx, cb.Code)
	if err != nil {
		return "", fmt.Errorf("instagram code exchange: %w", err)
	}

	longLived, err := facebook.ExchangeLongLivedToken(ctx,
		fields[domain.FieldClientID], fields[domain.FieldClientSecret], shortTok.AccessToken)
	if err != nil {
		return "", err
	}
	m.accessToken = longLived

	if err := m.persistToken(ctx, identifier, stored, fields, longLived); err != nil {
		return "", err
	}
	return longLived, nil
}

// Disconnect clears the stored credential for this identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	identifier := m.objectID()
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
	rec.Set(domain.FieldObjectID, fields[domain.FieldObjectID])
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return fmt.Errorf("saving instagram credentials: %w", err)
	}
	logger.Info("instagram: stored long-lived token %s under %q", logger.Secret(token), identifier)
	return nil
}
