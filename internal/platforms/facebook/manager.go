// Package facebook implements the auth manager for the Facebook Graph
// API: OAuth2 authorization-code flow followed by the platform's
// non-standard fb_exchange_token long-lived-token grant.
package facebook

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
)

// PlatformName is the storage key for Facebook credentials.
const PlatformName = "facebook"

// Environment variables feeding credential resolution.
const (
	EnvClientID     = "FACEBOOK_CLIENT_ID"
	EnvClientSecret = "FACEBOOK_CLIENT_SECRET"
	EnvRefreshToken = "FACEBOOK_REFRESH_TOKEN"
	EnvObjectID     = "FACEBOOK_OBJECT_ID"
)

// GraphURL is the Graph API base. Overridable in tests.
var GraphURL = "https://graph.facebook.com/v19.0"

var defaultScopes = []string{"pages_manage_posts", "pages_read_engagement", "publish_video"}

// Config holds explicit credential parameters with the usual
// explicit > env > stored fallback per field.
type Config struct {
	ClientID     string
	ClientSecret string
	// RefreshToken is the long-lived user token. Facebook has no real
	// refresh-token semantics; the long-lived token is persisted under
	// the refresh_token field name.
	RefreshToken string
	// ObjectID is the page (or other Graph object) being posted to. It
	// doubles as the storage identifier.
	ObjectID     string
	CallbackPort int
	AuthTimeout  time.Duration
}

// Manager is the Facebook auth manager.
type Manager struct {
	cfg   Config
	store driven.TokenStore

	accessToken string
	pageToken   string
	accountID   string
	accountName string
}

var _ platforms.Manager = (*Manager)(nil)

// New creates a Facebook auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// AccessToken returns the in-memory user token from Authenticate.
func (m *Manager) AccessToken() string { return m.accessToken }

// PageToken returns the page access token resolved for ObjectID, or ""
// when no object id was configured.
func (m *Manager) PageToken() string { return m.pageToken }

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

func (m *Manager) objectID() string {
	return platforms.Resolve(m.cfg.ObjectID, EnvObjectID, "")
}

// Authenticate validates the stored long-lived token against the Graph
// API and, when an object id is configured, resolves its page access
// token. Returns (false, nil) when no token is stored or the platform
// rejects it.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	token := fields[domain.FieldRefreshToken]
	if token == "" {
		logger.Debug("facebook: no long-lived token stored, not authenticated")
		return false, nil
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	meURL := fmt.Sprintf("%s/me?access_token=%s", GraphURL, url.QueryEscape(token))
	if err := platforms.GetJSON(ctx, client, meURL, "", &me); err != nil {
		if platforms.IsAuthRejection(err) {
			logger.Debug("facebook: token rejected")
			return false, nil
		}
		return false, fmt.Errorf("facebook validation: %w", err)
	}

	m.accessToken = token
	m.accountID = me.ID
	m.accountName = me.Name

	if objectID := fields[domain.FieldObjectID]; objectID != "" {
		var page struct {
			AccessToken string `json:"access_token"`
		}
		pageURL := fmt.Sprintf("%s/%s?fields=access_token&access_token=%s",
			GraphURL, url.PathEscape(objectID), url.QueryEscape(token))
		if err := platforms.GetJSON(ctx, client, pageURL, "", &page); err != nil {
			return false, fmt.Errorf("facebook page token lookup for %s: %w", objectID, err)
		}
		m.pageToken = page.AccessToken
	}

	rec := stored.Clone()
	rec.Set(domain.FieldClientID, fields[domain.FieldClientID])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	rec.Set(domain.FieldRefreshToken, token)
	rec.Set(domain.FieldObjectID, fields[domain.FieldObjectID])
	rec.Validation = &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(token),
		AccountID:   me.ID,
		AccountName: me.Name,
		CheckedAt:   time.Now(),
	}
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving facebook credentials: %w", err)
	}

	logger.Info("facebook: authenticated as %s", me.Name)
	return true, nil
}

// Authorize runs the authorization-code flow and then exchanges the
// short-lived token for a long-lived one via fb_exchange_token, a
// platform deviation that cannot be expressed as a standard refresh
// grant. The long-lived token is persisted under refresh_token.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}

	// Headless/CI variant.
	if env := os.Getenv(EnvRefreshToken); env != "" {
		logger.Info("facebook: using long-lived token from %s", EnvRefreshToken)
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

	fmt.Printf("Visit this URL to authorize agoras with Facebook:\n\n  %s\n\n", authURL)
	if err := oauth.OpenBrowser(authURL); err != nil {
		logger.Debug("facebook: could not open browser: %v", err)
	}

	cb, err := server.Wait(m.cfg.AuthTimeout)
	if err != nil {
		return "", err
	}

	shortTok, err := conf.Exchange(ctx, cb.Code)
	if err != nil {
		return "", fmt.Errorf("facebook code exchange: %w", err)
	}

	longLived, err := ExchangeLongLivedToken(ctx,
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
	m.pageToken = ""
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
		return fmt.Errorf("saving facebook credentials: %w", err)
	}
	logger.Info("facebook: stored long-lived token %s under %q", logger.Secret(token), identifier)
	return nil
}

// ExchangeLongLivedToken performs the fb_exchange_token grant,
// trading a short-lived user token for a ~60 day one. Also used by the
// Instagram manager, which shares the Graph token model.
func ExchangeLongLivedToken(ctx context.Context, clientID, clientSecret, shortToken string) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "fb_exchange_token")
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("fb_exchange_token", shortToken)

	resp, err := platforms.PostForm(ctx, GraphURL+"/oauth/access_token", data)
	if err != nil {
		return "", fmt.Errorf("fb_exchange_token grant: %w", err)
	}
	return resp.AccessToken, nil
}

