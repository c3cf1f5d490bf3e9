// Package twitter implements the auth manager for Twitter/X using the
// OAuth1a three-legged flow: request token, browser authorization,
// verifier exchange.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	twauth "github.com/dghubble/oauth1/twitter"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driving/oauth"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// PlatformName is the storage key for Twitter credentials.
const PlatformName = "twitter"

// Environment variables feeding credential resolution.
const (
	EnvConsumerKey    = "TWITTER_CONSUMER_KEY"
	EnvConsumerSecret = "TWITTER_CONSUMER_SECRET"
	EnvOAuthToken     = "TWITTER_OAUTH_TOKEN"
	EnvTokenSecret    = "TWITTER_OAUTH_TOKEN_SECRET"
)

// VerifyURL is the credential-check endpoint. Overridable in tests.
var VerifyURL = "https://api.twitter.com/1.1/account/verify_credentials.json"

// Config holds explicit credential parameters with the usual
// explicit > env > stored fallback per field.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	OAuthToken     string
	TokenSecret    string
	Identifier     string
	CallbackPort   int
	AuthTimeout    time.Duration
}

// Manager is the Twitter auth manager. OAuth1a tokens do not expire,
// so Authenticate validates rather than refreshes.
type Manager struct {
	cfg   Config
	store driven.TokenStore

	client      *http.Client
	accountID   string
	accountName string
}

var _ platforms.Manager = (*Manager)(nil)

// New creates a Twitter auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// Client returns the OAuth1a-signing HTTP client populated by a
// successful Authenticate, or nil.
func (m *Manager) Client() *http.Client { return m.client }

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
		domain.FieldConsumerKey:  platforms.Resolve(m.cfg.ConsumerKey, EnvConsumerKey, stored.Get(domain.FieldConsumerKey)),
		domain.FieldClientSecret: platforms.Resolve(m.cfg.ConsumerSecret, EnvConsumerSecret, stored.Get(domain.FieldClientSecret)),
		domain.FieldOAuthToken:   platforms.Resolve(m.cfg.OAuthToken, EnvOAuthToken, stored.Get(domain.FieldOAuthToken)),
		domain.FieldTokenSecret:  platforms.Resolve(m.cfg.TokenSecret, EnvTokenSecret, stored.Get(domain.FieldTokenSecret)),
	}
	return identifier, stored, fields, nil
}

func (m *Manager) oauthConfig(fields map[string]string, callbackURL string) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    fields[domain.FieldConsumerKey],
		ConsumerSecret: fields[domain.FieldClientSecret],
		CallbackURL:    callbackURL,
		Endpoint:       twauth.AuthorizeEndpoint,
	}
}

// Authenticate builds a signing client from the stored token pair and
// verifies it against the platform. Returns (false, nil) when the pair
// is absent or rejected.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	if fields[domain.FieldOAuthToken] == "" || fields[domain.FieldTokenSecret] == "" {
		logger.Debug("twitter: no oauth token pair stored, not authenticated")
		return false, nil
	}
	if err := platforms.RequireFields(PlatformName, fields,
		domain.FieldConsumerKey, domain.FieldClientSecret); err != nil {
		return false, err
	}

	conf := m.oauthConfig(fields, "")
	token := oauth1.NewToken(fields[domain.FieldOAuthToken], fields[domain.FieldTokenSecret])
	client := conf.Client(ctx, token)
	client.Timeout = 10 * time.Second

	var account struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	}
	if err := platforms.GetJSON(ctx, client, VerifyURL, "", &account); err != nil {
		if platforms.IsAuthRejection(err) {
			logger.Debug("twitter: token pair rejected")
			return false, nil
		}
		return false, fmt.Errorf("twitter verify_credentials: %w", err)
	}

	m.client = client
	m.accountID = account.IDStr
	m.accountName = account.ScreenName

	rec := stored.Clone()
	rec.Set(domain.FieldConsumerKey, fields[domain.FieldConsumerKey])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	rec.Set(domain.FieldOAuthToken, fields[domain.FieldOAuthToken])
	rec.Set(domain.FieldTokenSecret, fields[domain.FieldTokenSecret])
	rec.Validation = &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(fields[domain.FieldOAuthToken]),
		AccountID:   account.IDStr,
		AccountName: account.ScreenName,
		CheckedAt:   time.Now(),
	}
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving twitter credentials: %w", err)
	}

	logger.Info("twitter: authenticated as @%s", account.ScreenName)
	return true, nil
}

// Authorize drives the three-legged OAuth1a dance: obtain a request
// token, send the user to the authorization page, receive the verifier
// on the loopback callback, and trade it for the permanent access
// token pair.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}
	if err := platforms.RequireFields(PlatformName, fields,
		domain.FieldConsumerKey, domain.FieldClientSecret); err != nil {
		return "", err
	}

	port := m.cfg.CallbackPort
	if port == 0 {
		port, err = oauth.FindAvailablePort(oauth.DefaultPortRangeStart, oauth.DefaultPortRangeEnd)
		if err != nil {
			return "", err
		}
	}

	// OAuth1a carries no state parameter; the request-token/verifier
	// pairing plays that role.
	server := oauth.NewCallbackServer(port, "")
	if err := server.Start(); err != nil {
		return "", err
	}
	defer server.Stop() //nolint:errcheck // teardown on the way out

	conf := m.oauthConfig(fields, server.RedirectURI())

	requestToken, requestSecret, err := conf.RequestToken()
	if err != nil {
		return "", fmt.Errorf("twitter request token: %w", err)
	}

	authURL, err := conf.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("twitter authorization URL: %w", err)
	}

	fmt.Printf("Visit this URL to authorize agoras with Twitter:\n\n  %s\n\n", authURL.String())
	if err := oauth.OpenBrowser(authURL.String()); err != nil {
		logger.Debug("twitter: could not open browser: %v", err)
	}

	cb, err := server.Wait(m.cfg.AuthTimeout)
	if err != nil {
		return "", err
	}
	if cb.Token != "" && cb.Token != requestToken {
		return "", fmt.Errorf("%w: callback token does not match request token", domain.ErrStateMismatch)
	}

	accessToken, accessSecret, err := conf.AccessToken(requestToken, requestSecret, cb.Verifier)
	if err != nil {
		return "", fmt.Errorf("twitter access token exchange: %w", err)
	}

	rec := stored.Clone()
	rec.Set(domain.FieldConsumerKey, fields[domain.FieldConsumerKey])
	rec.Set(domain.FieldClientSecret, fields[domain.FieldClientSecret])
	rec.Set(domain.FieldOAuthToken, accessToken)
	rec.Set(domain.FieldTokenSecret, accessSecret)
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return "", fmt.Errorf("saving twitter credentials: %w", err)
	}

	logger.Info("twitter: stored access token %s under %q", logger.Secret(accessToken), identifier)
	return accessToken, nil
}

// Disconnect clears the stored credential for this identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	identifier := m.cfg.Identifier
	if identifier == "" {
		identifier = domain.DefaultIdentifier
	}
	m.client = nil
	m.accountID = ""
	m.accountName = ""
	return m.store.Delete(ctx, PlatformName, identifier)
}
