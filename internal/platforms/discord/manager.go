// Package discord implements the auth manager for Discord. Discord is
// a direct-credential platform: there is no interactive OAuth dance,
// Authorize validates the supplied bot token against the live API and
// stores it together with the resolved server and channel ids.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// PlatformName is the storage key for Discord credentials.
const PlatformName = "discord"

// Environment variables feeding credential resolution.
const (
	EnvBotToken    = "DISCORD_BOT_TOKEN"
	EnvServerName  = "DISCORD_SERVER_NAME"
	EnvChannelName = "DISCORD_CHANNEL_NAME"
)

// APIURL is the Discord REST base. Overridable in tests.
var APIURL = "https://discord.com/api/v10"

// Validation budgets: identity lookup must answer fast, guild and
// channel enumeration gets a larger window.
const (
	identityTimeout = 10 * time.Second
	readyTimeout    = 30 * time.Second
)

// Cached-validation extra keys.
const (
	extraGuildID     = "guild_id"
	extraGuildName   = "guild_name"
	extraChannelID   = "channel_id"
	extraChannelName = "channel_name"
)

// Config holds explicit credential parameters with the usual
// explicit > env > stored fallback per field.
type Config struct {
	BotToken    string
	ServerName  string
	ChannelName string
	// Identifier selects the stored identity; empty means the server
	// name when known, else "default".
	Identifier string
}

// Manager is the Discord auth manager.
type Manager struct {
	cfg     Config
	store   driven.TokenStore
	limiter *platforms.RateLimiter

	botToken  string
	guildID   string
	channelID string
	botName   string
}

var _ platforms.Manager = (*Manager)(nil)

// New creates a Discord auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store, limiter: platforms.NewRateLimiter()}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// BotToken returns the validated in-memory bot token.
func (m *Manager) BotToken() string { return m.botToken }

// ChannelID returns the resolved channel id from the last
// authenticate/authorize.
func (m *Manager) ChannelID() string { return m.channelID }

func (m *Manager) identifier() string {
	if m.cfg.Identifier != "" {
		return m.cfg.Identifier
	}
	if name := platforms.Resolve(m.cfg.ServerName, EnvServerName, ""); name != "" {
		return name
	}
	return ""
}

func (m *Manager) resolve(ctx context.Context) (string, *domain.CredentialRecord, map[string]string, error) {
	identifier, stored, err := platforms.ResolveIdentifier(ctx, m.store, PlatformName, m.identifier())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", nil, nil, err
	}
	if stored == nil {
		rec := domain.NewCredentialRecord()
		stored = &rec
	}

	fields := map[string]string{
		domain.FieldBotToken: platforms.Resolve(m.cfg.BotToken, EnvBotToken, stored.Get(domain.FieldBotToken)),
		"server_name":        platforms.Resolve(m.cfg.ServerName, EnvServerName, stored.Get("server_name")),
		"channel_name":       platforms.Resolve(m.cfg.ChannelName, EnvChannelName, stored.Get("channel_name")),
	}
	return identifier, stored, fields, nil
}

// Authenticate makes the manager ready to post. When the stored cached
// validation carries the SHA-256 fingerprint of the current token, the
// network round trip is skipped entirely; otherwise the token is
// validated live and the cache refreshed. Returns (false, nil) when no
// token is stored or Discord rejects it.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	token := fields[domain.FieldBotToken]
	if token == "" {
		logger.Debug("discord: no bot token stored, not authenticated")
		return false, nil
	}

	if v := stored.Validation; v != nil && v.TokenSHA256 == platforms.Fingerprint(token) {
		m.botToken = token
		m.botName = v.AccountName
		m.guildID = v.Extra[extraGuildID]
		m.channelID = v.Extra[extraChannelID]
		logger.Debug("discord: using cached validation for %s", v.AccountName)
		return true, nil
	}

	validation, err := m.validate(ctx, token, fields["server_name"], fields["channel_name"])
	if err != nil {
		if platforms.IsAuthRejection(err) {
			logger.Debug("discord: bot token rejected")
			return false, nil
		}
		return false, err
	}

	m.botToken = token

	rec := stored.Clone()
	rec.Set(domain.FieldBotToken, token)
	rec.Set("server_name", fields["server_name"])
	rec.Set("channel_name", fields["channel_name"])
	rec.Validation = validation
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving discord credentials: %w", err)
	}

	logger.Info("discord: authenticated as %s", validation.AccountName)
	return true, nil
}

// Authorize validates the given bot token against the live API and
// stores it; Discord has no browser flow to drive.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}
	if err := platforms.RequireFields(PlatformName, fields, domain.FieldBotToken); err != nil {
		return "", err
	}
	token := fields[domain.FieldBotToken]

	validation, err := m.validate(ctx, token, fields["server_name"], fields["channel_name"])
	if err != nil {
		return "", err
	}
	m.botToken = token

	if identifier == domain.DefaultIdentifier && fields["server_name"] != "" {
		identifier = fields["server_name"]
	}

	rec := stored.Clone()
	rec.Set(domain.FieldBotToken, token)
	rec.Set("server_name", fields["server_name"])
	rec.Set("channel_name", fields["channel_name"])
	rec.Validation = validation
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return "", fmt.Errorf("saving discord credentials: %w", err)
	}

	logger.Info("discord: stored bot token %s under %q", logger.Secret(token), identifier)
	return token, nil
}

// Disconnect clears the stored credential for this identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	identifier := m.identifier()
	if identifier == "" {
		identifier = domain.DefaultIdentifier
	}
	m.botToken = ""
	m.guildID = ""
	m.channelID = ""
	return m.store.Delete(ctx, PlatformName, identifier)
}

// validate checks the token against /users/@me within the identity
// budget, then resolves the configured server and channel names to ids
// within the ready budget. Timeouts are distinguished failures, not
// hangs.
func (m *Manager) validate(ctx context.Context, token, serverName, channelName string) (*domain.CachedValidation, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	auth := "Bot " + token
	client := &http.Client{Timeout: identityTimeout}

	identityCtx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := platforms.GetJSON(identityCtx, client, APIURL+"/users/@me", auth, &me); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: discord identity check exceeded %s", domain.ErrAuthorizationTimeout, identityTimeout)
		}
		return nil, err
	}

	validation := &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(token),
		AccountID:   me.ID,
		AccountName: me.Username,
		Extra:       map[string]string{},
		CheckedAt:   time.Now(),
	}

	if serverName == "" {
		return validation, nil
	}

	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	client = &http.Client{Timeout: readyTimeout}

	var guilds []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := platforms.GetJSON(readyCtx, client, APIURL+"/users/@me/guilds", auth, &guilds); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: discord guild lookup exceeded %s", domain.ErrAuthorizationTimeout, readyTimeout)
		}
		return nil, err
	}

	var guildID string
	for _, g := range guilds {
		if g.Name == serverName {
			guildID = g.ID
			break
		}
	}
	if guildID == "" {
		return nil, fmt.Errorf("%w: bot is not a member of server %q", domain.ErrNotFound, serverName)
	}
	validation.Extra[extraGuildID] = guildID
	validation.Extra[extraGuildName] = serverName
	m.guildID = guildID

	if channelName == "" {
		return validation, nil
	}

	var channels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := platforms.GetJSON(readyCtx, client, APIURL+"/guilds/"+guildID+"/channels", auth, &channels); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: discord channel lookup exceeded %s", domain.ErrAuthorizationTimeout, readyTimeout)
		}
		return nil, err
	}

	for _, c := range channels {
		if c.Name == channelName {
			validation.Extra[extraChannelID] = c.ID
			validation.Extra[extraChannelName] = channelName
			m.channelID = c.ID
			return validation, nil
		}
	}
	return nil, fmt.Errorf("%w: channel %q not found in server %q", domain.ErrNotFound, channelName, serverName)
}
