// Package whatsapp implements the auth manager for the WhatsApp
// Business Cloud API. Tokens come from the Meta developer console;
// Authorize validates and stores them, keyed by phone number id.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// PlatformName is the storage key for WhatsApp credentials.
const PlatformName = "whatsapp"

// Environment variables feeding credential resolution.
const (
	EnvAccessToken   = "WHATSAPP_ACCESS_TOKEN"
	EnvPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"
)

// GraphURL is the Graph API base. Overridable in tests.
var GraphURL = "https://graph.facebook.com/v19.0"

// Config holds explicit credential parameters with the usual
// explicit > env > stored fallback per field.
type Config struct {
	AccessToken string
	// PhoneNumberID is the sending number's Cloud API id. It doubles as
	// the storage identifier.
	PhoneNumberID string
}

// Manager is the WhatsApp auth manager.
type Manager struct {
	cfg   Config
	store driven.TokenStore

	accessToken   string
	phoneNumberID string
	displayNumber string
}

var _ platforms.Manager = (*Manager)(nil)

// New creates a WhatsApp auth manager.
func New(cfg Config, store driven.TokenStore) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Platform returns the platform name.
func (m *Manager) Platform() string { return PlatformName }

// AccessToken returns the validated in-memory token.
func (m *Manager) AccessToken() string { return m.accessToken }

// PhoneNumberID returns the resolved sending number id.
func (m *Manager) PhoneNumberID() string { return m.phoneNumberID }

func (m *Manager) phoneID() string {
	return platforms.Resolve(m.cfg.PhoneNumberID, EnvPhoneNumberID, "")
}

func (m *Manager) resolve(ctx context.Context) (string, *domain.CredentialRecord, map[string]string, error) {
	identifier, stored, err := platforms.ResolveIdentifier(ctx, m.store, PlatformName, m.phoneID())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", nil, nil, err
	}
	if stored == nil {
		rec := domain.NewCredentialRecord()
		stored = &rec
	}

	fields := map[string]string{
		domain.FieldAccessToken: platforms.Resolve(m.cfg.AccessToken, EnvAccessToken, stored.Get(domain.FieldAccessToken)),
		domain.FieldPhoneNumber: platforms.Resolve(m.cfg.PhoneNumberID, EnvPhoneNumberID, stored.Get(domain.FieldPhoneNumber)),
	}
	return identifier, stored, fields, nil
}

// Authenticate validates the stored token against the phone number
// endpoint. A matching cached fingerprint skips the network round
// trip. Returns (false, nil) when no token is stored or it is
// rejected.
func (m *Manager) Authenticate(ctx context.Context) (bool, error) {
	identifier, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return false, err
	}
	token := fields[domain.FieldAccessToken]
	phoneID := fields[domain.FieldPhoneNumber]
	if token == "" || phoneID == "" {
		logger.Debug("whatsapp: token or phone number id missing, not authenticated")
		return false, nil
	}

	if v := stored.Validation; v != nil && v.TokenSHA256 == platforms.Fingerprint(token) {
		m.accessToken = token
		m.phoneNumberID = phoneID
		m.displayNumber = v.AccountName
		logger.Debug("whatsapp: using cached validation for %s", v.AccountName)
		return true, nil
	}

	validation, err := m.validate(ctx, token, phoneID)
	if err != nil {
		if platforms.IsAuthRejection(err) {
			logger.Debug("whatsapp: token rejected")
			return false, nil
		}
		return false, err
	}

	m.accessToken = token
	m.phoneNumberID = phoneID

	rec := stored.Clone()
	rec.Set(domain.FieldAccessToken, token)
	rec.Set(domain.FieldPhoneNumber, phoneID)
	rec.Validation = validation
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, identifier, rec); err != nil {
		return false, fmt.Errorf("saving whatsapp credentials: %w", err)
	}

	logger.Info("whatsapp: authenticated as %s", validation.AccountName)
	return true, nil
}

// Authorize validates the supplied token and stores it under the phone
// number id; there is no browser flow.
func (m *Manager) Authorize(ctx context.Context) (string, error) {
	_, stored, fields, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}
	if err := platforms.RequireFields(PlatformName, fields,
		domain.FieldAccessToken, domain.FieldPhoneNumber); err != nil {
		return "", err
	}
	token := fields[domain.FieldAccessToken]
	phoneID := fields[domain.FieldPhoneNumber]

	validation, err := m.validate(ctx, token, phoneID)
	if err != nil {
		return "", err
	}
	m.accessToken = token
	m.phoneNumberID = phoneID

	rec := stored.Clone()
	rec.Set(domain.FieldAccessToken, token)
	rec.Set(domain.FieldPhoneNumber, phoneID)
	rec.Validation = validation
	rec.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, PlatformName, phoneID, rec); err != nil {
		return "", fmt.Errorf("saving whatsapp credentials: %w", err)
	}

	logger.Info("whatsapp: stored access token %s under %q", logger.Secret(token), phoneID)
	return token, nil
}

// Disconnect clears the stored credential for this identity.
func (m *Manager) Disconnect(ctx context.Context) error {
	identifier := m.phoneID()
	if identifier == "" {
		identifier = domain.DefaultIdentifier
	}
	m.accessToken = ""
	m.phoneNumberID = ""
	return m.store.Delete(ctx, PlatformName, identifier)
}

func (m *Manager) validate(ctx context.Context, token, phoneID string) (*domain.CachedValidation, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	var number struct {
		ID                 string `json:"id"`
		DisplayPhoneNumber string `json:"display_phone_number"`
		VerifiedName       string `json:"verified_name"`
	}
	u := fmt.Sprintf("%s/%s?fields=display_phone_number,verified_name", GraphURL, url.PathEscape(phoneID))
	if err := platforms.GetJSON(ctx, client, u, "Bearer "+token, &number); err != nil {
		return nil, err
	}

	return &domain.CachedValidation{
		TokenSHA256: platforms.Fingerprint(token),
		AccountID:   number.ID,
		AccountName: number.DisplayPhoneNumber,
		Extra:       map[string]string{"verified_name": number.VerifiedName},
		CheckedAt:   time.Now(),
	}, nil
}
