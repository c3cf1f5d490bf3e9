package domain

import "time"

// Canonical credential field names. Platforms use the subset that
// applies to their auth model.
const (
	FieldClientID     = "client_id"
	FieldClientSecret = "client_secret"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldBotToken     = "bot_token"
	FieldConsumerKey  = "consumer_key"
	FieldTokenSecret  = "token_secret"
	FieldOAuthToken   = "oauth_token"
	FieldObjectID     = "object_id"
	FieldPhoneNumber  = "phone_number_id"
)

// DefaultIdentifier keys single-identity platforms in the token store.
const DefaultIdentifier = "default"

// CredentialRecord is everything stored for one (platform, identifier)
// pair: the raw credential fields plus an optional cached validation
// snapshot. Callers load, mutate and save the whole record.
type CredentialRecord struct {
	Fields     map[string]string `json:"fields"`
	Validation *CachedValidation `json:"validation,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewCredentialRecord creates an empty record.
func NewCredentialRecord() CredentialRecord {
	return CredentialRecord{Fields: make(map[string]string)}
}

// Get returns a field value, "" when absent.
func (r *CredentialRecord) Get(field string) string {
	return r.Fields[field]
}

// Set stores a field value. Empty values are stored as-is so a caller
// can deliberately clear a field.
func (r *CredentialRecord) Set(field, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[field] = value
}

// HasAll reports whether every named field is non-empty.
func (r *CredentialRecord) HasAll(fields ...string) bool {
	for _, f := range fields {
		if r.Fields[f] == "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, so stored records are never aliased by
// callers mutating their working copy.
func (r CredentialRecord) Clone() CredentialRecord {
	out := r
	out.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	if r.Validation != nil {
		v := r.Validation.Clone()
		out.Validation = &v
	}
	return out
}

// CachedValidation is the snapshot saved after a successful live
// validation. TokenSHA256 fingerprints the validated token so a later
// run can skip the network round trip when the token is unchanged.
type CachedValidation struct {
	TokenSHA256 string            `json:"token_sha256"`
	AccountID   string            `json:"account_id"`
	AccountName string            `json:"account_name"`
	Extra       map[string]string `json:"extra,omitempty"`
	CheckedAt   time.Time         `json:"checked_at"`
}

// Clone returns a deep copy.
func (v CachedValidation) Clone() CachedValidation {
	out := v
	if v.Extra != nil {
		out.Extra = make(map[string]string, len(v.Extra))
		for k, val := range v.Extra {
			out.Extra[k] = val
		}
	}
	return out
}

// StoredCredential pairs a record with its identifier, as returned by
// TokenStore.List.
type StoredCredential struct {
	Identifier string
	Record     CredentialRecord
}

// Preview returns a short irreversible prefix of a secret, safe for
// logs and CLI output. The full value is never printed.
func Preview(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	if len(secret) <= 6 {
		return secret[:1] + "..."
	}
	return secret[:6] + "..."
}
