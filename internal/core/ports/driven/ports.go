// Package driven defines the interfaces the core depends on.
// Adapters under internal/adapters/driven implement them.
package driven

import (
	"context"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

// TokenStore is durable, keyed, at-rest storage of per-platform
// credentials. Records are keyed by (platform, identifier); callers
// treat load-mutate-save as the unit of work so unrelated fields are
// not clobbered by a partial update.
type TokenStore interface {
	// Save upserts a credential record, overwriting the prior record
	// for that key entirely.
	Save(ctx context.Context, platform, identifier string, rec domain.CredentialRecord) error

	// Load returns the record for the key, or domain.ErrNotFound.
	Load(ctx context.Context, platform, identifier string) (*domain.CredentialRecord, error)

	// List returns all records for a platform in identifier order.
	// Used as a fallback so a single stored identity is found without
	// the caller knowing its identifier.
	List(ctx context.Context, platform string) ([]domain.StoredCredential, error)

	// Delete removes the record for the key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, platform, identifier string) error
}

// Spreadsheet models the remote worksheet backing the schedule queue.
// The sheet is the single source of truth: it is always read in full
// and rewritten in full, never patched row by row.
type Spreadsheet interface {
	// ReadAll returns every row of the sheet. Row 1 is data, not a
	// header.
	ReadAll(ctx context.Context) ([][]string, error)

	// ReplaceAll overwrites the entire sheet contents with rows.
	ReplaceAll(ctx context.Context, rows [][]string) error

	// Append adds rows after the current contents.
	Append(ctx context.Context, rows [][]string) error
}

// Publisher performs the platform action for a due scheduled post.
// Platform API wrappers implement this; the schedule core consumes it
// as an opaque capability.
type Publisher interface {
	Publish(ctx context.Context, post domain.Post) error
}

// ConfigStore provides typed access to persisted tool configuration.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	Set(key string, value any) error
	Save() error
	Load() error
	Path() string
}
