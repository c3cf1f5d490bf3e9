// Package sqlite implements the TokenStore port on an encrypted
// SQLite database. Records are serialized to JSON and sealed with
// ChaCha20-Poly1305 before hitting disk, so the database file never
// contains cleartext secrets.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TokenStore = (*Store)(nil)

// Store is a SQLite-backed token store.
type Store struct {
	db   *sql.DB
	path string
	key  []byte
}

// NewStore opens (or creates) the token database under dataDir.
// If dataDir is empty, defaults to ~/.agoras/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".agoras", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tokens.db")

	// WAL mode for concurrent readers during a long authorize flow
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(dataDir, "store.key"))
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, path: dbPath, key: key}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			platform   TEXT NOT NULL,
			identifier TEXT NOT NULL,
			record     BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (platform, identifier)
		)
	`)
	return err
}

// Save upserts a credential record, replacing the prior record for the
// key entirely.
func (s *Store) Save(ctx context.Context, platform, identifier string, rec domain.CredentialRecord) error {
	if platform == "" || identifier == "" {
		return domain.ErrInvalidInput
	}

	sealed, err := s.seal(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tokens (platform, identifier, record, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(platform, identifier) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at
	`, platform, identifier, sealed)
	if err != nil {
		return fmt.Errorf("saving token record: %w", err)
	}
	return nil
}

// Load returns the record for (platform, identifier) or ErrNotFound.
func (s *Store) Load(ctx context.Context, platform, identifier string) (*domain.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT record FROM tokens WHERE platform = ? AND identifier = ?
	`, platform, identifier)

	var sealed []byte
	if err := row.Scan(&sealed); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("loading token record: %w", err)
	}

	rec, err := s.open(sealed)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all records for a platform, ordered by identifier.
func (s *Store) List(ctx context.Context, platform string) ([]domain.StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, record FROM tokens WHERE platform = ? ORDER BY identifier
	`, platform)
	if err != nil {
		return nil, fmt.Errorf("listing token records: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredCredential
	for rows.Next() {
		var identifier string
		var sealed []byte
		if err := rows.Scan(&identifier, &sealed); err != nil {
			return nil, fmt.Errorf("scanning token record: %w", err)
		}
		rec, err := s.open(sealed)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.StoredCredential{Identifier: identifier, Record: *rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating token records: %w", err)
	}
	return out, nil
}

// Delete removes the record for the key. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, platform, identifier string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE platform = ? AND identifier = ?", platform, identifier)
	if err != nil {
		return fmt.Errorf("deleting token record: %w", err)
	}
	return nil
}

// seal encrypts a record with the store key. The nonce is prepended to
// the ciphertext.
func (s *Store) seal(rec domain.CredentialRecord) ([]byte, error) {
	plain, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshalling token record: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Store) open(sealed []byte) (*domain.CredentialRecord, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("token record too short to contain nonce")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unsealing token record: %w", err)
	}

	var rec domain.CredentialRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling token record: %w", err)
	}
	return &rec, nil
}

// loadOrCreateKey reads the 32-byte store key, generating it with mode
// 0600 on first use.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("store key at %s has wrong size", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading store key: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating store key: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("writing store key: %w", err)
	}
	return key, nil
}
