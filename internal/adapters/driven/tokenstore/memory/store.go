// Package memory provides an in-memory TokenStore for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TokenStore = (*Store)(nil)

// Store is an in-memory implementation of driven.TokenStore.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]domain.CredentialRecord
}

// NewStore creates a new in-memory token store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]domain.CredentialRecord),
	}
}

// Save upserts a credential record.
func (s *Store) Save(_ context.Context, platform, identifier string, rec domain.CredentialRecord) error {
	if platform == "" || identifier == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[platform] == nil {
		s.records[platform] = make(map[string]domain.CredentialRecord)
	}
	s.records[platform][identifier] = rec.Clone()
	return nil
}

// Load returns the record for the key, or domain.ErrNotFound.
func (s *Store) Load(_ context.Context, platform, identifier string) (*domain.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[platform][identifier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

// List returns all records for a platform in identifier order.
func (s *Store) List(_ context.Context, platform string) ([]domain.StoredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records[platform]))
	for id := range s.records[platform] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.StoredCredential, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.StoredCredential{
			Identifier: id,
			Record:     s.records[platform][id].Clone(),
		})
	}
	return out, nil
}

// Delete removes the record for the key.
func (s *Store) Delete(_ context.Context, platform, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[platform], identifier)
	return nil
}
