package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/cerebro/pkg/domain"
)

// Store implements ports.ProfileStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Profile
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Profile),
	}
}

// Save persists the profile in memory.
func (s *Store) Save(ctx context.Context, profile *domain.Profile) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := profile.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[profile.ID] = copied
	return nil
}

// Load retrieves the profile from memory.
func (s *Store) Load(ctx context.Context, profileID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.data[profileID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}

	// Copy on read so caller can't mutate store state directly by pointer
	return profile.Clone(), nil
}

// Delete removes the profile.
func (s *Store) Delete(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, profileID)
	return nil
}

// List returns stored profile IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
