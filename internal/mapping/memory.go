package mapping

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/demandprep/internal/contracts"
)

// MemoryStore is an in-process store (tests, prediction dry-runs)
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]contracts.Mapping
	saves map[string]int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]contracts.Mapping),
		saves: make(map[string]int),
	}
}

// Load returns a copy of the stored mapping
func (s *MemoryStore) Load(_ context.Context, feature string) (contracts.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[feature]
	if !ok {
		return nil, fmt.Errorf("feature %s: %w", feature, contracts.ErrMappingNotFound)
	}
	return m.Clone(), nil
}

// Save replaces the stored mapping
func (s *MemoryStore) Save(_ context.Context, feature string, m contracts.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[feature] = m.Clone()
	s.saves[feature]++
	return nil
}

// Saves reports how many times feature was saved
func (s *MemoryStore) Saves(feature string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[feature]
}
