// Package memory provides an in-memory ResultStore, useful for tests and
// single-process workflows that never navigate away.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the result in memory. Entries are serialized on write so the
// caller cannot mutate stored state through retained pointers.
func (s *Store) Save(ctx context.Context, sessionID string, result *domain.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = data
	return nil
}

// Load retrieves the result from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.JobResult, error) {
	s.mu.RLock()
	data, ok := s.data[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrResultNotFound
	}

	var result domain.JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Treat a corrupt entry the same as a missing one.
		return nil, domain.ErrResultNotFound
	}
	return &result, nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns session IDs with stored results.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
