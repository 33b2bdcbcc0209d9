// Package file provides a filesystem-backed ResultStore. It is the default
// durable store: results survive process restarts and are readable from a
// separately-launched results view.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

// Store implements ports.ResultStore using the local filesystem.
// It stores merge results as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new file store rooted at basePath.
// If basePath is empty, it defaults to ".mergeflow/results".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".mergeflow", "results")
	}
	return &Store{BasePath: basePath}
}

// Save persists the merge result to a JSON file, replacing any prior entry
// for the same session.
func (s *Store) Save(ctx context.Context, sessionID string, result *domain.JobResult) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure results directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.WriteFile(s.path(sessionID), data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}

	return nil
}

// Load retrieves the merge result from its JSON file. A missing, empty, or
// malformed file is reported as domain.ErrResultNotFound; corruption never
// propagates to the caller as a distinct failure.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.JobResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var result domain.JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.ErrResultNotFound
	}

	return &result, nil
}

// Delete removes the result file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	err := os.Remove(s.path(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete result file: %w", err)
	}

	return nil
}

// List returns all session IDs with a stored result.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			sessions = append(sessions, name[:len(name)-len(".json")])
		}
	}

	return sessions, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}
