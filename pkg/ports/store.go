package ports

import (
	"context"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

// ResultStore defines the interface for persisting terminal merge results.
// Entries outlive the workflow controller that produced them: the results
// view runs in a distinct execution context and reads through this interface
// with no in-memory state assumed.
type ResultStore interface {
	// Save persists the result for a session ID. A later save for the same
	// session replaces the entry entirely.
	Save(ctx context.Context, sessionID string, result *domain.JobResult) error

	// Load retrieves the result for a session ID.
	// Returns domain.ErrResultNotFound if the entry is absent or malformed.
	Load(ctx context.Context, sessionID string) (*domain.JobResult, error)

	// Delete removes the result for a session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session IDs that have a stored result.
	List(ctx context.Context) ([]string, error)
}
