package ports

import (
	"context"
	"io"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

// File is one multipart upload part: a name plus its content stream.
type File struct {
	Name    string
	Content io.Reader
}

// MergeService is the external collaborator that owns sessions, bundles, and
// merge jobs. The workflow only depends on the request/response shapes here;
// the matching algorithm behind them is out of scope.
type MergeService interface {
	// CreateSession uploads the first Bundle A batch and returns the
	// server-issued session ID.
	CreateSession(ctx context.Context, files []File) (string, error)

	// UploadBundleB adds files to Bundle B of an existing session. The
	// session ID is attached explicitly on every call.
	UploadBundleB(ctx context.Context, sessionID string, files []File) error

	// UploadSchema attaches optional schema documents (domain.SchemaA or
	// domain.SchemaB) to an existing session.
	UploadSchema(ctx context.Context, sessionID string, which domain.Bundle, files []File) error

	// StartMerge submits the merge job for a session and returns the job ID.
	StartMerge(ctx context.Context, sessionID string) (string, error)

	// JobStatus reads the current state of a job.
	JobStatus(ctx context.Context, jobID string) (*domain.Job, error)

	// SessionStatus reports a best-effort session summary. Used only as a
	// fallback when no persisted result exists.
	SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error)
}
