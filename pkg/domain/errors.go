package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionRequired is returned when an operation needs an established
// session (a successful Bundle A upload) and none exists yet.
var ErrSessionRequired = errors.New("session required: upload Bundle A first")

// ErrSessionEstablished is returned when a Bundle A batch arrives after the
// session is already fixed. The bundle-creation endpoint would issue a fresh
// session and silently orphan the current one, so the workflow refuses.
var ErrSessionEstablished = errors.New("session already established: Bundle A is fixed for this workflow")

// ErrNotReady is returned by Continue when either bundle is still empty.
var ErrNotReady = errors.New("both bundles need at least one uploaded file")

// ErrResultNotFound is returned when a result store has no usable entry for a
// session ID. Malformed persisted entries are reported as this error too, so
// callers never have to distinguish "absent" from "corrupt".
var ErrResultNotFound = errors.New("merge result not found")

// ValidationKind classifies local file validation failures.
type ValidationKind string

const (
	UnsupportedType ValidationKind = "unsupported_type"
	TooLarge        ValidationKind = "too_large"
)

// ValidationError reports the first offending file in a batch. Validation is
// short-circuiting: a batch is admitted whole or rejected on its first
// violation, with no network I/O attempted either way.
type ValidationError struct {
	Kind    ValidationKind
	File    string
	Allowed []string // populated for UnsupportedType
	LimitMB int64    // populated for TooLarge
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case TooLarge:
		return fmt.Sprintf("file %q exceeds the %d MB limit", e.File, e.LimitMB)
	default:
		return fmt.Sprintf("file %q has an unsupported type (allowed: %s)", e.File, strings.Join(e.Allowed, ", "))
	}
}

// ServiceOp identifies which remote operation a ServiceError came from.
type ServiceOp string

const (
	OpUpload     ServiceOp = "upload"
	OpMergeStart ServiceOp = "merge-start"
	OpJobStatus  ServiceOp = "job-status"
)

// ServiceError wraps a non-success response (or transport failure) from the
// merge service. Message carries the server-supplied text verbatim when the
// body was parseable, otherwise a generic fallback.
type ServiceError struct {
	Op      ServiceOp
	Status  int // HTTP status, 0 for transport-level failures
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}
