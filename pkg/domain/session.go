package domain

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Bundle names the upload slot a file belongs to.
type Bundle string

const (
	BundleA Bundle = "A"
	BundleB Bundle = "B"
	SchemaA Bundle = "schemaA"
	SchemaB Bundle = "schemaB"
)

// Valid reports whether b is one of the known upload slots.
func (b Bundle) Valid() bool {
	switch b {
	case BundleA, BundleB, SchemaA, SchemaB:
		return true
	}
	return false
}

// Phase is the workflow position. Only forward transitions are legal:
// NoSession -> SessionActive -> JobRunning -> JobTerminal, except that a
// terminal failure returns to SessionActive so the merge can be retried.
type Phase string

const (
	PhaseNoSession     Phase = "no_session"
	PhaseSessionActive Phase = "session_active"
	PhaseJobRunning    Phase = "job_running"
	PhaseJobTerminal   Phase = "job_terminal"
)

// CanTransition reports whether moving from p to next is a legal step.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseNoSession:
		return next == PhaseSessionActive
	case PhaseSessionActive:
		return next == PhaseJobRunning
	case PhaseJobRunning:
		return next == PhaseJobTerminal || next == PhaseSessionActive
	case PhaseJobTerminal:
		return false
	}
	return false
}

// FileInfo describes a candidate file before validation and upload.
// Size is known up front so validation needs no I/O.
type FileInfo struct {
	Name      string
	SizeBytes int64
}

// UploadedFile records a file the server has acknowledged. Entries are
// created only after a successful upload and are immutable afterwards.
type UploadedFile struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	PrettySize string `json:"pretty_size"`
}

// NewUploadedFile builds the record for an acknowledged file, formatting
// the human-readable size once at admission. A negative reported size is
// clamped to zero so it cannot wrap into an absurd pretty-printed value.
func NewUploadedFile(info FileInfo) UploadedFile {
	size := info.SizeBytes
	if size < 0 {
		size = 0
	}
	return UploadedFile{
		Name:       info.Name,
		SizeBytes:  size,
		PrettySize: humanize.IBytes(uint64(size)),
	}
}

// SessionStatus is the best-effort view the merge service reports for a
// session. Used only as a fallback when no persisted result exists.
type SessionStatus struct {
	SessionID    string `json:"session_id"`
	BundleAFiles int    `json:"bundle1_files"`
	BundleBFiles int    `json:"bundle2_files"`
	ReadyToMerge bool   `json:"ready_to_merge"`
}

func (s *SessionStatus) String() string {
	return fmt.Sprintf("session %s: bundle A files=%d, bundle B files=%d, ready=%t",
		s.SessionID, s.BundleAFiles, s.BundleBFiles, s.ReadyToMerge)
}
