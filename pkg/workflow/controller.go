// Package workflow drives the bundle-merge workflow: admission of uploads,
// the merge job lifecycle, and persistence of terminal results. It is the
// only place the ordering rules between those steps live.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/internal/metrics"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
	"github.com/mergeflow/mergeflow/pkg/validate"
)

// Upload is one candidate file: metadata for validation plus the content
// stream handed to the transport on admission.
type Upload struct {
	Name      string
	SizeBytes int64
	Content   io.Reader
}

// Controller is the workflow state machine. It owns the session for the
// lifetime of one workflow instance and enforces the legal ordering:
// Bundle A first (which issues the session), then Bundle B and schemas, then
// the merge job. Terminal results are handed off to the result store; the
// controller keeps no authority over them afterwards.
type Controller struct {
	service ports.MergeService
	store   ports.ResultStore
	logger  *slog.Logger
	metrics *metrics.Set
	notify  func(*domain.Job)
	poller  *Poller
	runID   string

	pollInterval time.Duration

	mu         sync.Mutex
	sessionID  string
	phase      domain.Phase
	bundles    map[domain.Bundle][]domain.UploadedFile
	currentErr error
	// errResumable marks currentErr as a post-submission failure: it is
	// reported through Err but does not gate another Continue attempt.
	errResumable bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger configures workflow logging.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics configures workflow instrumentation.
func WithMetrics(m *metrics.Set) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithPollInterval overrides the delay between job status polls.
func WithPollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.pollInterval = d
	}
}

// WithSession binds the controller to an already-established session, for
// callers resuming a workflow across process boundaries. Bundle A is treated
// as fixed: further Bundle A batches are rejected.
func WithSession(sessionID string) ControllerOption {
	return func(c *Controller) {
		if sessionID == "" {
			return
		}
		c.sessionID = sessionID
		c.phase = domain.PhaseSessionActive
	}
}

// WithStatusNotifier registers a callback invoked on every observed job
// status while Continue is polling.
func WithStatusNotifier(fn func(*domain.Job)) ControllerOption {
	return func(c *Controller) {
		c.notify = fn
	}
}

// NewController creates a workflow bound to a merge service and result store.
func NewController(service ports.MergeService, store ports.ResultStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		service: service,
		store:   store,
		logger:  logging.NewNop(),
		metrics: metrics.NewNopSet(),
		runID:   uuid.NewString(),
		phase:   domain.PhaseNoSession,
		bundles: make(map[domain.Bundle][]domain.UploadedFile),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	c.poller = NewPoller(service,
		WithInterval(c.pollInterval),
		WithPollerLogger(c.logger),
		WithPollerMetrics(c.metrics),
	)
	c.logger = c.logger.With("run_id", c.runID)
	return c
}

// AddFiles validates a batch and, on success, uploads it to the named slot.
// The local bundle list is extended only after the server acknowledges the
// upload; a rejected batch leaves the workflow untouched apart from the
// current-error slot.
func (c *Controller) AddFiles(ctx context.Context, bundle domain.Bundle, uploads []Upload) error {
	if !bundle.Valid() {
		return c.fail(fmt.Errorf("unknown bundle %q", bundle))
	}

	c.clearErr()

	infos := make([]domain.FileInfo, len(uploads))
	for i, u := range uploads {
		infos[i] = domain.FileInfo{Name: u.Name, SizeBytes: u.SizeBytes}
	}
	if err := validate.Check(infos, validate.PolicyFor(bundle)); err != nil {
		return c.fail(err)
	}

	files := make([]ports.File, len(uploads))
	for i, u := range uploads {
		files[i] = ports.File{Name: u.Name, Content: u.Content}
	}

	switch bundle {
	case domain.BundleA:
		if err := c.uploadBundleA(ctx, files); err != nil {
			return c.fail(err)
		}
	default:
		// Ordering rule: everything except the first Bundle A batch needs
		// the session id, checked before any network call.
		sessionID := c.SessionID()
		if sessionID == "" {
			return c.fail(domain.ErrSessionRequired)
		}
		var err error
		if bundle == domain.BundleB {
			err = c.service.UploadBundleB(ctx, sessionID, files)
		} else {
			err = c.service.UploadSchema(ctx, sessionID, bundle, files)
		}
		if err != nil {
			return c.fail(err)
		}
	}

	c.admit(bundle, infos)
	return nil
}

func (c *Controller) uploadBundleA(ctx context.Context, files []ports.File) error {
	c.mu.Lock()
	established := c.sessionID != ""
	c.mu.Unlock()
	if established {
		return domain.ErrSessionEstablished
	}

	sessionID, err := c.service.CreateSession(ctx, files)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = sessionID
	if c.phase == domain.PhaseNoSession {
		c.phase = domain.PhaseSessionActive
	}
	c.mu.Unlock()

	c.logger.Info("session established", "session_id", sessionID)
	return nil
}

// admit records server-acknowledged files in the local bundle list.
func (c *Controller) admit(bundle domain.Bundle, infos []domain.FileInfo) {
	c.mu.Lock()
	for _, info := range infos {
		c.bundles[bundle] = append(c.bundles[bundle], domain.NewUploadedFile(info))
	}
	c.mu.Unlock()

	c.metrics.Uploads.WithLabelValues(string(bundle)).Add(float64(len(infos)))
}

// RemoveFile drops an entry from the displayed bundle list. The removal is
// local only: the server keeps its copy, because the merge service exposes no
// retraction endpoint. Files removed here will still participate in a merge.
func (c *Controller) RemoveFile(bundle domain.Bundle, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.bundles[bundle]
	if index < 0 || index >= len(list) {
		return false
	}
	c.bundles[bundle] = append(list[:index], list[index+1:]...)
	return true
}

// CanContinue reports whether the merge may be submitted: both bundles have
// at least one acknowledged file and no unresolved admission error is set.
// A merge attempt that already ran and failed does not count against it: a
// failed job is a normal outcome and the workflow stays open for a retry.
func (c *Controller) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bundles[domain.BundleA]) > 0 &&
		len(c.bundles[domain.BundleB]) > 0 &&
		(c.currentErr == nil || c.errResumable)
}

// Continue submits the merge job and polls it to a terminal state. On
// success the result is persisted under the session id and returned; the
// session id doubles as the navigation target for the results view. On a
// terminal failure the server's error text becomes the current error and the
// workflow stays resumable, so Continue may be called again.
func (c *Controller) Continue(ctx context.Context) (*domain.JobResult, error) {
	c.clearErr()

	c.mu.Lock()
	sessionID := c.sessionID
	ready := len(c.bundles[domain.BundleA]) > 0 && len(c.bundles[domain.BundleB]) > 0
	c.mu.Unlock()

	if !ready {
		return nil, c.fail(domain.ErrNotReady)
	}
	// Defensive: CanContinue implies a session, but the invariant is cheap
	// to check and the failure mode without it is an opaque server 404.
	if sessionID == "" {
		return nil, c.fail(domain.ErrSessionRequired)
	}

	jobID, err := c.service.StartMerge(ctx, sessionID)
	if err != nil {
		return nil, c.fail(err)
	}

	c.setPhase(domain.PhaseJobRunning)
	c.logger.Info("merge submitted", "session_id", sessionID, "job_id", jobID)

	job, err := c.poller.Wait(ctx, jobID, c.notify)
	if err != nil {
		// Cancelled before terminal: the job may still be running server-side.
		c.setPhase(domain.PhaseSessionActive)
		return nil, c.failResumable(err)
	}

	if job.Status == domain.JobFailed {
		c.setPhase(domain.PhaseSessionActive)
		c.metrics.Jobs.WithLabelValues("failed").Inc()
		msg := job.Error
		if msg == "" {
			msg = "merge job failed"
		}
		return nil, c.failResumable(errors.New(msg))
	}

	result := job.Result
	if result == nil {
		result = &domain.JobResult{}
	}
	if result.SessionID == "" {
		result.SessionID = sessionID
	}

	if err := c.store.Save(ctx, sessionID, result); err != nil {
		c.setPhase(domain.PhaseSessionActive)
		return nil, c.failResumable(fmt.Errorf("failed to persist merge result: %w", err))
	}

	c.setPhase(domain.PhaseJobTerminal)
	c.metrics.Jobs.WithLabelValues("success").Inc()
	c.logger.Info("merge complete", "session_id", sessionID, "output_files", len(result.OutputFiles))
	return result, nil
}

// SessionID returns the server-issued session id, or "" before Bundle A.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Phase returns the current workflow position.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the single current error, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentErr
}

// Files returns a copy of the acknowledged uploads for a bundle.
func (c *Controller) Files(bundle domain.Bundle) []domain.UploadedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.UploadedFile(nil), c.bundles[bundle]...)
}

func (c *Controller) setPhase(next domain.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase.CanTransition(next) {
		c.phase = next
	}
}

func (c *Controller) clearErr() {
	c.mu.Lock()
	c.currentErr = nil
	c.errResumable = false
	c.mu.Unlock()
}

// fail records err in the single current-error slot and returns it.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.currentErr = err
	c.errResumable = false
	c.mu.Unlock()
	c.logger.Warn("workflow error", "err", err)
	return err
}

// failResumable records a failure from an attempt that already reached the
// merge service. The error is surfaced through Err, but the workflow stays
// open: CanContinue keeps reporting true so the merge can be retried.
func (c *Controller) failResumable(err error) error {
	c.mu.Lock()
	c.currentErr = err
	c.errResumable = true
	c.mu.Unlock()
	c.logger.Warn("workflow error", "err", err)
	return err
}
