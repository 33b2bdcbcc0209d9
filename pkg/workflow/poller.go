package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/internal/metrics"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// DefaultPollInterval is the delay between completed status polls.
const DefaultPollInterval = 1500 * time.Millisecond

// Poller repeatedly queries job status until a terminal state is reached.
// Polls are strictly sequential: the next request is scheduled only after the
// previous response resolves, so slow servers never see a pile-up.
type Poller struct {
	service  ports.MergeService
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Set
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the delay between polls.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger configures poll logging.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollerMetrics configures poll instrumentation.
func WithPollerMetrics(m *metrics.Set) PollerOption {
	return func(p *Poller) {
		p.metrics = m
	}
}

// NewPoller creates a poller reading job state from service.
func NewPoller(service ports.MergeService, opts ...PollerOption) *Poller {
	p := &Poller{
		service:  service,
		interval: DefaultPollInterval,
		logger:   logging.NewNop(),
		metrics:  metrics.NewNopSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle controls one polling loop.
type Handle struct {
	cancelOnce sync.Once
	cancel     context.CancelFunc
	done       chan struct{}

	mu    sync.Mutex
	final *domain.Job
}

// Cancel stops the loop: the pending timer never fires again, and the result
// of an in-flight request is discarded. Safe to call repeatedly.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(h.cancel)
}

// Done is closed when the loop has torn down, either terminally or through
// cancellation.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Final returns the terminal job, or nil if the loop was cancelled before one
// was observed. Only meaningful after Done is closed.
func (h *Handle) Final() *domain.Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.final
}

func (h *Handle) setFinal(job *domain.Job) {
	h.mu.Lock()
	h.final = job
	h.mu.Unlock()
}

// Watch starts polling jobID. onUpdate is invoked once per observed status,
// terminal ones included; it is never invoked after Cancel, and never more
// than once with a terminal status. A nil onUpdate is allowed.
func (p *Poller) Watch(ctx context.Context, jobID string, onUpdate func(*domain.Job)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.loop(ctx, jobID, onUpdate, h)
	return h
}

// Wait runs one polling loop to completion and returns the terminal job.
// Cancellation of ctx surfaces as ctx.Err with a nil job.
func (p *Poller) Wait(ctx context.Context, jobID string, onUpdate func(*domain.Job)) (*domain.Job, error) {
	h := p.Watch(ctx, jobID, onUpdate)
	<-h.Done()
	if final := h.Final(); final != nil {
		return final, nil
	}
	return nil, ctx.Err()
}

func (p *Poller) loop(ctx context.Context, jobID string, onUpdate func(*domain.Job), h *Handle) {
	defer close(h.done)
	defer h.Cancel()

	for {
		job, err := p.service.JobStatus(ctx, jobID)
		p.metrics.Polls.Inc()

		// A response that lands after cancellation is discarded whole.
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err != nil {
			// Transport or decode failure ends the loop; the raw error is
			// surfaced as a failed job rather than swallowed.
			job = &domain.Job{ID: jobID, Status: domain.JobFailed, Error: err.Error()}
			p.logger.Warn("job poll failed", "job_id", jobID, "err", err)
		}

		if onUpdate != nil {
			onUpdate(job)
		}

		if job.Status.Terminal() {
			h.setFinal(job)
			p.logger.Info("job reached terminal state", "job_id", jobID, "status", job.Status)
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
