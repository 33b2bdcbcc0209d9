package workflow_test

import (
	"context"
	"sync"

	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// fakeService is an in-memory MergeService scripted per test. It records
// every call and can assert that job polls never overlap.
type fakeService struct {
	mu sync.Mutex

	sessionID  string
	jobID      string
	createErr  error
	uploadBErr error
	schemaErr  error
	mergeErr   error

	// statuses is the scripted JobStatus sequence; the last entry repeats.
	statuses  []domain.Job
	statusIdx int
	statusErr error

	// gate, when non-nil, blocks JobStatus until released.
	gate chan struct{}

	calls       []string
	inFlight    int
	maxInFlight int
}

var _ ports.MergeService = (*fakeService)(nil)

func newFakeService() *fakeService {
	return &fakeService{sessionID: "s1", jobID: "j1"}
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) CreateSession(ctx context.Context, files []ports.File) (string, error) {
	f.record("create-session")
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.sessionID, nil
}

func (f *fakeService) UploadBundleB(ctx context.Context, sessionID string, files []ports.File) error {
	f.record("upload-b:" + sessionID)
	return f.uploadBErr
}

func (f *fakeService) UploadSchema(ctx context.Context, sessionID string, which domain.Bundle, files []ports.File) error {
	f.record("upload-schema:" + string(which) + ":" + sessionID)
	return f.schemaErr
}

func (f *fakeService) StartMerge(ctx context.Context, sessionID string) (string, error) {
	f.record("start-merge:" + sessionID)
	if f.mergeErr != nil {
		return "", f.mergeErr
	}
	return f.jobID, nil
}

func (f *fakeService) JobStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls = append(f.calls, "job-status:"+jobID)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.endPoll()
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	var job domain.Job
	if f.statusIdx < len(f.statuses) {
		job = f.statuses[f.statusIdx]
		f.statusIdx++
	} else if len(f.statuses) > 0 {
		job = f.statuses[len(f.statuses)-1]
	}
	err := f.statusErr
	f.inFlight--
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (f *fakeService) endPoll() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeService) SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	f.record("session-status:" + sessionID)
	return &domain.SessionStatus{SessionID: sessionID, ReadyToMerge: true}, nil
}
