package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/mergeflow/pkg/adapters/memory"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/workflow"
)

func uploads(names ...string) []workflow.Upload {
	us := make([]workflow.Upload, 0, len(names))
	for _, n := range names {
		us = append(us, workflow.Upload{Name: n, SizeBytes: 1024, Content: strings.NewReader("a,b\n1,2\n")})
	}
	return us
}

func newController(svc *fakeService) (*workflow.Controller, *memory.Store) {
	store := memory.NewStore()
	ctrl := workflow.NewController(svc, store, workflow.WithPollInterval(time.Millisecond))
	return ctrl, store
}

func TestAddFiles_BundleAEstablishesSession(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)

	require.NoError(t, ctrl.AddFiles(context.Background(), domain.BundleA, uploads("customers.csv")))

	assert.Equal(t, "s1", ctrl.SessionID())
	assert.Equal(t, domain.PhaseSessionActive, ctrl.Phase())
	require.Len(t, ctrl.Files(domain.BundleA), 1)
	assert.Equal(t, "customers.csv", ctrl.Files(domain.BundleA)[0].Name)
	assert.NotEmpty(t, ctrl.Files(domain.BundleA)[0].PrettySize)
}

func TestAddFiles_SecondBundleABatchRejected(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	err := ctrl.AddFiles(ctx, domain.BundleA, uploads("more.csv"))

	assert.ErrorIs(t, err, domain.ErrSessionEstablished)
	assert.Equal(t, "s1", ctrl.SessionID(), "the session id must stay stable")
	assert.Len(t, ctrl.Files(domain.BundleA), 1)
}

func TestAddFiles_BundleBRequiresSession(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)

	err := ctrl.AddFiles(context.Background(), domain.BundleB, uploads("clients.csv"))

	assert.ErrorIs(t, err, domain.ErrSessionRequired)
	assert.Zero(t, svc.callCount(), "an ordering violation must not reach the network")
	assert.Empty(t, ctrl.SessionID())
}

func TestAddFiles_SchemaRequiresSession(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)

	err := ctrl.AddFiles(context.Background(), domain.SchemaA, uploads("schema.yaml"))

	assert.ErrorIs(t, err, domain.ErrSessionRequired)
	assert.Zero(t, svc.callCount())
}

func TestAddFiles_ValidationBlocksNetwork(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)

	err := ctrl.AddFiles(context.Background(), domain.BundleA, uploads("virus.exe"))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.UnsupportedType, verr.Kind)
	assert.Equal(t, "virus.exe", verr.File)
	assert.Zero(t, svc.callCount(), "validation failures are resolved locally")
	assert.Empty(t, ctrl.SessionID())
}

func TestAddFiles_NoOptimisticAdd(t *testing.T) {
	svc := newFakeService()
	svc.uploadBErr = errors.New("disk full")
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	err := ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv"))

	require.Error(t, err)
	assert.Empty(t, ctrl.Files(domain.BundleB), "files must not appear before the server acknowledges them")
	assert.Error(t, ctrl.Err())

	// The next attempt clears the previous error.
	svc.uploadBErr = nil
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))
	assert.NoError(t, ctrl.Err())
	assert.Len(t, ctrl.Files(domain.BundleB), 1)
}

func TestAddFiles_SessionIDAttachedToEveryUpload(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.SchemaB, uploads("schema.yaml")))

	assert.Contains(t, svc.calls, "upload-b:s1")
	assert.Contains(t, svc.calls, "upload-schema:schemaB:s1")
}

func TestCanContinue(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)
	ctx := context.Background()

	assert.False(t, ctrl.CanContinue())

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	assert.False(t, ctrl.CanContinue(), "one populated bundle is not enough")

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))
	assert.True(t, ctrl.CanContinue())
}

func TestContinue_EndToEndSuccess(t *testing.T) {
	svc := newFakeService()
	svc.statuses = []domain.Job{
		job(domain.JobRunning),
		job(domain.JobRunning),
		job(domain.JobSuccess),
	}
	ctrl, store := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))
	require.True(t, ctrl.CanContinue())

	result, err := ctrl.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"merged_output.zip"}, result.OutputFiles)
	assert.Equal(t, domain.PhaseJobTerminal, ctrl.Phase())

	// The result store is the durable handoff for the results view.
	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, result.OutputFiles, stored.OutputFiles)
	assert.Equal(t, "s1", stored.SessionID)
}

func TestContinue_FailedJobSurfacesServerErrorVerbatim(t *testing.T) {
	svc := newFakeService()
	svc.statuses = []domain.Job{{ID: "j1", Status: domain.JobFailed, Error: "schema mismatch"}}
	ctrl, store := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))

	_, err := ctrl.Continue(ctx)
	require.Error(t, err)
	assert.Equal(t, "schema mismatch", err.Error())
	require.Error(t, ctrl.Err())
	assert.Equal(t, "schema mismatch", ctrl.Err().Error())
	assert.True(t, ctrl.CanContinue(), "a failed job must not gate a retry")

	// The workflow stays resumable: bundles intact, a retry is legal.
	svc.statuses = []domain.Job{job(domain.JobSuccess)}
	svc.statusIdx = 0
	_, err = ctrl.Continue(ctx)
	require.NoError(t, err)
	assert.NoError(t, ctrl.Err())

	_, err = store.Load(ctx, "s1")
	assert.NoError(t, err)
}

func TestContinue_FailedJobKeepsBundles(t *testing.T) {
	svc := newFakeService()
	svc.statuses = []domain.Job{{ID: "j1", Status: domain.JobFailed, Error: "boom"}}
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))

	_, err := ctrl.Continue(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.PhaseSessionActive, ctrl.Phase())
	assert.Len(t, ctrl.Files(domain.BundleA), 1)
	assert.Len(t, ctrl.Files(domain.BundleB), 1)
	assert.True(t, ctrl.CanContinue())
}

func TestContinue_RequiresBothBundles(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))

	_, err := ctrl.Continue(ctx)
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.NotContains(t, svc.calls, "start-merge:s1")
}

func TestContinue_MergeStartFailure(t *testing.T) {
	svc := newFakeService()
	svc.mergeErr = &domain.ServiceError{Op: domain.OpMergeStart, Status: 400, Message: "Both bundles must be uploaded"}
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))

	_, err := ctrl.Continue(ctx)
	var serr *domain.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.OpMergeStart, serr.Op)
	assert.Equal(t, domain.PhaseSessionActive, ctrl.Phase())
}

func TestContinue_StatusNotifier(t *testing.T) {
	svc := newFakeService()
	svc.statuses = []domain.Job{job(domain.JobQueued), job(domain.JobSuccess)}

	var seen []domain.JobStatus
	store := memory.NewStore()
	ctrl := workflow.NewController(svc, store,
		workflow.WithPollInterval(time.Millisecond),
		workflow.WithStatusNotifier(func(j *domain.Job) {
			seen = append(seen, j.Status)
		}),
	)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv")))
	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleB, uploads("b.csv")))

	_, err := ctrl.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.JobStatus{domain.JobQueued, domain.JobSuccess}, seen)
}

func TestRemoveFile_LocalOnly(t *testing.T) {
	svc := newFakeService()
	ctrl, _ := newController(svc)
	ctx := context.Background()

	require.NoError(t, ctrl.AddFiles(ctx, domain.BundleA, uploads("a.csv", "a2.csv")))
	before := svc.callCount()

	assert.True(t, ctrl.RemoveFile(domain.BundleA, 0))
	assert.False(t, ctrl.RemoveFile(domain.BundleA, 7))

	require.Len(t, ctrl.Files(domain.BundleA), 1)
	assert.Equal(t, "a2.csv", ctrl.Files(domain.BundleA)[0].Name)
	assert.Equal(t, before, svc.callCount(), "removal never reaches the server")
}
