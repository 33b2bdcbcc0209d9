package mergeflow

import (
	"log/slog"
	"time"

	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/pkg/adapters/file"
	"github.com/mergeflow/mergeflow/pkg/adapters/httpapi"
	"github.com/mergeflow/mergeflow/pkg/ports"
	"github.com/mergeflow/mergeflow/pkg/workflow"
)

// Version is the library version reported by the CLI.
const Version = "0.1.0"

// Workflow is the high-level entry point for the Mergeflow library. It wires
// the default production stack: an HTTP client against the merge service and
// a file-backed result store, driving one workflow controller.
type Workflow struct {
	*workflow.Controller

	client *httpapi.Client
	store  ports.ResultStore
}

// Option defines a functional option for configuring the Workflow.
type Option func(*builder)

type builder struct {
	store        ports.ResultStore
	storeDir     string
	logger       *slog.Logger
	pollInterval time.Duration
}

// WithResultStore injects a custom result store, bypassing the default
// file-backed one.
func WithResultStore(store ports.ResultStore) Option {
	return func(b *builder) {
		b.store = store
	}
}

// WithStoreDir sets the directory of the default file store.
func WithStoreDir(dir string) Option {
	return func(b *builder) {
		b.storeDir = dir
	}
}

// WithLogger configures logging for the client and the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithPollInterval overrides the delay between job status polls.
func WithPollInterval(d time.Duration) Option {
	return func(b *builder) {
		b.pollInterval = d
	}
}

// New creates a Workflow talking to the merge service at baseURL. An empty
// baseURL targets the service's development default.
func New(baseURL string, opts ...Option) *Workflow {
	b := &builder{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	if b.store == nil {
		b.store = file.New(b.storeDir)
	}

	client := httpapi.New(baseURL, httpapi.WithLogger(b.logger))

	ctrlOpts := []workflow.ControllerOption{workflow.WithLogger(b.logger)}
	if b.pollInterval > 0 {
		ctrlOpts = append(ctrlOpts, workflow.WithPollInterval(b.pollInterval))
	}

	return &Workflow{
		Controller: workflow.NewController(client, b.store, ctrlOpts...),
		client:     client,
		store:      b.store,
	}
}

// Client returns the underlying merge service client, for artifact URL
// construction and one-shot status queries.
func (w *Workflow) Client() *httpapi.Client {
	return w.client
}

// Store returns the result store the workflow persists into.
func (w *Workflow) Store() ports.ResultStore {
	return w.store
}
