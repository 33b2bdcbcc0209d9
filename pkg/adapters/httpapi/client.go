// Package httpapi implements ports.MergeService against the merge service's
// HTTP JSON API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// DefaultBaseURL matches the merge service's development default.
const DefaultBaseURL = "http://localhost:8000"

// Client talks to the merge service. It is stateless: the session ID is
// attached explicitly to every request that needs one.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (timeouts, transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service at baseURL.
// An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.MergeService = (*Client)(nil)

// CreateSession uploads the first Bundle A batch and returns the issued
// session ID.
func (c *Client) CreateSession(ctx context.Context, files []ports.File) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.uploadFiles(ctx, "/api/upload-bundle1", "", files, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &domain.ServiceError{Op: domain.OpUpload, Message: "server did not issue a session id"}
	}
	c.logger.Info("session created", "session_id", resp.SessionID, "files", len(files))
	return resp.SessionID, nil
}

// UploadBundleB adds files to Bundle B of an existing session.
func (c *Client) UploadBundleB(ctx context.Context, sessionID string, files []ports.File) error {
	return c.uploadFiles(ctx, "/api/upload-bundle2", sessionID, files, nil)
}

// UploadSchema attaches schema documents to an existing session.
func (c *Client) UploadSchema(ctx context.Context, sessionID string, which domain.Bundle, files []ports.File) error {
	path := "/api/upload-schema1"
	if which == domain.SchemaB {
		path = "/api/upload-schema2"
	}
	return c.uploadFiles(ctx, path, sessionID, files, nil)
}

// StartMerge submits the merge job for a session.
func (c *Client) StartMerge(ctx context.Context, sessionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/merge/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build merge request: %w", err)
	}

	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(req, domain.OpMergeStart, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", &domain.ServiceError{Op: domain.OpMergeStart, Message: "server did not issue a job id"}
	}
	c.logger.Info("merge started", "session_id", sessionID, "job_id", resp.JobID)
	return resp.JobID, nil
}

// JobStatus reads the current state of a job. The result payload is decoded
// from the loosely-typed body the service returns.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/job/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build job status request: %w", err)
	}

	var resp struct {
		JobID  string         `json:"job_id"`
		Status string         `json:"status"`
		Result map[string]any `json:"result"`
		Error  string         `json:"error"`
	}
	if err := c.do(req, domain.OpJobStatus, &resp); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:     resp.JobID,
		Status: domain.JobStatus(resp.Status),
		Error:  resp.Error,
	}
	if resp.Result != nil {
		result, err := domain.DecodeJobResult(resp.Result)
		if err != nil {
			return nil, &domain.ServiceError{Op: domain.OpJobStatus, Message: err.Error()}
		}
		job.Result = result
	}
	return job, nil
}

// SessionStatus reports the best-effort session summary.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/session/"+url.PathEscape(sessionID)+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session status request: %w", err)
	}

	var status domain.SessionStatus
	if err := c.do(req, domain.OpJobStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DownloadURL constructs the artifact URL for a merged output file.
// The client never fetches artifacts itself.
func (c *Client) DownloadURL(sessionID, filename string) string {
	return c.baseURL + "/api/download/" + url.PathEscape(sessionID) + "/" + url.PathEscape(filename)
}

// MappingPDFURL constructs the URL of the rendered mapping document.
func (c *Client) MappingPDFURL(sessionID string) string {
	return c.baseURL + "/api/mapping_pdf/" + url.PathEscape(sessionID)
}

// uploadFiles sends a multipart batch to path. sessionID, when set, is passed
// as an explicit query parameter; it is never inferred from earlier calls.
func (c *Client) uploadFiles(ctx context.Context, path, sessionID string, files []ports.File, out any) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return fmt.Errorf("failed to create form file %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("failed to buffer file %q: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := c.baseURL + path
	if sessionID != "" {
		endpoint += "?session_id=" + url.QueryEscape(sessionID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, domain.OpUpload, out)
}

// do executes the request and decodes a JSON response into out (when non-nil).
// Non-2xx responses become *domain.ServiceError with the server's message
// passed through verbatim when the body is parseable.
func (c *Client) do(req *http.Request, op domain.ServiceOp, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ServiceError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.ServiceError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ServiceError{Op: op, Status: resp.StatusCode, Message: "unparseable response body"}
	}
	return nil
}

// errorMessage extracts the service's error text ({"detail": ...}) with a
// generic fallback for empty or unparseable bodies.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return "request rejected by server"
	}

	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}

	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return "request rejected by server"
}
