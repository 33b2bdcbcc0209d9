// Package httpview serves the results view over HTTP. It runs in its own
// execution context: nothing from the upload workflow survives in memory here,
// so everything it shows is reconstructed from the result store, with the
// merge service as a best-effort fallback.
package httpview

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// fallbackOutputFile is shown when no persisted result exists for a session.
// The merge service names its archive this way, so the listing stays useful
// even without a stored result.
const fallbackOutputFile = "merged_output.zip"

// URLBuilder constructs artifact URLs for a session. *httpapi.Client
// satisfies it.
type URLBuilder interface {
	DownloadURL(sessionID, filename string) string
	MappingPDFURL(sessionID string) string
}

// Server is the results-view HTTP surface.
type Server struct {
	store    ports.ResultStore
	service  ports.MergeService
	urls     URLBuilder
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

type Option func(*Server)

// WithService enables the session-status fallback for sessions that have no
// persisted result.
func WithService(service ports.MergeService) Option {
	return func(s *Server) {
		s.service = service
	}
}

// WithURLBuilder enables download and mapping-PDF links in responses.
func WithURLBuilder(urls URLBuilder) Option {
	return func(s *Server) {
		s.urls = urls
	}
}

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the metrics registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a results view backed by store.
func NewServer(store ports.ResultStore, opts ...Option) *Server {
	s := &Server{
		store:    store,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the results view.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	r.Get("/results/{sessionID}", s.getResults)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// download pairs an output file with its artifact URL.
type download struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// resultsResponse is the results-view payload. Source tells the caller
// whether it is looking at a persisted result or at the fallback listing.
type resultsResponse struct {
	SessionID     string                `json:"session_id"`
	Source        string                `json:"source"`
	OutputFiles   []download            `json:"output_files"`
	Mappings      *domain.MappingReport `json:"mappings,omitempty"`
	Summary       string                `json:"summary,omitempty"`
	Message       string                `json:"message,omitempty"`
	MappingPDFURL string                `json:"mapping_pdf_url,omitempty"`
	SessionStatus *domain.SessionStatus `json:"session_status,omitempty"`
}

// getResults serves GET /results/{sessionID}. A missing or unreadable result
// degrades to the fallback listing; this handler never turns absent data into
// a server error.
func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	result, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrResultNotFound) {
			s.logger.Warn("result load failed", "session_id", sessionID, "err", err)
		}
		writeJSON(w, http.StatusOK, s.fallback(r, sessionID))
		return
	}

	resp := resultsResponse{
		SessionID: sessionID,
		Source:    "store",
		Mappings:  result.Mappings,
		Summary:   result.SummaryText(),
		Message:   result.Message,
	}
	for _, name := range result.OutputFiles {
		resp.OutputFiles = append(resp.OutputFiles, s.download(sessionID, name))
	}
	if len(resp.OutputFiles) == 0 {
		resp.OutputFiles = []download{s.download(sessionID, fallbackOutputFile)}
	}
	if s.urls != nil {
		resp.MappingPDFURL = s.urls.MappingPDFURL(sessionID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// fallback builds the conservative response for a session without a stored
// result: the default archive name, plus whatever the merge service still
// knows about the session.
func (s *Server) fallback(r *http.Request, sessionID string) resultsResponse {
	resp := resultsResponse{
		SessionID:   sessionID,
		Source:      "fallback",
		OutputFiles: []download{s.download(sessionID, fallbackOutputFile)},
		Message:     "no stored result for this session; showing the default output listing",
	}
	if s.service != nil {
		status, err := s.service.SessionStatus(r.Context(), sessionID)
		if err != nil {
			s.logger.Warn("session status fallback failed", "session_id", sessionID, "err", err)
		} else {
			resp.SessionStatus = status
		}
	}
	return resp
}

func (s *Server) download(sessionID, name string) download {
	d := download{Name: name}
	if s.urls != nil {
		d.URL = s.urls.DownloadURL(sessionID, name)
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
