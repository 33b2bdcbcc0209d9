package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// JobStatus mirrors the status strings reported by the merge service.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

// Terminal reports whether the job will emit no further status changes.
func (s JobStatus) Terminal() bool {
	return s == JobSuccess || s == JobFailed
}

// Job is one asynchronous execution of the merge operation. It is created by
// submitting a merge and mutated only by reading server state.
type Job struct {
	ID     string     `json:"job_id"`
	Status JobStatus  `json:"status"`
	Result *JobResult `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// FieldMapping is one column correspondence proposed by the merge service.
type FieldMapping struct {
	SourceField string  `json:"source_field" mapstructure:"source_field"`
	TargetField string  `json:"target_field" mapstructure:"target_field"`
	Confidence  float64 `json:"confidence" mapstructure:"confidence"`
	Reasoning   string  `json:"reasoning" mapstructure:"reasoning"`
}

// TableMapping groups the field mappings from one source table into a target.
type TableMapping struct {
	SourceTable   string         `json:"source_table" mapstructure:"source_table"`
	TargetTable   string         `json:"target_table" mapstructure:"target_table"`
	FieldMappings []FieldMapping `json:"field_mappings" mapstructure:"field_mappings"`
}

// MappingReport is the per-table correspondence document produced by the
// merge service. The workflow treats it as payload to persist and hand off;
// it never inspects the semantics of individual mappings.
type MappingReport struct {
	TableMappings []TableMapping `json:"table_mappings" mapstructure:"table_mappings"`
	Summary       string         `json:"summary,omitempty" mapstructure:"summary"`
}

// JobResult is the terminal payload of a successful merge job.
// Summary may be a plain string or a statistics object; SummaryText applies
// the precedence rule instead of callers probing the shape ad hoc.
type JobResult struct {
	SessionID   string         `json:"session_id,omitempty" mapstructure:"session_id"`
	OutputFiles []string       `json:"output_files" mapstructure:"output_files"`
	Mappings    *MappingReport `json:"mappings,omitempty" mapstructure:"mappings"`
	Summary     any            `json:"summary,omitempty" mapstructure:"summary"`
	DownloadURL string         `json:"download_url,omitempty" mapstructure:"download_url"`
	Message     string         `json:"message,omitempty" mapstructure:"message"`
}

// SummaryText resolves the summary with an explicit precedence:
// the mapping report's summary string wins, then a top-level string summary,
// then a deterministic rendering of a structured summary, then empty.
func (r *JobResult) SummaryText() string {
	if r.Mappings != nil && r.Mappings.Summary != "" {
		return r.Mappings.Summary
	}
	switch s := r.Summary.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		// json.Marshal sorts map keys, so structured summaries render stably.
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprintf("%v", s)
		}
		return string(data)
	}
}

// DecodeJobResult converts the loosely-typed result payload of a job-status
// response into a JobResult. The service owns the shape; unknown fields are
// ignored rather than rejected.
func DecodeJobResult(raw map[string]any) (*JobResult, error) {
	var result JobResult
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build result decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode job result: %w", err)
	}
	return &result, nil
}
