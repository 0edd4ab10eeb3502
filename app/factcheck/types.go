package factcheck

import "encoding/json"

// Mode selects how thorough the external service's verification run is.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeThorough Mode = "thorough"
	ModeSummary  Mode = "summary"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeStandard, ModeThorough, ModeSummary:
		return true
	}
	return false
}

// JobStatus is the external service's view of a job.
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusStarted  JobStatus = "started"
	JobStatusFinished JobStatus = "finished"
	JobStatusFailed   JobStatus = "failed"
)

// Terminal reports whether the remote job will make no further progress.
func (s JobStatus) Terminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

type SubmitRequest struct {
	URL             string `json:"url"`
	Mode            Mode   `json:"mode"`
	GenerateImage   bool   `json:"generate_image"`
	GenerateArticle bool   `json:"generate_article"`
}

type SubmitResponse struct {
	JobID                string `json:"job_id"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds"`
}

type StatusResponse struct {
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Progress     float64   `json:"progress"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Claim is one verified claim from a result payload.
type Claim struct {
	Text       string  `json:"claim"`
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// Result is the subset of the result payload this system interprets. The
// full document is retained verbatim in Raw and stored opaquely.
type Result struct {
	Verdict         string  `json:"verdict"`
	Confidence      float64 `json:"confidence"`
	Summary         string  `json:"summary"`
	Claims          []Claim `json:"claims"`
	NumSources      int     `json:"num_sources"`
	SourceConsensus string  `json:"source_consensus"`

	Raw json.RawMessage `json:"-"`
}
