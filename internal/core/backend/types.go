package backend

import (
	"time"

	"github.com/genbridge/genbridge/internal/core/job"
)

// JobRecord is a job as the backend sends it. Nothing here is assumed
// canonical: status strings vary by backend version and progress may be
// a fraction or a percent.
type JobRecord struct {
	ID             string   `json:"id"`
	JobID          string   `json:"job_id"` // legacy alias
	Status         string   `json:"status"`
	Progress       *float64 `json:"progress"`
	CurrentStep    *int     `json:"current_step"`
	TotalSteps     *int     `json:"total_steps"`
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	Steps          int      `json:"steps"`
	CfgScale       float64  `json:"cfg_scale"`
	Seed           int64    `json:"seed"`
	Error          string   `json:"error"`
	CreatedAt      string   `json:"created_at"`
	StartTime      string   `json:"startTime"` // legacy alias
}

// Canonical converts a wire record into a canonical job: parsed
// status, normalized progress, parsed timestamp (unparseable sorts as
// the zero time).
func (r JobRecord) Canonical() job.Job {
	id := r.ID
	if id == "" {
		id = r.JobID
	}
	j := job.Job{
		ID:        id,
		BackendID: r.JobID,
		Status:    job.ParseStatus(r.Status),
		Progress:  job.NormalizeProgress(r.Progress),
		Params: job.Params{
			Prompt:         r.Prompt,
			NegativePrompt: r.NegativePrompt,
			Width:          r.Width,
			Height:         r.Height,
			Steps:          r.Steps,
			CfgScale:       r.CfgScale,
			Seed:           r.Seed,
		},
		Error:     r.Error,
		CreatedAt: ParseTimestamp(r.CreatedAt, r.StartTime),
	}
	if r.CurrentStep != nil {
		j.CurrentStep = *r.CurrentStep
	}
	if r.TotalSteps != nil {
		j.TotalSteps = *r.TotalSteps
	}
	return j
}

// ResultRecord is a finished artifact as the backend sends it.
type ResultRecord struct {
	ID             string  `json:"id"`
	ResultID       string  `json:"result_id"`
	JobID          string  `json:"job_id"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CfgScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	ImageURL       string  `json:"image_url"`
	CreatedAt      string  `json:"created_at"`
}

// Canonical converts a wire result. The result ID falls back to the
// job ID when the backend omits a distinct one.
func (r ResultRecord) Canonical() job.Result {
	id := r.ID
	if id == "" {
		id = r.ResultID
	}
	if id == "" {
		id = r.JobID
	}
	return job.Result{
		ID:    id,
		JobID: r.JobID,
		Params: job.Params{
			Prompt:         r.Prompt,
			NegativePrompt: r.NegativePrompt,
			Width:          r.Width,
			Height:         r.Height,
			Steps:          r.Steps,
			CfgScale:       r.CfgScale,
			Seed:           r.Seed,
		},
		ImageURL:  r.ImageURL,
		CreatedAt: ParseTimestamp(r.CreatedAt),
	}
}

// GenerateRequest is the submission payload.
type GenerateRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	CfgScale       float64 `json:"cfg_scale,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

// GenerateResponse is the backend's acknowledgment of a submission.
type GenerateResponse struct {
	JobID    string   `json:"job_id"`
	Status   string   `json:"status"`
	Progress *float64 `json:"progress"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

// ParseTimestamp tries each candidate as RFC 3339 and returns the
// first that parses; otherwise the zero time.
func ParseTimestamp(candidates ...string) time.Time {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
