package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/genbridge/genbridge/internal/core/backend"
)

// Message is the tagged union of inbound push-channel frames. Every
// frame decodes to exactly one concrete type; the channel's dispatch
// switch is the single place that matches on them.
type Message interface {
	isMessage()
}

// Progress updates a tracked job's progress and status.
type Progress struct {
	JobID       string   `json:"job_id"`
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Progress    *float64 `json:"progress"`
	CurrentStep *int     `json:"current_step"`
	TotalSteps  *int     `json:"total_steps"`
}

// Complete signals a finished job together with its artifact.
type Complete struct {
	JobID          string  `json:"job_id"`
	ResultID       string  `json:"result_id"`
	ImageURL       string  `json:"image_url"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CfgScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	CreatedAt      string  `json:"created_at"`
}

// Failed signals a job that ended in an error.
type Failed struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// QueueReplace carries an authoritative full job list. HasJobs is
// false when the frame's jobs field was missing or not an array, in
// which case the frame is ignored.
type QueueReplace struct {
	Jobs    []backend.JobRecord
	HasJobs bool
}

// SystemStatus carries loose backend status fields.
type SystemStatus struct {
	Fields map[string]any
}

// Started is informational only; the optimistic insert already
// happened at submission time.
type Started struct {
	JobID string `json:"job_id"`
}

// Unknown is any frame with an unrecognized type discriminator.
type Unknown struct {
	Type string
}

func (Progress) isMessage()     {}
func (Complete) isMessage()     {}
func (Failed) isMessage()       {}
func (QueueReplace) isMessage() {}
func (SystemStatus) isMessage() {}
func (Started) isMessage()      {}
func (Unknown) isMessage()      {}

// Decode parses one inbound frame. Frames that are not JSON objects or
// lack a type discriminator are errors; callers drop them without
// tearing down the channel.
func Decode(data []byte) (Message, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}

	switch env.Type {
	case "generation_progress":
		var m Progress
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return m, nil
	case "generation_complete":
		var m Complete
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return m, nil
	case "generation_error":
		var m Failed
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return m, nil
	case "queue_update":
		var raw struct {
			Jobs json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		var m QueueReplace
		// json.Unmarshal accepts the literal null for a slice, so gate
		// on the raw token: only an array counts as a jobs field.
		if jobs := bytes.TrimSpace(raw.Jobs); len(jobs) > 0 && jobs[0] == '[' {
			if err := json.Unmarshal(jobs, &m.Jobs); err == nil {
				m.HasJobs = true
			}
		}
		return m, nil
	case "system_status":
		fields := map[string]any{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		delete(fields, "type")
		return SystemStatus{Fields: fields}, nil
	case "generation_started":
		var m Started
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}
