package job

import "strings"

// Status is the canonical job status.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// ParseStatus maps a raw backend status string to the canonical enum.
// Matching is case-insensitive; anything unrecognized lands in
// StatusUnknown, which is rendered but never cancellable.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "pending":
		return StatusQueued
	case "processing", "running", "in_progress", "active":
		return StatusProcessing
	case "completed", "done", "finished":
		return StatusCompleted
	case "failed", "error":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further transition occurs from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SortPriority orders statuses for the queue view: active work first,
// terminal states last.
func (s Status) SortPriority() int {
	switch s {
	case StatusProcessing:
		return 0
	case StatusQueued:
		return 1
	case StatusCompleted:
		return 2
	case StatusFailed:
		return 3
	default:
		return 4
	}
}

// Cancellable reports whether the job can still be cancelled.
func (j *Job) Cancellable() bool {
	return j.Status == StatusQueued || j.Status == StatusProcessing
}
