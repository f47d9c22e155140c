package job

import "time"

// Params are the generation parameters captured at submission time.
// They are immutable after creation and denormalized onto results so
// "reuse parameters" works after the job itself is gone.
type Params struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	CfgScale       float64 `json:"cfg_scale,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

// Job is one generation request in flight.
type Job struct {
	ID          string    `json:"id"`
	BackendID   string    `json:"job_id,omitempty"` // legacy alias, used for cancel calls
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	CurrentStep int       `json:"current_step,omitempty"`
	TotalSteps  int       `json:"total_steps,omitempty"`
	Params      Params    `json:"params"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Result is one finished artifact.
type Result struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Params    Params    `json:"params"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Update is a partial job update from the push channel or a poll
// snapshot. Nil pointer fields mean "unchanged"; an empty Status
// means the sender did not include one.
type Update struct {
	ID          string
	Status      Status
	Progress    *int
	CurrentStep *int
	TotalSteps  *int
	Error       string
}
