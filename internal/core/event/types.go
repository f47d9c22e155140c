package event

import "time"

type Type string

const (
	// Generation lifecycle
	TypeGenerationQueued    Type = "generation.queued"
	TypeGenerationCompleted Type = "generation.completed"
	TypeGenerationFailed    Type = "generation.failed"

	// Connection
	TypeConnectionChanged Type = "connection.changed"

	// User-facing notifications (the toast layer of the original UI)
	TypeNotification Type = "notification"
)

type Event struct {
	Type      Type
	Timestamp time.Time
	Payload   any
}

type GenerationEvent struct {
	JobID    string
	ResultID string
	Prompt   string
	Error    string
}

type ConnectionEvent struct {
	Connected bool
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-facing message. The daemon logs these; a UI
// process would render them as toasts.
type Notification struct {
	Level   Level
	Message string
}
