package model

import "time"

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindDanger  Kind = "danger"
	KindSuccess Kind = "success"
)

// Notification is an in-app alert shown in the notification panel.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Kind controls the panel color and the deadline suppression key.
	Kind Kind `json:"type" db:"kind"`

	// TaskID optionally points back at the task that triggered the
	// notification. It is a lookup key only.
	TaskID string `json:"taskId,omitempty" db:"task_id"`

	// Timestamp is when this notification was generated.
	Timestamp time.Time `json:"timestamp" db:"created_at"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`
}

// NotificationRequest asks the notification log to record a new entry.
type NotificationRequest struct {
	Message string
	Kind    Kind
	TaskID  string
}
