// Package domain defines the core domain models for the assistant subsystem.
package domain

import (
	"time"
)

// JobStatus represents the status of an inference job as reported by the provider.
type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"
	JobStatusRunning        JobStatus = "running"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
	JobStatusRequiresAction JobStatus = "requires_action"
	JobStatusCancelled      JobStatus = "cancelled"
	JobStatusExpired        JobStatus = "expired"
)

// Terminal reports whether the status is one the provider will never leave.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusExpired:
		return true
	}
	return false
}

// Session binds one portal user to an assistant persona and a remote thread.
type Session struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	AssistantID string    `json:"assistant_id"`
	ThreadID    string    `json:"thread_id"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job is one asynchronous unit of inference work bound to a thread.
// Jobs live on the provider; this service only observes them.
type Job struct {
	JobID    string    `json:"job_id"`
	ThreadID string    `json:"thread_id"`
	Status   JobStatus `json:"status"`
	// Error carries the provider's failure detail when status is failed or expired.
	Error string `json:"error,omitempty"`
}

// Message is a single turn of conversation on a thread.
type Message struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the identity the auth gateway attaches to each request.
type UserProfile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

// Transcript is the read-only projection served to the history view.
type Transcript struct {
	User     UserProfile `json:"user"`
	ThreadID string      `json:"thread_id"`
	Messages []Message   `json:"messages"`
}
