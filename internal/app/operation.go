package app

import "time"

// Session tracks one CLI invocation. Its ID tags every log line the
// invocation writes, and Close records how it ended.
type Session struct {
	ID        string
	Operation string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewSession creates a session for operation starting at now.
func NewSession(operation string, now time.Time) *Session {
	return &Session{
		ID:        now.UTC().Format("20060102T150405Z"),
		Operation: operation,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the session as ended in error.
func (s *Session) Fail() {
	s.Status = "error"
}

// Failed reports whether Fail was called.
func (s *Session) Failed() bool {
	return s.Status == "error"
}
