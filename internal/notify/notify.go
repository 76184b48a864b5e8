// Package notify defines the fire-and-forget notification sink the
// orchestrator broadcasts conversation events through.
//
// The real-time push transport is an external collaborator; this package
// holds the contract and a local slog-backed implementation.
package notify

import (
	"context"
	"log/slog"
)

// Event types broadcast during a conversation turn.
const (
	EventTypingStarted  = "typing-started"
	EventTypingStopped  = "typing-stopped"
	EventMessage        = "message"
	EventSessionCleared = "session-cleared"
)

// Event is one broadcast to a user.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Notifier is the broadcast sink keyed by user id. Implementations are
// fire-and-forget: delivery is best-effort and failures are not reported to
// the caller.
type Notifier interface {
	Notify(ctx context.Context, userID string, event Event)
}

// Log is a Notifier that writes events to the logger. Used for local runs
// and as the default sink when no push transport is wired.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging notifier. logger may be nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs the event.
func (l *Log) Notify(ctx context.Context, userID string, event Event) {
	l.logger.Debug("notify", "user_id", userID, "type", event.Type, "content", event.Content)
}
