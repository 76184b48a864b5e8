package testutil

import (
	"context"
	"sync"

	"github.com/koopa0/policy-agent/internal/notify"
)

// RecordingNotifier captures broadcast events per user for assertions.
//
// Thread-safe for concurrent use.
type RecordingNotifier struct {
	mu     sync.Mutex
	events map[string][]notify.Event
}

// NewRecordingNotifier creates an empty recording notifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{events: make(map[string][]notify.Event)}
}

// Notify records the event under userID.
func (r *RecordingNotifier) Notify(_ context.Context, userID string, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], event)
}

// Events returns a copy of the events recorded for userID, in order.
func (r *RecordingNotifier) Events(userID string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]notify.Event, len(r.events[userID]))
	copy(cp, r.events[userID])
	return cp
}
