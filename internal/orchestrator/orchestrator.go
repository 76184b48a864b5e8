// Package orchestrator routes user conversation turns to skills or a generic
// fallback, serializing turns per user and keeping bounded history.
package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/koopa0/policy-agent/internal/llm"
	"github.com/koopa0/policy-agent/internal/notify"
	"github.com/koopa0/policy-agent/internal/policy"
	"github.com/koopa0/policy-agent/internal/skill"
)

// ErrMissingFile indicates an explicit skill turn without an uploaded file.
var ErrMissingFile = errors.New("an uploaded file is required for this skill")

// SkillRunner is the registry contract the orchestrator depends on.
// *skill.Registry satisfies this.
type SkillRunner interface {
	Get(name string) (skill.Descriptor, bool)
	Invoke(ctx context.Context, name string, payload skill.Payload) (any, error)
	Descriptors() []skill.Descriptor
}

// Turn is one user conversation turn.
type Turn struct {
	UserID    string
	Question  string
	SkillName string // empty selects the generic fallback
	FileName  string
	FileData  []byte // raw uploaded file bytes
}

// Reply is the answer payload for one turn.
type Reply struct {
	Answer string
}

// userState is the per-user arena entry: bounded history plus a one-permit
// lock serializing turns. Created lazily on first turn, removed only by
// Clear.
type userState struct {
	sem     chan struct{}
	history []Message
}

// Orchestrator routes conversation turns. Turns for the same user are
// strictly serialized; turns for different users run concurrently.
type Orchestrator struct {
	registry  SkillRunner
	completer llm.Completer
	notifier  notify.Notifier
	logger    *slog.Logger

	mu    sync.Mutex
	users map[string]*userState
}

// New creates an Orchestrator. logger may be nil.
func New(registry SkillRunner, completer llm.Completer, notifier notify.Notifier, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:  registry,
		completer: completer,
		notifier:  notifier,
		logger:    logger,
		users:     make(map[string]*userState),
	}
}

// state returns the user's arena entry, creating it lazily.
func (o *Orchestrator) state(userID string) *userState {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.users[userID]
	if !ok {
		st = &userState{sem: make(chan struct{}, 1)}
		o.users[userID] = st
	}
	return st
}

// HandleTurn processes one user turn.
//
// The user's permit is acquired first (a second concurrent turn for the same
// user blocks until the first completes, or until its context is cancelled).
// Typing signals are broadcast best-effort, and the permit is released on
// every exit path, including cancellation and panics unwinding through
// defers.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) (Reply, error) {
	st := o.state(turn.UserID)

	select {
	case st.sem <- struct{}{}:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
	defer func() { <-st.sem }()

	turnID := uuid.NewString()
	o.logger.Debug("turn started",
		"turn_id", turnID, "user_id", turn.UserID, "skill", turn.SkillName)

	o.notifier.Notify(ctx, turn.UserID, notify.Event{Type: notify.EventTypingStarted})
	defer func() {
		// Broadcast even when ctx was cancelled mid-turn.
		o.notifier.Notify(context.WithoutCancel(ctx), turn.UserID, notify.Event{Type: notify.EventTypingStopped})
	}()

	if turn.SkillName != "" {
		return o.runSkillTurn(ctx, st, turn)
	}
	return o.runFallbackTurn(ctx, st, turn)
}

// runSkillTurn executes an explicitly selected skill behind the relevance
// gate. Unknown skills and gate rejections are recovered, user-visible
// outcomes; capability failures propagate.
func (o *Orchestrator) runSkillTurn(ctx context.Context, st *userState, turn Turn) (Reply, error) {
	if len(turn.FileData) == 0 {
		return Reply{}, fmt.Errorf("%w: skill %q", ErrMissingFile, turn.SkillName)
	}

	desc, ok := o.registry.Get(turn.SkillName)
	if !ok || !desc.Resolved() {
		msg := fmt.Sprintf("Skill %q is not available. Use the skills list to see what is registered.", turn.SkillName)
		return o.answer(ctx, st, turn, msg), nil
	}

	verdict, err := o.completer.Complete(ctx, relevanceTemplate, map[string]string{
		"skill":       desc.Name,
		"description": desc.Description,
		"question":    turn.Question,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("relevance gate: %w", err)
	}
	if strings.TrimSpace(verdict) == NotRelatedVerdict {
		o.logger.Info("relevance gate rejected skill", "skill", desc.Name, "user_id", turn.UserID)
		return o.answer(ctx, st, turn, NotRelatedMessage), nil
	}

	payload := skill.Payload{
		FileName:     turn.FileName,
		Base64File:   base64.StdEncoding.EncodeToString(turn.FileData),
		HeaderRow:    1,
		UserQuestion: turn.Question,
		HistoryText:  o.historyText(st),
		Skills:       skillMetadata(desc),
	}

	result, err := o.registry.Invoke(ctx, desc.Name, payload)
	if err != nil {
		if errors.Is(err, skill.ErrNotRegistered) {
			// Registration raced with the lookup above; recover the same way.
			msg := fmt.Sprintf("Skill %q is not available. Use the skills list to see what is registered.", turn.SkillName)
			return o.answer(ctx, st, turn, msg), nil
		}
		return Reply{}, fmt.Errorf("running skill %q: %w", desc.Name, err)
	}

	return o.answer(ctx, st, turn, formatResult(result)), nil
}

// runFallbackTurn answers a generic turn with a prompt scoped to the
// registered skills.
func (o *Orchestrator) runFallbackTurn(ctx context.Context, st *userState, turn Turn) (Reply, error) {
	answer, err := o.completer.Complete(ctx, fallbackTemplate, map[string]string{
		"skills":   skillList(o.registry.Descriptors()),
		"history":  o.historyText(st),
		"question": turn.Question,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("fallback completion: %w", err)
	}

	return o.answer(ctx, st, turn, strings.TrimSpace(answer)), nil
}

// historyText renders the user's history under the arena lock.
func (o *Orchestrator) historyText(st *userState) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return renderHistory(st.history)
}

// answer appends the turn to history, broadcasts the result, and builds the
// reply. Must be called with the user's permit held.
func (o *Orchestrator) answer(ctx context.Context, st *userState, turn Turn, text string) Reply {
	o.mu.Lock()
	st.history = appendHistory(st.history,
		Message{Role: RoleUser, Content: turn.Question},
		Message{Role: RoleAssistant, Content: text},
	)
	o.mu.Unlock()

	o.notifier.Notify(ctx, turn.UserID, notify.Event{Type: notify.EventMessage, Content: text})
	return Reply{Answer: text}
}

// Clear removes the user's history and permit entry and broadcasts a
// session-cleared signal. Idempotent.
func (o *Orchestrator) Clear(ctx context.Context, userID string) {
	o.mu.Lock()
	delete(o.users, userID)
	o.mu.Unlock()

	o.notifier.Notify(ctx, userID, notify.Event{Type: notify.EventSessionCleared})
	o.logger.Debug("conversation cleared", "user_id", userID)
}

// History returns a copy of the user's conversation history.
func (o *Orchestrator) History(userID string) []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.users[userID]
	if !ok {
		return nil
	}

	out := make([]Message, len(st.history))
	copy(out, st.history)
	return out
}

// formatResult renders a skill result as human-readable text.
func formatResult(result any) string {
	switch v := result.(type) {
	case policy.Summary:
		if !v.Success {
			return v.Message
		}
		return fmt.Sprintf("%s Processed %d policies into %d chunks.", v.Message, v.PoliciesProcessed, v.TotalChunks)
	case policy.Answered:
		if v.DownloadURL == "" {
			return v.Message
		}
		return fmt.Sprintf("%s Download: %s", v.Message, v.DownloadURL)
	case string:
		return v
	case nil:
		return "Done."
	default:
		return fmt.Sprintf("%v", v)
	}
}

// skillMetadata renders a descriptor for the payload's Skills field.
func skillMetadata(d skill.Descriptor) string {
	if d.Description == "" {
		return d.Name
	}
	return d.Name + ": " + d.Description
}

// skillList renders all descriptors for the fallback prompt.
func skillList(descriptors []skill.Descriptor) string {
	if len(descriptors) == 0 {
		return "(no skills registered)"
	}

	var sb strings.Builder
	for i, d := range descriptors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(skillMetadata(d))
	}
	return sb.String()
}
