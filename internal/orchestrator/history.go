package orchestrator

import "strings"

// MaxHistory bounds the per-user conversation history. The oldest entries
// are evicted first.
const MaxHistory = 20

// Roles of conversation history entries.
const (
	RoleUser      = "User"
	RoleAssistant = "Assistant"
)

// Message is one conversation history entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// appendHistory appends messages and trims to the most recent MaxHistory,
// preserving relative order.
func appendHistory(history []Message, msgs ...Message) []Message {
	history = append(history, msgs...)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	return history
}

// renderHistory renders history as conversation text for prompt and payload
// use.
func renderHistory(history []Message) string {
	if len(history) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
