// Package skill provides the pluggable skill framework: the uniform skill
// contract, YAML manifest discovery, and a name-keyed registry that
// constructs and invokes skills per request.
//
// Dispatch is a startup-time capability table: each skill name is bound to a
// factory function with one explicit call signature. There is no reflection
// and no alternative handler shapes; every skill implements Skill.
package skill

import "context"

// Skill is the uniform contract every skill implements.
//
// Skills must be stateless across invocations: a fresh instance is
// constructed per request, and durable state goes through injected
// collaborators, not instance fields.
type Skill interface {
	// Run executes the skill against the payload. Returned values are
	// formatted for the user by the orchestrator.
	Run(ctx context.Context, payload Payload) (any, error)
}

// Factory constructs a fresh skill instance for one invocation.
// Dependencies are captured by the closure when the factory is bound.
type Factory func() Skill

// Payload is the invocation envelope for file-based skills.
type Payload struct {
	FileName     string `json:"FileName,omitempty"`
	Base64File   string `json:"Base64File,omitempty"`
	HeaderRow    int    `json:"HeaderRow,omitempty"` // 1-based; defaults to 1
	UserQuestion string `json:"UserQuestion,omitempty"`
	HistoryText  string `json:"HistoryText,omitempty"`
	Skills       string `json:"Skills,omitempty"`
}
