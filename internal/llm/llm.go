// Package llm defines the AI capability contracts the pipelines depend on:
// text embedding and prompt completion.
//
// Consumers depend on the small Embedder and Completer interfaces; the
// Genkit-backed implementations live in genkit.go. Tests substitute mocks
// (see internal/testutil).
package llm

import (
	"context"
	"strings"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer renders a prompt template with variables and returns the model's
// completion text.
type Completer interface {
	// Complete executes the template against the model. Variables are
	// substituted with Render before the call.
	Complete(ctx context.Context, template string, vars map[string]string) (string, error)
}

// Render substitutes {{name}} placeholders in template with the matching
// values from vars. Unknown placeholders are left untouched so malformed
// templates fail visibly in the model output rather than silently.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
