package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitEmbedder adapts a Genkit ai.Embedder to the Embedder contract.
type GenkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder creates an Embedder backed by a Genkit embedder.
func NewGenkitEmbedder(embedder ai.Embedder) *GenkitEmbedder {
	return &GenkitEmbedder{embedder: embedder}
}

// Embed returns the embedding vector for the given text.
func (e *GenkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return resp.Embeddings[0].Embedding, nil
}

// GenkitCompleter executes prompt completions through Genkit.
type GenkitCompleter struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

// NewGenkitCompleter creates a Completer backed by the given Genkit instance
// and model. modelName is the fully qualified Genkit model name
// (e.g. "googleai/gemini-2.5-flash").
func NewGenkitCompleter(g *genkit.Genkit, modelName string, temperature float32, maxTokens int, logger *slog.Logger) *GenkitCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitCompleter{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Complete renders the template with vars and generates a completion.
func (c *GenkitCompleter) Complete(ctx context.Context, template string, vars map[string]string) (string, error) {
	prompt := Render(template, vars)

	response, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
		ai.WithConfig(map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	text := response.Text()
	c.logger.Debug("prompt completed",
		"model", c.modelName,
		"prompt_length", len(prompt),
		"response_length", len(text))

	return text, nil
}
