// Package testutil provides shared testing utilities for the policy-agent
// project.
//
// This package contains reusable test infrastructure that can be used across
// multiple packages, following the pattern of Go standard library packages
// like net/http/httptest and testing/iotest.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"sync"
)

// EmbeddingDim matches the vector dimension of the policy_chunks table.
const EmbeddingDim = 768

// MockEmbedder produces deterministic embeddings derived from the input
// text, so identical texts always embed to identical vectors.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	mu    sync.Mutex
	calls []string
	Err   error // returned by Embed when non-nil
}

// NewMockEmbedder creates a deterministic mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Embed returns a unit-length vector seeded from a hash of text.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return DeterministicVector(text), nil
}

// Calls returns a copy of the texts embedded so far.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// DeterministicVector maps text to a stable unit vector of EmbeddingDim.
func DeterministicVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, EmbeddingDim)
	var norm float64
	for i := range vec {
		// Cycle through the digest, mixing in the index.
		b := sum[(i*4)%len(sum)]
		seed := binary.LittleEndian.Uint32([]byte{b, sum[(i*4+1)%len(sum)], sum[(i*4+2)%len(sum)], byte(i)})
		v := float32(seed%2000)/1000.0 - 1.0
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// MockCompleter provides deterministic completion responses for testing.
// It matches the rendered prompt against registered patterns and returns
// the corresponding response; first match wins.
//
// Thread-safe for concurrent use.
type MockCompleter struct {
	mu       sync.Mutex
	rules    []completerRule
	fallback string
	calls    []CompleterCall
	Err      error // returned by Complete when non-nil
}

type completerRule struct {
	pattern  string // substring match in the rendered prompt, lowercase
	response string
}

// CompleterCall records one call to the mock completer.
type CompleterCall struct {
	Prompt   string
	Response string
}

// NewMockCompleter creates a mock completer with the given fallback
// response, returned when no pattern matches.
func NewMockCompleter(fallback string) *MockCompleter {
	return &MockCompleter{fallback: fallback}
}

// AddResponse registers a pattern-response pair. When a rendered prompt
// contains the pattern (case-insensitive), the response is returned.
func (m *MockCompleter) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, completerRule{
		pattern:  strings.ToLower(pattern),
		response: response,
	})
}

// Complete renders template with vars and returns the first matching
// registered response.
func (m *MockCompleter) Complete(_ context.Context, template string, vars map[string]string) (string, error) {
	prompt := render(template, vars)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}

	response := m.fallback
	lower := strings.ToLower(prompt)
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.pattern) {
			response = rule.response
			break
		}
	}

	m.calls = append(m.calls, CompleterCall{Prompt: prompt, Response: response})
	return response, nil
}

// Calls returns a copy of all recorded calls.
func (m *MockCompleter) Calls() []CompleterCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]CompleterCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// render substitutes {{name}} placeholders, mirroring the production
// prompt rendering.
func render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
