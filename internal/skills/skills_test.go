package skills

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/koopa0/policy-agent/internal/log"
	"github.com/koopa0/policy-agent/internal/policy"
	"github.com/koopa0/policy-agent/internal/skill"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type mockIngestor struct {
	summary policy.Summary
	err     error

	calls    int
	lastName string
	lastData []byte
}

func (m *mockIngestor) Ingest(_ context.Context, data []byte, documentName string) (policy.Summary, error) {
	m.calls++
	m.lastName = documentName
	m.lastData = data
	return m.summary, m.err
}

type mockAnswerer struct {
	answered policy.Answered
	err      error

	calls    int
	lastName string
}

func (m *mockAnswerer) Answer(_ context.Context, _ []byte, fileName string) (policy.Answered, error) {
	m.calls++
	m.lastName = fileName
	return m.answered, m.err
}

func uploadPayload(name string, content []byte) skill.Payload {
	return skill.Payload{
		FileName:   name,
		Base64File: base64.StdEncoding.EncodeToString(content),
		HeaderRow:  1,
	}
}

// ============================================================================
// PolicyIngest Tests
// ============================================================================

func TestPolicyIngest_Run(t *testing.T) {
	ingestor := &mockIngestor{summary: policy.Summary{Success: true, Message: "ok"}}
	s := NewPolicyIngest(ingestor)

	result, err := s.Run(context.Background(), uploadPayload("doc.xlsx", []byte("bytes")))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary, ok := result.(policy.Summary)
	if !ok {
		t.Fatalf("result type %T, want policy.Summary", result)
	}
	if !summary.Success {
		t.Errorf("summary = %+v", summary)
	}
	if ingestor.lastName != "doc.xlsx" {
		t.Errorf("document name = %q", ingestor.lastName)
	}
	if string(ingestor.lastData) != "bytes" {
		t.Errorf("decoded data = %q", ingestor.lastData)
	}
}

func TestPolicyIngest_RunPipelineErrorPropagates(t *testing.T) {
	ingestor := &mockIngestor{err: errors.New("db down")}
	s := NewPolicyIngest(ingestor)

	if _, err := s.Run(context.Background(), uploadPayload("doc.xlsx", []byte("x"))); err == nil {
		t.Fatal("expected pipeline error to propagate")
	}
}

// ============================================================================
// PolicyQA Tests
// ============================================================================

func TestPolicyQA_Run(t *testing.T) {
	answerer := &mockAnswerer{answered: policy.Answered{Message: "done", DownloadURL: "u"}}
	s := NewPolicyQA(answerer)

	result, err := s.Run(context.Background(), uploadPayload("q.xlsm", []byte("x")))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	answered, ok := result.(policy.Answered)
	if !ok {
		t.Fatalf("result type %T, want policy.Answered", result)
	}
	if answered.Message != "done" {
		t.Errorf("answered = %+v", answered)
	}
	if answerer.lastName != "q.xlsm" {
		t.Errorf("file name = %q", answerer.lastName)
	}
}

// ============================================================================
// Upload Envelope Tests
// ============================================================================

func TestDecodeUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload skill.Payload
	}{
		{"missing file name", skill.Payload{Base64File: "aGk="}},
		{"missing content", skill.Payload{FileName: "doc.xlsx"}},
		{"unsupported extension", uploadPayload("doc.csv", []byte("x"))},
		{"invalid base64", skill.Payload{FileName: "doc.xlsx", Base64File: "@@not-base64@@"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestor := &mockIngestor{}
			s := NewPolicyIngest(ingestor)

			result, err := s.Run(context.Background(), tt.payload)
			if err != nil {
				t.Fatalf("user-input problems must not be errors, got: %v", err)
			}

			summary, ok := result.(policy.Summary)
			if !ok {
				t.Fatalf("result type %T, want policy.Summary", result)
			}
			if summary.Success {
				t.Error("summary.Success = true for a rejected upload")
			}
			if summary.Message == "" {
				t.Error("rejection carries no message")
			}
			if ingestor.calls != 0 {
				t.Errorf("pipeline invoked %d times for a rejected upload", ingestor.calls)
			}
		})
	}
}

func TestDecodeUpload_ExtensionCaseInsensitive(t *testing.T) {
	ingestor := &mockIngestor{summary: policy.Summary{Success: true}}
	s := NewPolicyIngest(ingestor)

	if _, err := s.Run(context.Background(), uploadPayload("DOC.XLSX", []byte("x"))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ingestor.calls != 1 {
		t.Errorf("pipeline calls = %d, want 1 for uppercase extension", ingestor.calls)
	}
}

// ============================================================================
// Binding Tests
// ============================================================================

func TestBind(t *testing.T) {
	reg := skill.NewRegistry(log.NewNop())
	Bind(reg, &mockIngestor{summary: policy.Summary{Success: true}}, &mockAnswerer{})

	// Bind only populates the capability table; manifests create the
	// descriptors.
	for _, name := range []string{PolicyIngestName, PolicyQAName} {
		root := t.TempDir()
		writeTestManifest(t, root, name)

		if err := reg.Scan(root); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		d, ok := reg.Get(name)
		if !ok || !d.Resolved() {
			t.Errorf("skill %q not resolved after Bind+Scan", name)
		}
	}
}

func writeTestManifest(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+skill.ManifestSuffix)
	if err := os.WriteFile(path, []byte("description: test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}
