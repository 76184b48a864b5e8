package policy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/koopa0/policy-agent/internal/log"
	"github.com/koopa0/policy-agent/internal/testutil"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockSearcher implements ChunkSearcher for testing.
type mockSearcher struct {
	searchErr error
	results   []ScoredChunk

	searchCalls int
}

func (m *mockSearcher) SearchSimilar(_ context.Context, _ []float32, _ int) ([]ScoredChunk, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

// mockFileStore implements FileStore for testing.
type mockFileStore struct {
	saveErr error

	saveCalls int
	lastName  string
	lastData  []byte
}

func (m *mockFileStore) Save(_ context.Context, data []byte, name string) (string, error) {
	m.saveCalls++
	m.lastName = name
	m.lastData = data
	if m.saveErr != nil {
		return "", m.saveErr
	}
	return name, nil
}

func (m *mockFileStore) URL(storedName string) string {
	return "https://files.example.com/" + storedName
}

// buildQuestionWorkbook builds an in-memory .xlsx with a header and one
// question per row.
func buildQuestionWorkbook(t *testing.T, questions []string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Question"}); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	for i, q := range questions {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]any{q}); err != nil {
			t.Fatalf("writing row %d: %v", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serializing workbook: %v", err)
	}
	return buf.Bytes()
}

func policyChunks() []ScoredChunk {
	return []ScoredChunk{
		{Chunk: Chunk{PolicyCode: "POL-1", SectionCode: "SEC-2", Content: "Visitor badges expire at the end of the day."}, Similarity: 0.92},
	}
}

// ============================================================================
// Answer Tests
// ============================================================================

func TestAnswerer_Answer_Success(t *testing.T) {
	data := buildQuestionWorkbook(t, []string{"When do visitor badges expire?"})

	completer := testutil.NewMockCompleter("fallback")
	completer.AddResponse("visitor badges", "Badges expire at the end of the day.")
	files := &mockFileStore{}
	ans := NewAnswerer(&mockSearcher{results: policyChunks()}, testutil.NewMockEmbedder(), completer, files, 5, log.NewNop())

	answered, err := ans.Answer(context.Background(), data, "questions.xlsx")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if answered.Message == "" {
		t.Error("Message is empty")
	}
	if !strings.HasPrefix(answered.DownloadURL, "https://files.example.com/Answered_questions_") {
		t.Errorf("DownloadURL = %q, want Answered_questions_ prefix", answered.DownloadURL)
	}
	if files.saveCalls != 1 {
		t.Errorf("Save called %d times, want 1", files.saveCalls)
	}

	// Output workbook carries the question and the synthesized answer.
	out, err := excelize.OpenReader(bytes.NewReader(files.lastData))
	if err != nil {
		t.Fatalf("opening output workbook: %v", err)
	}
	defer func() { _ = out.Close() }()

	rows, err := out.GetRows(out.GetSheetName(0))
	if err != nil {
		t.Fatalf("reading output rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("output has %d rows, want 2", len(rows))
	}
	if rows[0][0] != "Question" || rows[0][1] != "Answer" {
		t.Errorf("header = %v, want [Question Answer]", rows[0])
	}
	if rows[1][1] != "Badges expire at the end of the day." {
		t.Errorf("answer cell = %q", rows[1][1])
	}
}

func TestAnswerer_Answer_NoRelevantChunks(t *testing.T) {
	data := buildQuestionWorkbook(t, []string{"What is the dress code on Mars?"})

	completer := testutil.NewMockCompleter("should not be called")
	files := &mockFileStore{}
	ans := NewAnswerer(&mockSearcher{}, testutil.NewMockEmbedder(), completer, files, 5, log.NewNop())

	_, err := ans.Answer(context.Background(), data, "questions.xlsx")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	// Empty retrieval short-circuits: fixed message, no completion call.
	if calls := completer.Calls(); len(calls) != 0 {
		t.Errorf("completer called %d times, want 0", len(calls))
	}

	out, err := excelize.OpenReader(bytes.NewReader(files.lastData))
	if err != nil {
		t.Fatalf("opening output workbook: %v", err)
	}
	defer func() { _ = out.Close() }()

	rows, err := out.GetRows(out.GetSheetName(0))
	if err != nil {
		t.Fatalf("reading output rows: %v", err)
	}
	if rows[1][1] != NoRelevantPolicyMessage {
		t.Errorf("answer = %q, want %q", rows[1][1], NoRelevantPolicyMessage)
	}
}

func TestAnswerer_Answer_SkipsBlankQuestions(t *testing.T) {
	data := buildQuestionWorkbook(t, []string{"First question?", "", "  ", "Second question?"})

	completer := testutil.NewMockCompleter("answer")
	files := &mockFileStore{}
	ans := NewAnswerer(&mockSearcher{results: policyChunks()}, testutil.NewMockEmbedder(), completer, files, 5, log.NewNop())

	_, err := ans.Answer(context.Background(), data, "questions.xlsx")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if calls := completer.Calls(); len(calls) != 2 {
		t.Errorf("completer called %d times, want 2 (blank rows skipped)", len(calls))
	}
}

func TestAnswerer_Answer_NoQuestions(t *testing.T) {
	data := buildQuestionWorkbook(t, nil)

	files := &mockFileStore{}
	ans := NewAnswerer(&mockSearcher{}, testutil.NewMockEmbedder(), testutil.NewMockCompleter(""), files, 5, log.NewNop())

	answered, err := ans.Answer(context.Background(), data, "questions.xlsx")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answered.Message == "" {
		t.Error("expected an explanatory message for a question-less workbook")
	}
	if files.saveCalls != 0 {
		t.Errorf("Save called %d times for a question-less workbook", files.saveCalls)
	}
}

func TestAnswerer_Answer_CompletionFailureAborts(t *testing.T) {
	data := buildQuestionWorkbook(t, []string{"Q1?", "Q2?"})

	completer := testutil.NewMockCompleter("")
	completer.Err = errors.New("model overloaded")
	files := &mockFileStore{}
	ans := NewAnswerer(&mockSearcher{results: policyChunks()}, testutil.NewMockEmbedder(), completer, files, 5, log.NewNop())

	_, err := ans.Answer(context.Background(), data, "questions.xlsx")
	if err == nil {
		t.Fatal("expected error from completion failure")
	}
	if files.saveCalls != 0 {
		t.Errorf("Save called %d times after completion failure, want 0", files.saveCalls)
	}
}

func TestAnswerer_Answer_SearchFailureAborts(t *testing.T) {
	data := buildQuestionWorkbook(t, []string{"Q1?"})

	searcher := &mockSearcher{searchErr: errors.New("database down")}
	ans := NewAnswerer(searcher, testutil.NewMockEmbedder(), testutil.NewMockCompleter(""), &mockFileStore{}, 5, log.NewNop())

	if _, err := ans.Answer(context.Background(), data, "questions.xlsx"); err == nil {
		t.Fatal("expected error from retrieval failure")
	}
}

// ============================================================================
// Output Naming Tests
// ============================================================================

func TestAnsweredFileName(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"questions.xlsx", "Answered_questions_20260830T140509Z.xlsx"},
		{"HR policies.xlsm", "Answered_HR policies_20260830T140509Z.xlsm"},
		{"noext", "Answered_noext_20260830T140509Z.xlsx"},
	}
	for _, tt := range tests {
		if got := answeredFileName(tt.in, now); got != tt.want {
			t.Errorf("answeredFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
