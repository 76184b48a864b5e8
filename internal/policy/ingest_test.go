package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/koopa0/policy-agent/internal/log"
	"github.com/koopa0/policy-agent/internal/testutil"
)

// ============================================================================
// Mock Implementation
// ============================================================================

// mockChunkWriter implements ChunkWriter for testing.
type mockChunkWriter struct {
	insertErr error

	insertCalls int
	inserted    []Chunk
}

func (m *mockChunkWriter) InsertBatch(_ context.Context, chunks []Chunk) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, chunks...)
	return nil
}

// buildPolicyWorkbook builds an in-memory .xlsx with a header row followed by
// the given rows.
func buildPolicyWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Policy Code", "Section Code", "Content"}); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("writing row %d: %v", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serializing workbook: %v", err)
	}
	return buf.Bytes()
}

// ============================================================================
// Ingest Tests
// ============================================================================

func TestIngestor_Ingest_Success(t *testing.T) {
	data := buildPolicyWorkbook(t, [][]any{
		{"POL-1", "SEC-1", "All visitors must sign in at reception."},
		{"POL-1", "SEC-2", "Visitor badges expire at the end of the day."},
	})

	writer := &mockChunkWriter{}
	ing := NewIngestor(writer, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	summary, err := ing.Ingest(context.Background(), data, "visitors.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if !summary.Success {
		t.Fatalf("summary not successful: %s", summary.Message)
	}
	if summary.PoliciesProcessed != 2 {
		t.Errorf("PoliciesProcessed = %d, want 2", summary.PoliciesProcessed)
	}
	if summary.TotalChunks != 2 {
		t.Errorf("TotalChunks = %d, want 2", summary.TotalChunks)
	}
	if writer.insertCalls != 1 {
		t.Errorf("InsertBatch called %d times, want exactly 1", writer.insertCalls)
	}
	for _, c := range writer.inserted {
		if c.DocumentName != "visitors.xlsx" {
			t.Errorf("chunk document = %q, want visitors.xlsx", c.DocumentName)
		}
		if c.ChunkIndex < 1 {
			t.Errorf("chunk index %d, want >= 1", c.ChunkIndex)
		}
		if len(c.Embedding) != testutil.EmbeddingDim {
			t.Errorf("embedding dim = %d, want %d", len(c.Embedding), testutil.EmbeddingDim)
		}
	}
}

func TestIngestor_Ingest_LongPolicyProducesMultipleChunks(t *testing.T) {
	body := strings.Repeat("Contractors must renew access cards annually. ", 60) // ~2760 chars
	data := buildPolicyWorkbook(t, [][]any{
		{"POL-9", "SEC-1", body},
	})

	writer := &mockChunkWriter{}
	ing := NewIngestor(writer, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	summary, err := ing.Ingest(context.Background(), data, "contractors.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if summary.TotalChunks < 3 {
		t.Errorf("TotalChunks = %d, want at least 3 for %d chars", summary.TotalChunks, len(body))
	}
	// Chunk indexes are 1-based and contiguous.
	for i, c := range writer.inserted {
		if c.ChunkIndex != i+1 {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
	}
}

func TestIngestor_Ingest_SkipsIncompleteRows(t *testing.T) {
	data := buildPolicyWorkbook(t, [][]any{
		{"POL-1", "SEC-1", "Complete row."},
		{"POL-2", "", "Missing section code."},
		{"POL-3", "SEC-3", ""},
		{"POL-4", "SEC-4", "Another complete row."},
	})

	writer := &mockChunkWriter{}
	ing := NewIngestor(writer, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	summary, err := ing.Ingest(context.Background(), data, "mixed.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if summary.PoliciesProcessed != 2 {
		t.Errorf("PoliciesProcessed = %d, want 2 (incomplete rows skipped)", summary.PoliciesProcessed)
	}
}

func TestIngestor_Ingest_MalformedSpreadsheet(t *testing.T) {
	writer := &mockChunkWriter{}
	ing := NewIngestor(writer, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	summary, err := ing.Ingest(context.Background(), []byte("not a spreadsheet"), "bad.xlsx")
	if err != nil {
		t.Fatalf("malformed input must not be an error, got: %v", err)
	}

	if summary.Success {
		t.Error("summary.Success = true for malformed input")
	}
	if summary.Message == "" {
		t.Error("summary.Message empty for malformed input")
	}
	if writer.insertCalls != 0 {
		t.Errorf("InsertBatch called %d times for malformed input", writer.insertCalls)
	}
}

func TestIngestor_Ingest_NoDataRows(t *testing.T) {
	data := buildPolicyWorkbook(t, nil)

	ing := NewIngestor(&mockChunkWriter{}, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	summary, err := ing.Ingest(context.Background(), data, "empty.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Success {
		t.Error("summary.Success = true for a header-only workbook")
	}
}

func TestIngestor_Ingest_EmbedFailureAbortsWithoutPersisting(t *testing.T) {
	data := buildPolicyWorkbook(t, [][]any{
		{"POL-1", "SEC-1", "Some policy text."},
	})

	embedder := testutil.NewMockEmbedder()
	embedder.Err = errors.New("provider unavailable")
	writer := &mockChunkWriter{}
	ing := NewIngestor(writer, embedder, 1000, 200, log.NewNop())

	_, err := ing.Ingest(context.Background(), data, "doc.xlsx")
	if err == nil {
		t.Fatal("expected error from embedding failure")
	}
	if writer.insertCalls != 0 {
		t.Errorf("InsertBatch called %d times after embed failure, want 0", writer.insertCalls)
	}
}

func TestIngestor_Ingest_StoreFailurePropagates(t *testing.T) {
	data := buildPolicyWorkbook(t, [][]any{
		{"POL-1", "SEC-1", "Some policy text."},
	})

	writer := &mockChunkWriter{insertErr: errors.New("connection lost")}
	ing := NewIngestor(writer, testutil.NewMockEmbedder(), 1000, 200, log.NewNop())

	_, err := ing.Ingest(context.Background(), data, "doc.xlsx")
	if err == nil {
		t.Fatal("expected error from store failure")
	}
	if len(writer.inserted) != 0 {
		t.Errorf("%d chunks recorded despite store failure", len(writer.inserted))
	}
}
