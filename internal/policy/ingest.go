package policy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/koopa0/policy-agent/internal/llm"
)

// ChunkWriter is the persistence contract the Ingestor depends on.
// Interfaces are defined by the consumer; *Store satisfies this.
type ChunkWriter interface {
	// InsertBatch persists all chunks atomically.
	InsertBatch(ctx context.Context, chunks []Chunk) error
}

// Ingestor extracts policy rows from a spreadsheet, chunks each policy body,
// embeds the chunks, and persists the whole batch.
type Ingestor struct {
	writer       ChunkWriter
	embedder     llm.Embedder
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewIngestor creates an Ingestor. chunkSize/chunkOverlap of zero select the
// package defaults. logger may be nil.
func NewIngestor(writer ChunkWriter, embedder llm.Embedder, chunkSize, chunkOverlap int, logger *slog.Logger) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		writer:       writer,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// Ingest reads policy rows from the first sheet of the spreadsheet blob and
// persists their embedded chunks in one atomic batch.
//
// The header row is skipped. Each data row must carry three non-blank cells
// (policy code, section code, content); rows failing this are skipped with a
// warning, not an error. Malformed spreadsheets are a user-input problem and
// come back as an unsuccessful Summary rather than an error. Embedding and
// store failures abort the run: nothing is persisted on a mid-batch error.
func (ing *Ingestor) Ingest(ctx context.Context, data []byte, documentName string) (Summary, error) {
	rows, result := readPolicyRows(data)
	if !result.Success {
		return result, nil
	}

	var all []Chunk
	processed := 0
	for _, row := range rows {
		pieces := ChunkText(row.content, ing.chunkSize, ing.chunkOverlap)
		if len(pieces) == 0 {
			ing.logger.Warn("policy row produced no chunks, skipping",
				"policy_code", row.policyCode, "section_code", row.sectionCode)
			continue
		}

		for i, piece := range pieces {
			embedding, err := ing.embedder.Embed(ctx, piece)
			if err != nil {
				return Summary{}, fmt.Errorf("embedding chunk %d of policy %s: %w", i+1, row.policyCode, err)
			}
			all = append(all, Chunk{
				PolicyCode:   row.policyCode,
				SectionCode:  row.sectionCode,
				DocumentName: documentName,
				ChunkIndex:   i + 1,
				Content:      piece,
				Embedding:    embedding,
			})
		}
		processed++
	}

	if err := ing.writer.InsertBatch(ctx, all); err != nil {
		return Summary{}, fmt.Errorf("persisting chunk batch: %w", err)
	}

	ing.logger.Info("policy document ingested",
		"document", documentName,
		"policies", processed,
		"chunks", len(all))

	return Summary{
		Success:           true,
		Message:           fmt.Sprintf("Ingested %d policies (%d chunks) from %s.", processed, len(all), documentName),
		PoliciesProcessed: processed,
		TotalChunks:       len(all),
	}, nil
}

// policyRow is one retained spreadsheet row.
type policyRow struct {
	policyCode  string
	sectionCode string
	content     string
}

// readPolicyRows parses the first sheet, skipping the header row and any row
// without three non-blank cells. A spreadsheet that cannot be read at all
// yields an unsuccessful Summary.
func readPolicyRows(data []byte) ([]policyRow, Summary) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, Summary{Success: false, Message: fmt.Sprintf("Unable to read spreadsheet: %v", err)}
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, Summary{Success: false, Message: "Spreadsheet has no sheets."}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, Summary{Success: false, Message: fmt.Sprintf("Unable to read rows: %v", err)}
	}
	if len(raw) <= 1 {
		return nil, Summary{Success: false, Message: "Spreadsheet contains no data rows."}
	}

	rows := make([]policyRow, 0, len(raw)-1)
	for i, cells := range raw[1:] { // skip header
		row := policyRow{
			policyCode:  cellAt(cells, 0),
			sectionCode: cellAt(cells, 1),
			content:     cellAt(cells, 2),
		}
		if row.policyCode == "" || row.sectionCode == "" || row.content == "" {
			slog.Warn("skipping policy row with blank required cells", "row", i+2)
			continue
		}
		rows = append(rows, row)
	}

	return rows, Summary{Success: true}
}

// cellAt returns the trimmed cell at index i, or "" when the row is shorter.
// GetRows drops trailing empty cells, so short rows are common.
func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
