package policy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/koopa0/policy-agent/internal/llm"
)

// NoRelevantPolicyMessage is the fixed answer when retrieval returns nothing.
const NoRelevantPolicyMessage = "No relevant policy information found."

// CannotFindAnswer is the fixed sentence the model is instructed to emit when
// the supplied context does not contain the answer.
const CannotFindAnswer = "I cannot find the answer in the provided policy context."

// answerTemplate forces the model to answer only from the supplied context.
const answerTemplate = `You are a company policy assistant. Answer the question using ONLY the policy context below.
Do not use outside knowledge. If the context does not contain the answer, reply with exactly this sentence: "` + CannotFindAnswer + `"

Policy context:
{{context}}

Question: {{question}}

Answer:`

// ChunkSearcher is the retrieval contract the Answerer depends on.
// *Store satisfies this.
type ChunkSearcher interface {
	// SearchSimilar returns the topK chunks closest to the embedding.
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error)
}

// FileStore is the file persistence contract for answered spreadsheets.
type FileStore interface {
	// Save persists the file bytes under name and returns the stored name.
	Save(ctx context.Context, data []byte, name string) (string, error)

	// URL returns the download URL for a stored name.
	URL(storedName string) string
}

// Answerer answers spreadsheet questions against the persisted policy chunks
// and writes an answered output spreadsheet.
type Answerer struct {
	searcher  ChunkSearcher
	embedder  llm.Embedder
	completer llm.Completer
	files     FileStore
	topK      int
	logger    *slog.Logger
}

// NewAnswerer creates an Answerer. topK of zero selects the default of 5.
// logger may be nil.
func NewAnswerer(searcher ChunkSearcher, embedder llm.Embedder, completer llm.Completer, files FileStore, topK int, logger *slog.Logger) *Answerer {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		searcher:  searcher,
		embedder:  embedder,
		completer: completer,
		files:     files,
		topK:      topK,
		logger:    logger,
	}
}

// Answer extracts questions from the spreadsheet blob, answers each one from
// the policy store, and persists an answered output spreadsheet named
// Answered_<base>_<UTC timestamp><ext>.
//
// Blank question rows are skipped. There is no per-question error isolation:
// the first embedding, retrieval, or completion failure aborts the whole run.
func (a *Answerer) Answer(ctx context.Context, data []byte, fileName string) (Answered, error) {
	questions, result := readQuestions(data)
	if result.Message != "" {
		return Answered{Message: result.Message}, nil
	}

	answers := make([]string, len(questions))
	for i, question := range questions {
		answer, err := a.answerOne(ctx, question)
		if err != nil {
			return Answered{}, fmt.Errorf("answering question %d: %w", i+1, err)
		}
		answers[i] = answer
	}

	out, err := writeAnswerSheet(questions, answers)
	if err != nil {
		return Answered{}, fmt.Errorf("writing answer sheet: %w", err)
	}

	storedName, err := a.files.Save(ctx, out, answeredFileName(fileName, time.Now().UTC()))
	if err != nil {
		return Answered{}, fmt.Errorf("saving answered spreadsheet: %w", err)
	}

	a.logger.Info("questions answered",
		"source", fileName,
		"questions", len(questions),
		"output", storedName)

	return Answered{
		Message:     fmt.Sprintf("Answered %d questions from %s.", len(questions), fileName),
		DownloadURL: a.files.URL(storedName),
	}, nil
}

// answerOne embeds the question, retrieves the closest chunks, and
// synthesizes a context-grounded answer.
func (a *Answerer) answerOne(ctx context.Context, question string) (string, error) {
	embedding, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	chunks, err := a.searcher.SearchSimilar(ctx, embedding, a.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving chunks: %w", err)
	}
	if len(chunks) == 0 {
		return NoRelevantPolicyMessage, nil
	}

	answer, err := a.completer.Complete(ctx, answerTemplate, map[string]string{
		"context":  buildContext(chunks),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("synthesizing answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

// buildContext concatenates retrieved chunks into one context block, each
// tagged with its policy and section code.
func buildContext(chunks []ScoredChunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s/%s] %s", c.PolicyCode, c.SectionCode, c.Content)
	}
	return sb.String()
}

// readQuestions parses one question per row from the first sheet, skipping
// the header row and blank questions. Any existing answer column is ignored.
func readQuestions(data []byte) ([]string, Summary) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, Summary{Message: fmt.Sprintf("Unable to read spreadsheet: %v", err)}
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, Summary{Message: "Spreadsheet has no sheets."}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, Summary{Message: fmt.Sprintf("Unable to read rows: %v", err)}
	}
	if len(raw) <= 1 {
		return nil, Summary{Message: "Spreadsheet contains no questions."}
	}

	questions := make([]string, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		if q := cellAt(cells, 0); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, Summary{Message: "Spreadsheet contains no questions."}
	}

	return questions, Summary{}
}

// headerFillColor is the light-blue fill applied to the output header row.
const headerFillColor = "ADD8E6"

// writeAnswerSheet builds the two-column answered spreadsheet: bold header
// with a light-blue fill, one data row per question, auto-sized columns.
func writeAnswerSheet(questions, answers []string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &[]any{"Question", "Answer"}); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	maxQ, maxA := len("Question"), len("Answer")
	for i := range questions {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]any{questions[i], answers[i]}); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
		maxQ = max(maxQ, len(questions[i]))
		maxA = max(maxA, len(answers[i]))
	}

	// Approximate auto-sizing; excelize widths are in character units and
	// capped at 255.
	if err := f.SetColWidth(sheet, "A", "A", colWidth(maxQ)); err != nil {
		return nil, fmt.Errorf("sizing question column: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "B", colWidth(maxA)); err != nil {
		return nil, fmt.Errorf("sizing answer column: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// colWidth converts a content length to an excelize column width.
func colWidth(contentLen int) float64 {
	w := float64(contentLen) + 2
	if w > 100 {
		w = 100
	}
	if w < 12 {
		w = 12
	}
	return w
}

// answeredFileName builds the output name Answered_<base>_<UTC timestamp><ext>.
func answeredFileName(fileName string, now time.Time) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(filepath.Base(fileName), ext)
	if ext == "" {
		ext = ".xlsx"
	}
	return fmt.Sprintf("Answered_%s_%s%s", base, now.Format("20060102T150405Z"), ext)
}
