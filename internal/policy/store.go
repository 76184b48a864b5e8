package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Store persists policy chunks in PostgreSQL with pgvector similarity search.
//
// Store is safe for concurrent use by multiple goroutines; the pool provides
// its own concurrency control. The pool must have pgvector types registered
// (see app.Setup).
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a new Store instance.
// logger may be nil, in which case slog.Default() is used.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// InsertBatch persists all chunks in a single transaction. Either every chunk
// is written or none is; a failure mid-batch rolls the whole write back.
func (s *Store) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, c := range chunks {
		embedding := pgvector.NewVector(c.Embedding)
		batch.Queue(
			`INSERT INTO policy_chunks (policy_code, section_code, document_name, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.PolicyCode, c.SectionCode, c.DocumentName, c.ChunkIndex, c.Content, embedding,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("inserting policy chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk batch: %w", err)
	}

	s.logger.Debug("persisted policy chunks", "count", len(chunks))
	return nil
}

// SearchSimilar returns the topK stored chunks closest to the query
// embedding, ordered by descending similarity.
func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	query := pgvector.NewVector(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT policy_code, section_code, document_name, chunk_index, content,
		        1 - (embedding <=> $1) AS similarity
		 FROM policy_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		query, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("searching policy chunks: %w", err)
	}
	defer rows.Close()

	results := make([]ScoredChunk, 0, topK)
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(&sc.PolicyCode, &sc.SectionCode, &sc.DocumentName,
			&sc.ChunkIndex, &sc.Content, &sc.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search rows: %w", err)
	}

	return results, nil
}
