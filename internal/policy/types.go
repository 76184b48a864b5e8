// Package policy implements the policy document pipelines: spreadsheet
// ingestion with chunking and embedding, and retrieval-augmented question
// answering over the persisted chunks.
package policy

// Chunk is one embedded segment of a policy document.
// Chunks are created in bulk during ingestion and never mutated.
type Chunk struct {
	PolicyCode   string    // Policy identifier from the source spreadsheet
	SectionCode  string    // Section identifier within the policy
	DocumentName string    // Name of the source document
	ChunkIndex   int       // 1-based, contiguous within one policy/section row
	Content      string    // Chunk text
	Embedding    []float32 // Embedding vector for similarity search
}

// ScoredChunk is a search result: a stored chunk with its similarity to the
// query embedding.
type ScoredChunk struct {
	Chunk
	Similarity float32 // Cosine similarity (0-1), higher is closer
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	PoliciesProcessed int    `json:"policiesProcessed"`
	TotalChunks       int    `json:"totalChunks"`
}

// Answered reports the outcome of one question-answering run.
type Answered struct {
	Message     string `json:"message"`
	DownloadURL string `json:"downloadUrl"`
}
