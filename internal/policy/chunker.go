package policy

import "strings"

const (
	// DefaultChunkSize is the chunk length in characters used when no
	// explicit size is configured.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the character overlap between consecutive
	// chunks used when no explicit overlap is configured.
	DefaultChunkOverlap = 200
)

// Chunk splits text into overlapping, boundary-aware segments of up to size
// characters. When a slice does not reach the end of the text, the cut is
// softened to the last sentence terminator ('.') or newline inside the slice,
// but only if that break point lies past the slice's midpoint. Chunks are
// trimmed and empty ones dropped; blank input yields no chunks.
//
// The loop is guaranteed to terminate: if the computed next offset would not
// advance past the previous one, chunking stops. Chunking the same text with
// the same parameters is deterministic.
func ChunkText(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		// Overlap must leave room to advance; fall back to a fifth of the
		// chunk size.
		overlap = size / 5
	}

	runes := []rune(text)
	var chunks []string

	offset := 0
	for offset < len(runes) {
		end := offset + size
		if end > len(runes) {
			end = len(runes)
		}
		slice := runes[offset:end]

		// Soft cut: only applies when more text follows, and only when the
		// break point sits in the second half of the slice.
		if end < len(runes) {
			if br := lastBreak(slice); br > len(slice)/2 {
				slice = slice[:br+1]
			}
		}

		if chunk := strings.TrimSpace(string(slice)); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := offset + len(slice) - overlap
		if next <= offset {
			// Safety invariant: never loop without advancing.
			break
		}
		offset = next
	}

	return chunks
}

// lastBreak returns the index of the last sentence terminator or newline in
// the slice, or -1 when none is present.
func lastBreak(slice []rune) int {
	for i := len(slice) - 1; i >= 0; i-- {
		if slice[i] == '.' || slice[i] == '\n' {
			return i
		}
	}
	return -1
}
