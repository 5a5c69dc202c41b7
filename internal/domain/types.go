package domain

import "github.com/google/uuid"

// Document is the extracted text of a single page of one source file.
// Immutable once extracted.
type Document struct {
	Source string // base name of the originating file
	Page   int    // zero-based page number within the file
	Text   string
}

// Chunk is a bounded text window cut from one or more Documents. It keeps
// the source attribution of the page it starts on so answers can cite it.
type Chunk struct {
	ID     uuid.UUID
	Source string
	Page   int
	Text   string
}

// SearchResult pairs a stored chunk with its similarity score for a query.
type SearchResult struct {
	Chunk Chunk
	Score float64
}
