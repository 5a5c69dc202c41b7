package documents

import (
	"strings"

	"github.com/google/uuid"

	"github.com/docuquery/cli/internal/domain"
)

// separators, most semantically meaningful first: paragraph break, line
// break, sentence end, word boundary.
var separators = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(". "), []rune(" ")}

// Splitter cuts document text into overlapping windows bounded by the most
// meaningful separator that fits, so chunks stay semantically coherent.
// Sizes are measured in runes, never bytes, so a window boundary can not
// land inside a multi-byte character.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a splitter. Non-positive arguments fall back to the
// defaults of 1500 characters per chunk with 300 characters of overlap.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 300
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 4
		}
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split chunks every document in order. Overlap applies between consecutive
// chunks of the same document; documents never bleed into each other.
func (s *Splitter) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		for _, text := range s.splitText(doc.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:     uuid.New(),
				Source: doc.Source,
				Page:   doc.Page,
				Text:   text,
			})
		}
	}
	return chunks
}

// splitText produces windows of at most chunkSize characters, each repeating
// the trailing chunkOverlap characters of its predecessor. A text containing
// none of the separators is emitted whole rather than dropped, even when it
// exceeds the chunk size.
func (s *Splitter) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}

		cut := findCut(runes, start, end, start+s.chunkOverlap)
		if cut < 0 {
			// No separator inside the window. Take the remainder up to the
			// next separator anywhere ahead, or everything if there is none.
			cut = nextSeparator(runes, end)
			if cut < 0 {
				parts = append(parts, string(runes[start:]))
				break
			}
		}

		parts = append(parts, string(runes[start:cut]))

		next := cut - s.chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return parts
}

// findCut returns the position just past the last occurrence of the highest
// priority separator inside (start, end], or -1 if none occurs. Cuts at or
// before minCut are rejected so a chunk always advances past the region it
// repeats from its predecessor.
func findCut(runes []rune, start, end, minCut int) int {
	window := runes[start:end]
	for _, sep := range separators {
		idx := lastIndexRunes(window, sep)
		if idx <= 0 {
			continue
		}
		if cut := start + idx + len(sep); cut > minCut {
			return cut
		}
	}
	return -1
}

// nextSeparator returns the position just past the earliest separator
// occurrence at or after pos, or -1.
func nextSeparator(runes []rune, pos int) int {
	best := -1
	for _, sep := range separators {
		if idx := indexRunes(runes[pos:], sep); idx >= 0 {
			candidate := pos + idx + len(sep)
			if best < 0 || candidate < best {
				best = candidate
			}
		}
	}
	return best
}

func indexRunes(window, sep []rune) int {
	for i := 0; i+len(sep) <= len(window); i++ {
		if runesHavePrefix(window[i:], sep) {
			return i
		}
	}
	return -1
}

func lastIndexRunes(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		if runesHavePrefix(window[i:], sep) {
			return i
		}
	}
	return -1
}

func runesHavePrefix(window, sep []rune) bool {
	for i := range sep {
		if window[i] != sep[i] {
			return false
		}
	}
	return true
}
