package documents

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuquery/cli/internal/domain"
)

func TestSplitterShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1500, 300)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 0, Text: "Fees are $500 per semester."}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "Fees are $500 per semester.", chunks[0].Text)
	assert.Equal(t, "a.pdf", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Page)
	assert.NotEqual(t, chunks[0].ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestSplitterChunkSizeInvariant(t *testing.T) {
	s := NewSplitter(1500, 300)
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 150)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 2, Text: text}})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 1500)
		assert.Equal(t, 2, c.Page)
	}
}

func TestSplitterOverlapInvariant(t *testing.T) {
	const overlap = 300
	s := NewSplitter(1500, overlap)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 0, Text: text}})

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1].Text, chunks[i].Text
		if len(prev) < overlap || len(cur) < overlap {
			continue
		}
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap],
			"chunk %d should start with the last %d chars of chunk %d", i, overlap, i-1)
	}
}

func TestSplitterPrefersParagraphBreak(t *testing.T) {
	s := NewSplitter(1500, 300)
	text := strings.Repeat("a", 700) + "\n\n" + strings.Repeat("b", 700) + " " + strings.Repeat("c", 700)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 0, Text: text}})

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"),
		"first chunk should break at the paragraph boundary, got %d chars", len(chunks[0].Text))
}

func TestSplitterKeepsMultibyteRunesIntact(t *testing.T) {
	const overlap = 300
	s := NewSplitter(1500, overlap)
	text := strings.Repeat("é", 1000) + " " + strings.Repeat("mot clé ", 400)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 0, Text: text}})

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text), "chunk %d must be valid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1500,
			"chunk size is a character count, not a byte count")
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := []rune(chunks[i-1].Text), []rune(chunks[i].Text)
		if len(prev) < overlap || len(cur) < overlap {
			continue
		}
		assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]))
	}
}

func TestSplitterUnsplittableBlobEmittedWhole(t *testing.T) {
	s := NewSplitter(1500, 300)
	blob := strings.Repeat("x", 4000)
	chunks := s.Split([]domain.Document{{Source: "a.pdf", Page: 0, Text: blob}})

	require.Len(t, chunks, 1, "pathological input must still produce a chunk")
	assert.Equal(t, blob, chunks[0].Text, "no data loss")
}

func TestSplitterSkipsBlankDocuments(t *testing.T) {
	s := NewSplitter(1500, 300)
	chunks := s.Split([]domain.Document{
		{Source: "a.pdf", Page: 0, Text: "   \n  "},
		{Source: "a.pdf", Page: 1, Text: "real content"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestSplitterDocumentsDoNotBleed(t *testing.T) {
	s := NewSplitter(1500, 300)
	chunks := s.Split([]domain.Document{
		{Source: "a.pdf", Page: 0, Text: "first page"},
		{Source: "b.pdf", Page: 0, Text: "second file"},
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, "a.pdf", chunks[0].Source)
	assert.Equal(t, "b.pdf", chunks[1].Source)
	assert.NotContains(t, chunks[0].Text, "second")
}
