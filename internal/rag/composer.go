package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docuquery/cli/internal/domain"
)

// NoAnswerSentinel is the exact phrase the model is instructed to emit when
// no retrieved chunk supports an answer. It is a normal outcome, not an
// error, and must stay byte-identical so callers can detect it.
const NoAnswerSentinel = "I cannot find this information in the provided document."

// ErrGenerationUnavailable marks a failed or unreachable generation
// capability, as opposed to a legitimate no-answer result.
var ErrGenerationUnavailable = errors.New("generation capability unavailable")

// Generator produces text from a prompt, synchronously and single-shot.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Source is one chunk that was supplied to the model, kept for citations.
type Source struct {
	Text   string
	Source string
	Page   int
}

// Answer is a grounded answer plus the sources it was composed from.
type Answer struct {
	Text    string
	Sources []Source
}

// Composer turns retrieved chunks and a question into a grounded answer by
// stuffing all chunk text into a single bounded prompt.
type Composer struct {
	llm Generator
}

// NewComposer creates a new answer composer.
func NewComposer(llm Generator) *Composer {
	return &Composer{llm: llm}
}

// Answer invokes the generation capability over the stuffed prompt. The
// returned sources are exactly the chunks that were supplied to the model.
func (c *Composer) Answer(ctx context.Context, question string, retrieved []domain.SearchResult) (*Answer, error) {
	prompt := c.BuildPrompt(question, retrieved)

	text, err := c.llm.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	sources := make([]Source, 0, len(retrieved))
	for _, r := range retrieved {
		sources = append(sources, Source{
			Text:   r.Chunk.Text,
			Source: r.Chunk.Source,
			Page:   r.Chunk.Page,
		})
	}

	return &Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
	}, nil
}

// BuildPrompt serializes the instruction block, every retrieved chunk's
// verbatim text, and the verbatim question.
func (c *Composer) BuildPrompt(question string, retrieved []domain.SearchResult) string {
	var b strings.Builder

	b.WriteString("You are an expert document analysis assistant. Your primary responsibility is to provide accurate, comprehensive, and helpful responses based solely on the provided document context.\n\n")
	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	b.WriteString("1. ANSWER ONLY from the provided context - never invent, assume, or use external knowledge\n")
	b.WriteString("2. If the context contains the answer, provide it completely and accurately\n")
	b.WriteString("3. If the context partially answers the question, clearly state what information is available and what is missing\n")
	b.WriteString("4. If the context doesn't contain relevant information, respond with: \"" + NoAnswerSentinel + "\"\n")
	b.WriteString("5. Always cite specific parts of the context when possible\n")
	b.WriteString("6. Maintain professional tone and clarity\n")
	b.WriteString("7. If the question is unclear, ask for clarification\n")
	b.WriteString("8. Adapt your response style to match the nature of the document content\n\n")

	b.WriteString("CONTEXT INFORMATION:\n")
	for i, r := range retrieved {
		fmt.Fprintf(&b, "\n[Excerpt %d | %s, page %d]\n", i+1, r.Chunk.Source, r.Chunk.Page+1)
		b.WriteString(r.Chunk.Text)
		b.WriteString("\n")
	}

	b.WriteString("\nUSER QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nRESPONSE:\n")

	return b.String()
}
