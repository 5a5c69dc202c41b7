package documents

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/docuquery/cli/internal/domain"
)

// Parser extracts page-level documents from a source file.
type Parser interface {
	Parse(filePath string) ([]domain.Document, error)
}

// PDFParser parses PDF files into one Document per page.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts the text of every page. Pages with no extractable text are
// skipped; page numbers of the remaining documents still reflect their
// position in the file.
func (p *PDFParser) Parse(filePath string) ([]domain.Document, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	source := filepath.Base(filePath)
	var pages []domain.Document

	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Document{
			Source: source,
			Page:   i,
			Text:   text,
		})
	}

	return pages, nil
}
