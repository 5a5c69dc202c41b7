package rag

import (
	"context"

	"github.com/docuquery/cli/internal/ollama"
)

// OllamaGenerator adapts the Ollama client to the Generator interface with
// a fixed model and low temperature for grounded answering.
type OllamaGenerator struct {
	client *ollama.Client
	model  string
}

// NewOllamaGenerator creates a generator bound to one chat model.
func NewOllamaGenerator(client *ollama.Client, model string) *OllamaGenerator {
	return &OllamaGenerator{client: client, model: model}
}

func (g *OllamaGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.3,
		},
	})
}
