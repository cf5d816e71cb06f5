package rag

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/models"
)

// Contextualizer rewrites a follow-up question into a standalone one using prior turns.
type Contextualizer interface {
	Contextualize(ctx context.Context, question string, history []models.Turn) (string, error)
}

// Retriever returns up to k passages ranked from most to least similar to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.Passage, error)
}

// PromptAssembler builds the messages sent to the model.
type PromptAssembler interface {
	Assemble(question string, passages []models.Passage, history []models.Turn) []llms.MessageContent
}

// Generator turns an assembled prompt into answer text.
type Generator interface {
	Generate(ctx context.Context, prompt []llms.MessageContent) (string, error)
}
