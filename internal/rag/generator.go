package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
)

// LLMGenerator sends the prompt to a langchaingo model.
type LLMGenerator struct {
	llm         llms.Model
	temperature float64
}

func NewLLMGenerator(llm llms.Model, temperature float64) *LLMGenerator {
	return &LLMGenerator{llm: llm, temperature: temperature}
}

func (g *LLMGenerator) Generate(ctx context.Context, prompt []llms.MessageContent) (string, error) {
	res, err := llmservice.GenerateContent(ctx, g.llm, g.temperature, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	answer := cleanModelText(res.Choices[0].Content)
	if answer == "" {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, errors.New("empty answer"))
	}
	return answer, nil
}
