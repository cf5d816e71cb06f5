package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
)

var thinkTagRe = regexp.MustCompile(models.ThinkTag)

// cleanModelText drops reasoning blocks some models emit and trims whitespace.
func cleanModelText(s string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(s, ""))
}

// LLMContextualizer asks the model to condense the follow-up into a standalone question.
type LLMContextualizer struct {
	llm llms.Model
}

func NewLLMContextualizer(llm llms.Model) *LLMContextualizer {
	return &LLMContextualizer{llm: llm}
}

func (c *LLMContextualizer) Contextualize(ctx context.Context, question string, history []models.Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}
	prompt := fmt.Sprintf(models.CondensePromptTemplate, formatHistory(history), question)
	res, err := llmservice.GenerateContent(ctx, c.llm, 0, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: condense question: %v", models.ErrGeneration, err)
	}
	standalone := cleanModelText(res.Choices[0].Content)
	if standalone == "" {
		return question, nil
	}
	return standalone, nil
}

// TemplateContextualizer is a deterministic contextualizer: it appends the
// earlier user questions to the follow-up so retrieval sees their subject.
type TemplateContextualizer struct{}

func (TemplateContextualizer) Contextualize(_ context.Context, question string, history []models.Turn) (string, error) {
	var earlier []string
	for _, turn := range history {
		if turn.Role == models.RoleUser {
			earlier = append(earlier, strings.TrimSpace(turn.Content))
		}
	}
	if len(earlier) == 0 {
		return question, nil
	}
	return fmt.Sprintf("%s (follow-up to: %s)", question, strings.Join(earlier, " / ")), nil
}
