package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdf-rag/internal/models"
)

// TemplateAssembler lays out a fixed prompt: system instruction, prior turns
// in order, then the question with the passages in retrieval order.
type TemplateAssembler struct {
	Language string
}

func NewTemplateAssembler(language string) *TemplateAssembler {
	if language == "" {
		language = "English"
	}
	return &TemplateAssembler{Language: language}
}

func (a *TemplateAssembler) Assemble(question string, passages []models.Passage, history []models.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, models.SystemPromptTemplate))

	for _, turn := range history {
		role := schema.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}

	human := fmt.Sprintf(models.HumanPromptTemplate, question, JoinPassages(passages), a.Language)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, human))
	return messages
}

// JoinPassages concatenates passage texts without reordering them.
func JoinPassages(passages []models.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, models.ContextSeparator)
}

// formatHistory renders turns as a plain transcript for the condense prompt.
func formatHistory(history []models.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case models.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("Human: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// MessageText returns the concatenated text parts of a message.
func MessageText(m llms.MessageContent) string {
	var b strings.Builder
	for _, part := range m.Parts {
		if t, ok := part.(llms.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
