package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// Client is a provider handle that can both generate and embed.
type Client interface {
	llms.Model
	embeddings.EmbedderClient
}

// NewClient creates a langchaingo client for the configured provider.
// For embedding configs the model is used as the embedding model.
func NewClient(ctx context.Context, llmConfig *config.LLMConfig, embedding bool) (Client, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Bool("embedding", embedding).
		Msg("Creating LLM client")

	if llmConfig.RequiresKey() && strings.TrimSpace(llmConfig.Key) == "" {
		return nil, fmt.Errorf("%w: %s requires an API key", models.ErrConfiguration, llmConfig.Provider)
	}

	switch llmConfig.Provider {
	case config.ProviderGoogleAI:
		opts := []googleai.Option{googleai.WithAPIKey(llmConfig.Key)}
		if embedding {
			opts = append(opts, googleai.WithDefaultEmbeddingModel(llmConfig.Model))
		} else {
			opts = append(opts, googleai.WithDefaultModel(llmConfig.Model))
		}
		llm, err := googleai.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil

	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer "))}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		if embedding {
			opts = append(opts, openai.WithEmbeddingModel(llmConfig.Model))
		} else {
			opts = append(opts, openai.WithModel(llmConfig.Model))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil

	case config.ProviderOllama:
		llm, err := ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, err
		}
		return llm, nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", models.ErrConfiguration, llmConfig.Provider)
	}
}

// GenerateContent calls the model with the given messages
func GenerateContent(ctx context.Context, llm llms.Model, temperature float64, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	res, err := llm.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return res, nil
}
