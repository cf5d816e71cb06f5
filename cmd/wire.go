package main

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/vectorstore"
)

func newEmbedder(ctx context.Context, cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	client, err := llmservice.NewClient(ctx, &cfg.EmbedLLM, true)
	if err != nil {
		return nil, err
	}
	return embedding.NewEmbedder(client, cfg.EmbedLLM.BatchSize)
}

// openStore opens the configured index. chromem gets the same embedder for
// any document added without a vector.
func openStore(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (vectorstore.Store, error) {
	var embed chromem.EmbeddingFunc = func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	return vectorstore.Open(ctx, cfg, embed)
}

func newOrchestrator(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder, store vectorstore.Store) (*rag.Orchestrator, error) {
	llm, err := llmservice.NewClient(ctx, &cfg.InferenceLLM, false)
	if err != nil {
		return nil, err
	}

	var contextualizer rag.Contextualizer
	switch cfg.RAG.Contextualizer {
	case config.ContextualizerLLM:
		contextualizer = rag.NewLLMContextualizer(llm)
	case config.ContextualizerTemplate:
		contextualizer = rag.TemplateContextualizer{}
	default:
		return nil, fmt.Errorf("%w: unknown contextualizer %q", models.ErrConfiguration, cfg.RAG.Contextualizer)
	}

	return rag.NewOrchestrator(
		contextualizer,
		rag.NewVectorRetriever(embedder, store),
		rag.NewTemplateAssembler(cfg.RAG.ResponseLanguage),
		rag.NewLLMGenerator(llm, cfg.InferenceLLM.Temperature),
		rag.Options{
			TopK:            cfg.RAG.TopK,
			SourceTextLimit: cfg.RAG.SourceTextLimit,
			HistoryWindow:   cfg.RAG.HistoryWindow,
			Timeout:         cfg.RAG.RequestTimeout,
		},
	), nil
}
