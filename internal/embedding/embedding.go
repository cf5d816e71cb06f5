package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/models"
)

// NewEmbedder wraps a provider client with batching. The same embedder must
// be used for indexing and for querying.
func NewEmbedder(client embeddings.EmbedderClient, batchSize int) (*embeddings.EmbedderImpl, error) {
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if batchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(batchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// EmbedPassages embeds the passage texts in order. The result has one vector per passage.
func EmbedPassages(ctx context.Context, embedder embeddings.Embedder, passages []models.Passage) ([][]float32, error) {
	if len(passages) == 0 {
		log.Info().Msg("No passages to embed")
		return nil, nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(passages))
	}
	log.Debug().Int("passages", len(passages)).Msg("Embedded passages")
	return vectors, nil
}
