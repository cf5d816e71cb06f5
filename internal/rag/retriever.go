package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/models"
)

// Searcher is the query side of the vector index.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error)
}

// VectorRetriever embeds the query with the indexing embedder and returns
// the k nearest passages. There is no similarity threshold.
type VectorRetriever struct {
	embedder embeddings.Embedder
	store    Searcher
}

func NewVectorRetriever(embedder embeddings.Embedder, store Searcher) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, store: store}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.Passage, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", models.ErrRetrieval, err)
	}
	passages, err := r.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	return passages, nil
}
