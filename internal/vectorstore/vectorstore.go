// Package vectorstore selects the vector index implementation.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/db"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// Store persists (vector, passage) pairs and answers top-k similarity queries.
type Store interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, passages []models.Passage, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error)
	Count(ctx context.Context) (int, error)
	Persist(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*chromemdb.VectorDBManager)(nil)
	_ Store = (*db.Store)(nil)
)

// Open returns the store named by cfg.Type. embed may be nil.
func Open(ctx context.Context, cfg *config.Config, embed chromem.EmbeddingFunc) (Store, error) {
	switch cfg.VectorStore.Type {
	case config.StoreChromem:
		if err := helper.CreateFolder(cfg.VectorStore.Path); err != nil {
			return nil, err
		}
		m, err := chromemdb.NewVectorDBManager(chromemdb.Options{
			Path:           cfg.VectorStore.Path,
			CollectionName: cfg.VectorStore.Collection,
			InMemory:       cfg.VectorStore.InMemory,
			SnapshotFile:   cfg.VectorStore.SnapshotFile,
			EncryptionKey:  cfg.VectorStore.EncryptionKey,
			Compress:       cfg.VectorStore.Compress,
			EmbeddingFunc:  embed,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.StorePGVector:
		s, err := db.NewStore(ctx, cfg.VectorStore.DatabaseURL, cfg.VectorStore.Dimensions, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", models.ErrConfiguration, cfg.VectorStore.Type)
	}
}
