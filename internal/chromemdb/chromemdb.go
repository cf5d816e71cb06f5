package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

// Options configures where and how the chromem database lives.
type Options struct {
	Path           string
	CollectionName string
	InMemory       bool
	SnapshotFile   string
	EncryptionKey  string
	Compress       bool
	// EmbeddingFunc is only used by chromem when a document or query arrives without a vector
	EmbeddingFunc chromem.EmbeddingFunc
}

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	opts       Options
}

// NewVectorDBManager opens a persistent database at opts.Path, or an
// in-memory one that is seeded from opts.SnapshotFile when it exists.
func NewVectorDBManager(opts Options) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if opts.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	m := &VectorDBManager{db: db, opts: opts}

	if opts.InMemory && opts.SnapshotFile != "" {
		if _, err := os.Stat(opts.SnapshotFile); err == nil {
			if err := m.Import(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := m.GetOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreateCollection creates or reads the configured collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.opts.CollectionName, nil, m.opts.EmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	return c, nil
}

// Reset drops every entry so a new ingestion replaces the index wholesale.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	if err := m.db.DeleteCollection(m.opts.CollectionName); err != nil {
		return fmt.Errorf("%w: failed to drop collection: %v", models.ErrIndexWrite, err)
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Add stores passages with their precomputed vectors
func (m *VectorDBManager) Add(ctx context.Context, passages []models.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("%w: %d passages but %d vectors", models.ErrIndexWrite, len(passages), len(vectors))
	}
	if len(passages) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Metadata:  models.PassageMetadata(p),
			Embedding: vectors[i],
		}
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: failed to add documents: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Query returns up to k passages ordered from most to least similar.
// An empty collection yields an empty result.
func (m *VectorDBManager) Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query embedding must be provided", models.ErrRetrieval)
	}
	// chromem rejects nResults larger than the collection
	k = min(k, m.collection.Count())
	if k <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query by similarity: %v", models.ErrRetrieval, err)
	}

	passages := make([]models.Passage, len(results))
	for i, r := range results {
		passages[i] = models.PassageFromMetadata(r.ID, r.Content, r.Metadata)
	}
	return passages, nil
}

func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	return m.collection.Count(), nil
}

// Persist writes the in-memory collection to the snapshot file.
// Persistent databases write through on every add, so there is nothing to do.
func (m *VectorDBManager) Persist(ctx context.Context) error {
	if !m.opts.InMemory || m.opts.SnapshotFile == "" {
		return nil
	}
	return m.Export()
}

// Export writes the collection to the snapshot file, encrypted when a key is set
func (m *VectorDBManager) Export() error {
	if m.opts.SnapshotFile == "" {
		return errors.New("snapshot file is required")
	}
	log.Debug().
		Str("collection", m.opts.CollectionName).
		Str("file", m.opts.SnapshotFile).
		Bool("compress", m.opts.Compress).
		Bool("encrypted", m.opts.EncryptionKey != "").
		Msg("Exporting collection")

	err := m.db.ExportToFile(m.opts.SnapshotFile, m.opts.Compress, m.opts.EncryptionKey, m.opts.CollectionName)
	if err != nil {
		return fmt.Errorf("%w: failed to export database: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Import loads the collection from the snapshot file
func (m *VectorDBManager) Import() error {
	err := m.db.ImportFromFile(m.opts.SnapshotFile, m.opts.EncryptionKey, m.opts.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	return nil
}

func (m *VectorDBManager) Close() error {
	return nil
}
