package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/models"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS passages (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	source TEXT,
	page INTEGER,
	chunk_id INTEGER,
	embedding vector(%d) NOT NULL
)`

type Document struct {
	bun.BaseModel `bun:"table:passages,alias:p"`
	ID            string          `bun:"id,pk"`
	Content       string          `bun:"content,notnull"`
	Source        string          `bun:"source"`
	Page          *int            `bun:"page"`
	ChunkID       int             `bun:"chunk_id"`
	Embedding     pgvector.Vector `bun:"embedding,notnull"`
}

func newDocument(p models.Passage, vector []float32) Document {
	return Document{
		ID:        p.ID,
		Content:   p.Text,
		Source:    p.Source,
		Page:      p.SourcePage,
		ChunkID:   p.ChunkID,
		Embedding: pgvector.NewVector(vector),
	}
}

func (d Document) passage() models.Passage {
	return models.Passage{
		ID:         d.ID,
		Text:       d.Content,
		Source:     d.Source,
		SourcePage: d.Page,
		ChunkID:    d.ChunkID,
	}
}

// Store is a pgvector-backed vector index
type Store struct {
	db         *bun.DB
	dimensions int
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(databaseURL string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))
}

// NewStore connects to Postgres and makes sure the pgvector extension and
// the passages table exist.
func NewStore(ctx context.Context, databaseURL string, dimensions int, debug bool) (*Store, error) {
	s := &Store{db: NewDB(ConnectDB(databaseURL), debug), dimensions: dimensions}
	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := s.InitDB(ctx); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(createTableSQL, s.dimensions))
	if err != nil {
		return fmt.Errorf("failed to create passages table: %w", err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewTruncateTable().Model((*Document)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to clear passages: %v", models.ErrIndexWrite, err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, passages []models.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("%w: %d passages but %d vectors", models.ErrIndexWrite, len(passages), len(vectors))
	}
	if len(passages) == 0 {
		return nil
	}
	docs := make([]Document, len(passages))
	for i, p := range passages {
		docs[i] = newDocument(p, vectors[i])
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&docs).On("CONFLICT (id) DO UPDATE").
			Set("content = EXCLUDED.content").
			Set("embedding = EXCLUDED.embedding").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to store passages: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Query orders passages by cosine distance to vector
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Column("id", "content", "source", "page", "chunk_id").
		OrderExpr("embedding <=> ?::vector", pgvector.NewVector(vector)).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}

	passages := make([]models.Passage, len(docs))
	for i, d := range docs {
		passages[i] = d.passage()
	}
	return passages, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

// Persist is a no-op: every write is committed in its own transaction
func (s *Store) Persist(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	log.Debug().Msg("Closing database")
	return s.db.Close()
}
