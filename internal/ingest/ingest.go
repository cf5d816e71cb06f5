// Package ingest turns a document into indexed passages.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
)

// Index is the write side of the vector index.
type Index interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, passages []models.Passage, vectors [][]float32) error
	Count(ctx context.Context) (int, error)
	Persist(ctx context.Context) error
}

// Report summarizes one ingestion run.
type Report struct {
	Source   string        `json:"source"`
	Pages    int           `json:"pages"`
	Passages int           `json:"passages"`
	Indexed  int           `json:"indexed"`
	DryRun   bool          `json:"dry_run"`
	Duration time.Duration `json:"duration"`
}

type Pipeline struct {
	chunker  *parser.Chunker
	embedder embeddings.Embedder
	index    Index
}

func NewPipeline(chunker *parser.Chunker, embedder embeddings.Embedder, index Index) *Pipeline {
	return &Pipeline{chunker: chunker, embedder: embedder, index: index}
}

// Run replaces the index contents with the passages of the document at path.
// All passages are embedded before the index is touched, so a failed run
// leaves the previous contents in place.
func (p *Pipeline) Run(ctx context.Context, path string) (Report, error) {
	start := time.Now()
	report, passages, err := p.prepare(path)
	if err != nil {
		return report, err
	}
	if len(passages) == 0 {
		return report, fmt.Errorf("%w: %s has no extractable text", models.ErrLoad, path)
	}

	vectors, err := embedding.EmbedPassages(ctx, p.embedder, passages)
	if err != nil {
		return report, fmt.Errorf("%w: embed passages: %v", models.ErrIndexWrite, err)
	}

	if err := p.index.Reset(ctx); err != nil {
		return report, err
	}
	if err := p.index.Add(ctx, passages, vectors); err != nil {
		return report, err
	}
	if err := p.index.Persist(ctx); err != nil {
		return report, err
	}

	count, err := p.index.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: count entries: %v", models.ErrIndexWrite, err)
	}
	report.Indexed = count
	report.Duration = time.Since(start)

	log.Info().
		Str("source", report.Source).
		Int("pages", report.Pages).
		Int("passages", report.Passages).
		Int("indexed", report.Indexed).
		Dur("took", report.Duration).
		Msg("Ingestion finished")
	return report, nil
}

// DryRun loads and chunks the document and prints the passages without
// embedding or writing anything.
func (p *Pipeline) DryRun(path string) (Report, error) {
	start := time.Now()
	report, passages, err := p.prepare(path)
	if err != nil {
		return report, err
	}
	report.DryRun = true
	report.Duration = time.Since(start)
	helper.PrettyPrint(passages)
	helper.PrettyPrint(report)
	return report, nil
}

func (p *Pipeline) prepare(path string) (Report, []models.Passage, error) {
	report := Report{Source: filepath.Base(path)}

	pages, err := parser.Load(path)
	if err != nil {
		return report, nil, err
	}
	report.Pages = len(pages)

	passages, err := p.chunker.Split(report.Source, pages)
	if err != nil {
		return report, nil, fmt.Errorf("%w: split %s: %v", models.ErrLoad, path, err)
	}
	report.Passages = len(passages)
	log.Debug().Str("source", report.Source).Int("pages", report.Pages).Int("passages", report.Passages).Msg("Document chunked")
	return report, passages, nil
}
