package db

import (
	"context"
	"os"
	"testing"

	"pdf-rag/internal/models"
)

func TestDocument_RoundTrip(t *testing.T) {
	p := models.Passage{ID: "a", Text: "alpha", Source: "doc.pdf", SourcePage: models.PageRef(3), ChunkID: 2}
	d := newDocument(p, []float32{1, 0.5, -2})

	got := d.Embedding.Slice()
	if len(got) != 3 || got[0] != 1 || got[1] != 0.5 || got[2] != -2 {
		t.Errorf("embedding: got %v", got)
	}
	v, err := d.Embedding.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "[1,0.5,-2]" {
		t.Errorf("pgvector literal: got %v", v)
	}

	back := d.passage()
	if back.ID != p.ID || back.Text != p.Text || back.ChunkID != 2 || back.SourcePage == nil || *back.SourcePage != 3 {
		t.Errorf("passage: got %+v", back)
	}
}

func TestDocument_UnknownPage(t *testing.T) {
	d := newDocument(models.Passage{ID: "b", Text: "beta"}, []float32{0, 1})
	if d.Page != nil || d.passage().SourcePage != nil {
		t.Error("unknown page should stay nil")
	}
}

// TestStore_Postgres runs against a real pgvector database when DATABASE_URL is set.
func TestStore_Postgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, url, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	passages := []models.Passage{
		{ID: "a", Text: "alpha", SourcePage: models.PageRef(1)},
		{ID: "b", Text: "beta"},
	}
	if err := s.Add(ctx, passages, [][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(ctx, []float32{0, 1, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[0].SourcePage != nil {
		t.Errorf("unexpected results: %+v", got)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("count: %d", n)
	}
}
