package models

import (
	"strconv"
)

// Page is the raw text of one page of a loaded document.
// Number is 1-indexed; 0 means the format has no page concept.
type Page struct {
	Number int
	Text   string
}

// Passage represents a chunk of source text with its provenance
type Passage struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	SourcePage *int   `json:"source_page,omitempty"`
	ChunkID    int    `json:"chunk_id"`
}

const (
	metaSource  = "source"
	metaPage    = "page"
	metaChunkID = "chunk_id"
)

// PassageMetadata flattens the typed passage fields into the string map the
// vector index stores next to each entry. A nil page produces no page key.
func PassageMetadata(p Passage) map[string]string {
	meta := map[string]string{
		metaSource:  p.Source,
		metaChunkID: strconv.Itoa(p.ChunkID),
	}
	if p.SourcePage != nil {
		meta[metaPage] = strconv.Itoa(*p.SourcePage)
	}
	return meta
}

// PassageFromMetadata rebuilds a passage from an index entry.
// Malformed numeric fields are treated as absent.
func PassageFromMetadata(id, text string, meta map[string]string) Passage {
	p := Passage{
		ID:     id,
		Text:   text,
		Source: meta[metaSource],
	}
	if v, ok := meta[metaPage]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.SourcePage = &n
		}
	}
	if n, err := strconv.Atoi(meta[metaChunkID]); err == nil {
		p.ChunkID = n
	}
	return p
}

// PageRef returns a pointer to n, or nil when n is not a valid 1-indexed page.
func PageRef(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
