package parser

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// separators are tried in order: paragraph, line, word, then a hard cut
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits page text into overlapping passages of at most chunkSize runes.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewChunker creates a chunker. An overlap that is negative or not smaller
// than the chunk size is clamped.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(separators),
		),
	}
}

// Split chunks every page of source. Each passage keeps the page it came
// from and a 1-based chunk id within that page; blank pages produce nothing.
func (c *Chunker) Split(source string, pages []models.Page) ([]models.Passage, error) {
	var passages []models.Passage
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		chunks, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}
		chunkID := 0
		for _, chunk := range chunks {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			chunkID++
			passages = append(passages, models.Passage{
				ID:         helper.PassageID(source, page.Number, chunkID),
				Text:       chunk,
				Source:     source,
				SourcePage: models.PageRef(page.Number),
				ChunkID:    chunkID,
			})
		}
	}
	return passages, nil
}
