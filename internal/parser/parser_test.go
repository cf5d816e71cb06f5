package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"pdf-rag/internal/models"
)

func longParagraph(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%03d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunker_SizeAndOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	passages, err := c.Split("doc.pdf", []models.Page{{Number: 1, Text: longParagraph(300)}})
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) < 2 {
		t.Fatalf("expected several passages, got %d", len(passages))
	}
	for i, p := range passages {
		if n := utf8.RuneCountInString(p.Text); n > 100 {
			t.Errorf("passage %d has %d runes, limit 100", i, n)
		}
		if p.SourcePage == nil || *p.SourcePage != 1 {
			t.Errorf("passage %d page: %v", i, p.SourcePage)
		}
		if p.ChunkID != i+1 {
			t.Errorf("passage %d chunk id: %d", i, p.ChunkID)
		}
	}
	for i := 1; i < len(passages); i++ {
		first := strings.Fields(passages[i].Text)[0]
		if !strings.Contains(passages[i-1].Text, first) {
			t.Errorf("passage %d should start inside the overlap of passage %d (%q)", i, i-1, first)
		}
	}
}

func TestChunker_PageProvenance(t *testing.T) {
	c := NewChunker(1000, 200)
	pages := []models.Page{
		{Number: 1, Text: "first page"},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "third page"},
	}
	passages, err := c.Split("doc.pdf", pages)
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if *passages[0].SourcePage != 1 || *passages[1].SourcePage != 3 {
		t.Errorf("pages: %d, %d", *passages[0].SourcePage, *passages[1].SourcePage)
	}
	if passages[0].ID == passages[1].ID {
		t.Error("passage ids should differ")
	}
}

func TestChunker_UnknownPage(t *testing.T) {
	c := NewChunker(50, 10)
	passages, err := c.Split("notes.txt", []models.Page{{Text: "no pages here"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) != 1 || passages[0].SourcePage != nil {
		t.Errorf("expected one passage without page, got %+v", passages)
	}
}

func TestChunker_HardCut(t *testing.T) {
	c := NewChunker(10, 2)
	passages, err := c.Split("x", []models.Page{{Number: 1, Text: strings.Repeat("a", 45)}})
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) < 5 {
		t.Errorf("expected hard cuts, got %d passages", len(passages))
	}
	for _, p := range passages {
		if utf8.RuneCountInString(p.Text) > 10 {
			t.Errorf("passage too long: %q", p.Text)
		}
	}
}

func TestNewChunker_clampsOverlap(t *testing.T) {
	c := NewChunker(10, 50)
	if c.chunkOverlap != 5 {
		t.Errorf("overlap: got %d, want 5", c.chunkOverlap)
	}
}

func TestLoad_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0600); err != nil {
		t.Fatal(err)
	}
	pages, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Text != "hello world" || pages[0].Number != 0 {
		t.Errorf("unexpected pages: %+v", pages)
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "price"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "B1", 42); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	pages, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
	if !strings.Contains(pages[0].Text, "price\t42") {
		t.Errorf("sheet text: %q", pages[0].Text)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, models.ErrLoad) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestLoad_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if err := os.WriteFile(path, png, 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, models.ErrLoad) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestLoad_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, models.ErrLoad) {
		t.Errorf("expected load error, got %v", err)
	}
}
