package parser

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"pdf-rag/internal/models"
)

const (
	formatPDF  = "pdf"
	formatDOCX = "docx"
	formatXLSX = "xlsx"
	formatText = "text"

	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	paragraphEndRe = regexp.MustCompile(`</w:p>`)
	xmlTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// Load reads a single document and returns its text page by page.
// PDF pages keep their 1-indexed page number, spreadsheets get one page per
// sheet, and formats without pages yield a single page numbered 0.
// All failures wrap models.ErrLoad.
func Load(filePath string) ([]models.Page, error) {
	format, err := detectFormat(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLoad, err)
	}
	log.Debug().Str("file", filePath).Str("format", format).Msg("Loading document")

	var pages []models.Page
	switch format {
	case formatPDF:
		pages, err = parsePDF(filePath)
	case formatDOCX:
		pages, err = parseDOCX(filePath)
	case formatXLSX:
		pages, err = parseXLSX(filePath)
	default:
		pages, err = parseText(filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrLoad, filePath, err)
	}
	return pages, nil
}

func detectFormat(filePath string) (string, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	switch {
	case mtype.Is(mimePDF):
		return formatPDF, nil
	case mtype.Is(mimeDOCX) || ext == ".docx":
		return formatDOCX, nil
	case mtype.Is(mimeXLSX) || ext == ".xlsx":
		return formatXLSX, nil
	case strings.HasPrefix(mtype.String(), "text/") || ext == ".txt" || ext == ".md":
		return formatText, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", mtype.String())
	}
}

func parsePDF(filePath string) (pages []models.Page, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}
	return pages, nil
}

func parseDOCX(filePath string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// the editable content is the raw document XML
	content := r.Editable().GetContent()
	content = paragraphEndRe.ReplaceAllString(content, "\n")
	content = html.UnescapeString(xmlTagRe.ReplaceAllString(content, ""))

	var paragraphs []string
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(p))
		}
	}
	// DOCX has no page numbers
	return []models.Page{{Text: strings.Join(paragraphs, "\n\n")}}, nil
}

func parseXLSX(filePath string) ([]models.Page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func parseText(filePath string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []models.Page{{Text: string(data)}}, nil
}
