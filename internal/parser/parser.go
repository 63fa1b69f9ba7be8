package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"document-qa/internal/config"
	"document-qa/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions the parser does not
// read or the configuration does not allow.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type Parser interface {
	ParseDocument(filePath string) ([]models.Record, error)
}

type ParserConfig struct {
	Config *config.Config
}

// New returns a parser bound to cfg. A nil cfg uses the defaults.
func New(cfg *config.Config) *ParserConfig {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ParserConfig{Config: cfg}
}

// ParseDocument extracts chunk records from a PDF, DOCX, XLSX or plain text
// file, depending on its extension.
func ParseDocument(filePath string, cfg *config.Config) ([]models.Record, error) {
	return New(cfg).ParseDocument(filePath)
}

func (p *ParserConfig) ParseDocument(filePath string) ([]models.Record, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !p.Config.Ingest.Allowed(ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	switch ext {
	case ".pdf":
		return p.parsePDF(filePath)
	case ".docx":
		return p.parseDOCX(filePath)
	case ".xlsx":
		return p.parseXLSX(filePath)
	case ".txt":
		return p.parseText(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// CheckExtension reports ErrUnsupportedFormat for a file name the parser
// would refuse, without touching the file.
func (p *ParserConfig) CheckExtension(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !p.Config.Ingest.Allowed(ext) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	switch ext {
	case ".pdf", ".docx", ".xlsx", ".txt":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

func (p *ParserConfig) parsePDF(filePath string) ([]models.Record, error) {
	text, err := extractPDFText(filePath)
	if err != nil {
		return nil, err
	}
	return ExtractSections(text, p.Config.RAG.ChunkSize), nil
}

func extractPDFText(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, pageText)
		}
	}
	log.Debug().Str("file", filePath).Int("pages", numPages).Msg("Extracted pdf text")
	return strings.Join(pages, "\n"), nil
}

// DOCX documents are chunked as a single section named after the file, with
// every table added as a described pseudo-chunk.
func (p *ParserConfig) parseDOCX(filePath string) ([]models.Record, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	body, err := parseDocumentXML(r.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("read docx body: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	records := chunkRecords(stem, strings.Join(body.Paragraphs, "\n\n"), p.Config.RAG.ChunkSize)
	for i, table := range body.Tables {
		desc := DescribeTable(table, p.Config.Ingest.TableSuffix())
		if desc == "" {
			continue
		}
		records = append(records, models.Record{
			Section: fmt.Sprintf(models.TableSection, i+1),
			Type:    models.TypeTable,
			Content: desc,
		})
	}
	return records, nil
}

func (p *ParserConfig) parseXLSX(filePath string) ([]models.Record, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var records []models.Record
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		desc := DescribeTable(rows, p.Config.Ingest.TableSuffix())
		if desc == "" {
			continue
		}
		records = append(records, models.Record{
			Section: sheetName,
			Type:    models.TypeTable,
			Content: desc,
		})
	}
	return records, nil
}

func (p *ParserConfig) parseText(filePath string) ([]models.Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ExtractSections(string(data), p.Config.RAG.ChunkSize), nil
}

// chunkRecords chunks body and labels every piece with section and a
// 1-based subsection number.
func chunkRecords(section, body string, maxChars int) []models.Record {
	var records []models.Record
	for i, chunk := range ChunkText(body, maxChars) {
		records = append(records, models.Record{
			Section:    section,
			Subsection: fmt.Sprintf(models.SubsectionLabel, i+1),
			Type:       models.TypeText,
			Content:    chunk,
		})
	}
	return records
}
