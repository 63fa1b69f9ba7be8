package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"document-qa/internal/models"

	"github.com/tealeg/xlsx"
)

// WriteDump writes the records of one ingested file to dir/<stem>.json or
// dir/<stem>.xlsx for inspection and returns the path written.
func WriteDump(dir, stem, format string, records []models.Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dump dir: %w", err)
	}

	switch format {
	case "", "json":
		path := filepath.Join(dir, stem+".json")
		return path, writeJSONDump(path, records)
	case "xlsx":
		path := filepath.Join(dir, stem+".xlsx")
		return path, writeXLSXDump(path, records)
	default:
		return "", fmt.Errorf("unknown dump format: %s", format)
	}
}

func writeJSONDump(path string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeXLSXDump(path string, records []models.Record) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("chunks")
	if err != nil {
		return err
	}
	addRow(sheet, "section", "subsection", "type", "content")
	for _, r := range records {
		addRow(sheet, r.Section, r.Subsection, r.Type, r.Content)
	}
	return file.Save(path)
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
