package parser

import (
	"fmt"
	"strings"

	"document-qa/internal/models"
)

// DescribeTable turns a table into one natural-language line per data row:
// "<subject>: <header>: <value><suffix>, ...". The first row is the header
// and the first column the row subject. Tables with fewer than two rows
// yield "".
func DescribeTable(rows [][]string, suffix string) string {
	if len(rows) < 2 {
		return ""
	}

	header := cleanCells(rows[0])
	var lines []string
	for _, raw := range rows[1:] {
		row := cleanCells(raw)
		if isEmptyRow(row) {
			continue
		}
		subject := row[0]
		if subject == "" {
			subject = models.TableEmptySubject
		}
		var desc []string
		for i := 1; i < len(header); i++ {
			if i >= len(row) || row[i] == "" {
				continue
			}
			desc = append(desc, fmt.Sprintf("%s: %s%s", strings.ToLower(header[i]), row[i], suffix))
		}
		lines = append(lines, subject+": "+strings.Join(desc, ", "))
	}
	return strings.Join(lines, " ")
}

func cleanCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.Join(strings.Fields(c), " ")
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
