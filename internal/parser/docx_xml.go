package parser

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type documentBody struct {
	Paragraphs []string
	Tables     [][][]string
}

// parseDocumentXML walks word/document.xml and returns the top-level
// paragraphs and tables in document order. Text of nested tables is folded
// into the enclosing cell.
func parseDocumentXML(content string) (documentBody, error) {
	var (
		body      documentBody
		dec       = xml.NewDecoder(strings.NewReader(content))
		para      strings.Builder
		cell      []string
		row       []string
		table     [][]string
		tblDepth  int
		inText    bool
		paraStart bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return body, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					table = nil
				}
			case "tr":
				if tblDepth == 1 {
					row = nil
				}
			case "tc":
				if tblDepth == 1 {
					cell = nil
				}
			case "p":
				para.Reset()
				paraStart = true
			case "t":
				inText = true
			case "tab", "br":
				if paraStart {
					para.WriteString(" ")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				paraStart = false
				if text == "" {
					continue
				}
				if tblDepth > 0 {
					cell = append(cell, text)
				} else {
					body.Paragraphs = append(body.Paragraphs, text)
				}
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.Join(cell, " "))
				}
			case "tr":
				if tblDepth == 1 {
					table = append(table, row)
				}
			case "tbl":
				if tblDepth == 1 && len(table) > 0 {
					body.Tables = append(body.Tables, table)
				}
				tblDepth--
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return body, nil
}
