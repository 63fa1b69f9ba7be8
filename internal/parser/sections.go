package parser

import (
	"regexp"
	"strings"

	"document-qa/internal/models"
)

var (
	romanHeadingRe   = regexp.MustCompile(models.RomanHeadingRegex)
	keywordHeadingRe = regexp.MustCompile(models.KeywordHeadingRegex)
)

type sectionState struct {
	title    string
	lines    []string
	found    bool
	records  []models.Record
	maxChars int
}

// ExtractSections splits text on Roman-numeral and keyword headings
// ("I. MỤC TIÊU", "Chương II", "Điều 5.") and chunks each section body.
// Text ahead of the first heading is kept under the preamble section. When no
// heading is found the document is chunked as a single section.
func ExtractSections(text string, maxChars int) []models.Record {
	state := sectionState{title: models.PreambleSection, maxChars: maxChars}

	for _, line := range strings.Split(text, "\n") {
		if title, ok := headingTitle(line); ok {
			state.flush()
			state.found = true
			state.title = title
			continue
		}
		state.lines = append(state.lines, line)
	}

	if !state.found {
		return chunkRecords(models.WholeDocumentSection, text, maxChars)
	}
	state.flush()
	return state.records
}

// IsHeading reports whether line looks like a section heading.
func IsHeading(line string) bool {
	_, ok := headingTitle(line)
	return ok
}

func headingTitle(line string) (string, bool) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return "", false
	}
	if romanHeadingRe.MatchString(line) || keywordHeadingRe.MatchString(line) {
		return line, true
	}
	return "", false
}

// flush chunks the collected body lines under the current title.
func (s *sectionState) flush() {
	body := strings.Join(s.lines, "\n")
	s.lines = nil
	s.records = append(s.records, chunkRecords(s.title, body, s.maxChars)...)
}
