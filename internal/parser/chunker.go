package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"document-qa/internal/models"
)

const defaultChunkSize = 800 // characters

var (
	paragraphBreakRe = regexp.MustCompile(`\n[\s\p{Zs}]*\n`)
	sentenceEndRe    = regexp.MustCompile(models.SentenceEndRegex)
)

// CleanText normalises extracted text: line endings become \n, any run of
// two or more line breaks becomes a single paragraph break, and all other
// whitespace runs (including single line breaks) become one space.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	for _, p := range paragraphBreakRe.Split(text, -1) {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// SplitSentences splits text after '.', '?' or '!' followed by whitespace.
// The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkText cleans text and packs it into chunks of at most maxChars
// characters. Paragraphs are the packing unit when the text has paragraph
// breaks, sentences otherwise. A single unit longer than maxChars becomes a
// chunk of its own and is not split.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = defaultChunkSize
	}
	text = CleanText(text)
	if text == "" {
		return nil
	}

	var units []string
	if strings.Contains(text, "\n\n") {
		units = strings.Split(text, "\n\n")
	} else {
		units = SplitSentences(text)
	}

	var chunks []string
	buffer := ""
	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		if utf8.RuneCountInString(buffer)+utf8.RuneCountInString(unit) <= maxChars {
			buffer += " " + unit
			continue
		}
		if flushed := strings.TrimSpace(buffer); flushed != "" {
			chunks = append(chunks, flushed)
		}
		buffer = unit
	}
	if flushed := strings.TrimSpace(buffer); flushed != "" {
		chunks = append(chunks, flushed)
	}
	return chunks
}
