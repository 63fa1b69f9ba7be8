package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"document-qa/internal/models"
)

const defaultContextMaxChars = 3000

// BuildPrompt numbers the context chunks as "[i] chunk" and stops before the
// first entry that would push the context past maxChars characters.
func BuildPrompt(chunks []string, question string, maxChars int) models.Prompt {
	if maxChars <= 0 {
		maxChars = defaultContextMaxChars
	}

	var context strings.Builder
	total := 0
	for i, chunk := range chunks {
		entry := fmt.Sprintf("[%d] %s\n\n", i+1, strings.TrimSpace(chunk))
		n := utf8.RuneCountInString(entry)
		if total+n > maxChars {
			break
		}
		context.WriteString(entry)
		total += n
	}

	return models.Prompt{
		System: models.SystemInstruction,
		User:   fmt.Sprintf(models.UserPromptTemplate, context.String(), question),
	}
}
