package rag

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

// Rank scores every chunk against query by cosine similarity, best first.
// Chunks with a zero-norm vector or a different dimension are left out. A
// zero-norm query returns embedding.ErrZeroVector.
func Rank(query []float32, chunks []models.Chunk) ([]models.ScoredChunk, error) {
	if embedding.Norm(query) == 0 {
		return nil, embedding.ErrZeroVector
	}

	var zero, mismatched int
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		sim, err := embedding.Similarity(query, c.Vector)
		switch {
		case errors.Is(err, embedding.ErrZeroVector):
			zero++
			continue
		case errors.Is(err, embedding.ErrDimensionMismatch):
			mismatched++
			log.Debug().Int64("id", c.ID).Int("dimension", len(c.Vector)).Int("query_dimension", len(query)).Msg("Skipping chunk")
			continue
		}
		scored = append(scored, models.ScoredChunk{Chunk: c, Similarity: sim})
	}
	if zero > 0 || mismatched > 0 {
		log.Warn().Int("zero_vectors", zero).Int("dimension_mismatch", mismatched).Msg("Skipped chunks during ranking")
	}

	slices.SortStableFunc(scored, func(a, b models.ScoredChunk) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return scored, nil
}

// TopMatches keeps the first topK ranked chunks and, of those, the ones
// whose similarity is strictly above minSimilarity.
func TopMatches(ranked []models.ScoredChunk, topK int, minSimilarity float64) []models.ScoredChunk {
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	matches := make([]models.ScoredChunk, 0, len(ranked))
	for _, r := range ranked {
		if r.Similarity > minSimilarity {
			matches = append(matches, r)
		}
	}
	return matches
}

// ContextTexts returns the chunk contents of matches, or the single
// no-content sentinel when matches is empty.
func ContextTexts(matches []models.ScoredChunk) []string {
	if len(matches) == 0 {
		return []string{models.NoRelevantContent}
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Content
	}
	return texts
}

// IsNoContent reports whether contextChunks is the no-content sentinel.
func IsNoContent(contextChunks []string) bool {
	return len(contextChunks) == 1 && contextChunks[0] == models.NoRelevantContent
}

// Search embeds question and ranks it against chunks.
func Search(ctx context.Context, embedder embedding.Embedder, chunks []models.Chunk, question string, topK int, minSimilarity float64) ([]models.ScoredChunk, error) {
	query, err := embedding.EmbedQuestion(ctx, embedder, question)
	if err != nil {
		return nil, err
	}
	ranked, err := Rank(query, chunks)
	if err != nil {
		return nil, err
	}
	return TopMatches(ranked, topK, minSimilarity), nil
}
