package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// Embedder is the subset of langchaingo's embedder used by the pipeline.
type Embedder = embeddings.Embedder

// NewEmbedder builds the embedder selected by cfg.Provider ("ollama" or
// "openai").
func NewEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// NewOllamaEmbedder embeds through an Ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
}

// NewOpenAIEmbedder embeds through an OpenAI-compatible /v1/embeddings API.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating openai embedder")

	opts := []openai.Option{
		openai.WithToken(tokenOrPlaceholder(cfg.Key)),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}
	return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
}

// local servers ignore the key but the client refuses to start without one
func tokenOrPlaceholder(key string) string {
	key = strings.TrimPrefix(key, "Bearer ")
	if key == "" {
		return "local"
	}
	return key
}

// GenerateEmbedding embeds the records of one file in batches of batchSize
// and hands every embedded batch to store before embedding the next one.
// When dimension > 0 every vector must have exactly that length. Chunks of
// batches stored before a failure stay stored.
func GenerateEmbedding(ctx context.Context, embedder Embedder, filename, category string, records []models.Record, batchSize, dimension int, store func([]models.Chunk) error) (int, error) {
	if len(records) == 0 {
		log.Info().Str("file", filename).Msg("No chunks generated from content")
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = len(records)
	}

	stored := 0
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Content
		}
		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("embed chunks %d-%d: %w", start+1, end, err)
		}
		if len(vectors) != len(batch) {
			return stored, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts", start+1, end, len(vectors), len(batch))
		}

		chunks := make([]models.Chunk, len(batch))
		for i, r := range batch {
			if dimension > 0 && len(vectors[i]) != dimension {
				return stored, fmt.Errorf("chunk %d: %w: got %d, want %d", start+i+1, ErrDimensionMismatch, len(vectors[i]), dimension)
			}
			chunks[i] = models.Chunk{
				File:       filename,
				Category:   category,
				Section:    r.Section,
				Subsection: r.Subsection,
				Type:       r.Type,
				Content:    r.Content,
				Vector:     vectors[i],
			}
		}
		if err := store(chunks); err != nil {
			return stored, err
		}
		stored += len(chunks)
		log.Debug().Str("file", filename).Int("stored", stored).Int("total", len(records)).Msg("Stored embedding batch")
	}
	return stored, nil
}

// EmbedQuestion embeds a single query string.
func EmbedQuestion(ctx context.Context, embedder Embedder, question string) ([]float32, error) {
	vec, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("embed question: empty vector")
	}
	return vec, nil
}
