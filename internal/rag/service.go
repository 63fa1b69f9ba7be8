package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

var ErrEmptyQuestion = errors.New("empty question")

// Service ties extraction, storage, retrieval and generation together. One
// Service is built at start-up and shared by the HTTP handlers and commands.
type Service struct {
	db       *bun.DB
	embedder embedding.Embedder
	llm      *llmservice.Client
	parser   *parser.ParserConfig
	cfg      *config.Config
}

func NewService(db *bun.DB, embedder embedding.Embedder, llm *llmservice.Client, cfg *config.Config) *Service {
	return &Service{
		db:       db,
		embedder: embedder,
		llm:      llm,
		parser:   parser.New(cfg),
		cfg:      cfg,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

// CheckFile reports parser.ErrUnsupportedFormat for a file name that
// Ingest would refuse.
func (s *Service) CheckFile(name string) error {
	return s.parser.CheckExtension(name)
}

// Ingest extracts filePath into chunk records, writes the debug dump, then
// embeds and stores the records batch by batch. It returns the number of
// records processed. Batches stored before a failure are kept.
func (s *Service) Ingest(ctx context.Context, filePath, category string) (int, error) {
	if err := s.CheckFile(filePath); err != nil {
		return 0, err
	}

	records, err := s.parser.ParseDocument(filePath)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", filepath.Base(filePath), err)
	}

	name := filepath.Base(filePath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	dump, err := parser.WriteDump(s.cfg.Ingest.DumpDir, stem, s.cfg.Ingest.DumpFormat, records)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Could not write chunk dump")
	} else {
		log.Debug().Str("dump", dump).Int("records", len(records)).Msg("Wrote chunk dump")
	}

	store := func(chunks []models.Chunk) error {
		return db.StoreChunks(ctx, s.db, chunks)
	}
	n, err := embedding.GenerateEmbedding(ctx, s.embedder, name, category, records, s.cfg.EmbedLLM.BatchSize, s.cfg.EmbedLLM.Dimension, store)
	if err != nil {
		return n, fmt.Errorf("embed %s: %w", name, err)
	}
	log.Info().Str("file", name).Int("chunks", n).Msg("Ingested document")
	return n, nil
}

// Search returns the stored chunks that match question, best first.
func (s *Service) Search(ctx context.Context, question string) ([]models.ScoredChunk, error) {
	chunks, err := db.ListChunks(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return Search(ctx, s.embedder, chunks, question, s.cfg.RAG.TopK, s.cfg.RAG.Threshold())
}

// RetrieveContext returns the matching chunk texts for question, or the
// no-content sentinel when nothing clears the similarity threshold.
func (s *Service) RetrieveContext(ctx context.Context, question string) ([]string, error) {
	matches, err := s.Search(ctx, question)
	if err != nil {
		return nil, err
	}
	return ContextTexts(matches), nil
}

// Ask answers question from the stored chunks. The chat model is not called
// when retrieval finds nothing.
func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	contextChunks, err := s.RetrieveContext(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	answer := &models.Answer{Question: question, Context: contextChunks}
	if IsNoContent(contextChunks) {
		answer.Content = models.NoMatchAnswer
	} else {
		prompt := BuildPrompt(contextChunks, question, s.cfg.RAG.ContextMaxChars)
		answer.Content = s.llm.Complete(ctx, prompt)
	}

	if s.cfg.LLM.RelatedOnAsk {
		answer.RelatedQuestions = s.llm.RelatedQuestions(ctx, question)
	}
	return answer, nil
}

func (s *Service) RelatedQuestions(ctx context.Context, question string) []string {
	question = strings.TrimSpace(question)
	if question == "" {
		return []string{}
	}
	return s.llm.RelatedQuestions(ctx, question)
}

func (s *Service) Documents(ctx context.Context) ([]models.FileStats, error) {
	return db.CountByFile(ctx, s.db)
}

func (s *Service) Chunks(ctx context.Context) ([]models.Chunk, error) {
	return db.ListChunks(ctx, s.db)
}

func (s *Service) CountChunks(ctx context.Context) (int, error) {
	return db.CountChunks(ctx, s.db)
}

// Reset drops and recreates the chunk table.
func (s *Service) Reset(ctx context.Context) error {
	if err := db.DropChunks(ctx, s.db); err != nil {
		return err
	}
	return db.InitDB(ctx, s.db)
}
