package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// QAService is what the HTTP layer needs from the pipeline.
type QAService interface {
	Ask(ctx context.Context, question string) (*models.Answer, error)
	RelatedQuestions(ctx context.Context, question string) []string
	CheckFile(name string) error
	Ingest(ctx context.Context, filePath, category string) (int, error)
	Documents(ctx context.Context) ([]models.FileStats, error)
}

type Server struct {
	svc QAService
	cfg config.ServerConfig
	md  goldmark.Markdown
}

func New(svc QAService, cfg config.ServerConfig) *Server {
	return &Server{
		svc: svc,
		cfg: cfg,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Handler returns the routes wrapped in the request-id, logging and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /related_questions", s.handleRelated)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleStatic)

	return requestIDMiddleware(loggingMiddleware(corsMiddleware(s.cfg.CORSOrigin, mux)))
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().Str("addr", s.cfg.Addr).Str("static_dir", s.cfg.StaticDir).Msg("Server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// renderMarkdown converts an answer to HTML. Raw HTML in the answer is
// not passed through.
func (s *Server) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Msg("Error rendering answer markdown")
		return ""
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
