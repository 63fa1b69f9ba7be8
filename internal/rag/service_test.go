package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

// keywordEmbedder maps text onto three axes: goals, solutions, anything else.
type keywordEmbedder struct{}

func (keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "mục tiêu"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "giải pháp"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (e keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

type countingModel struct {
	calls int
	reply string
}

func (m *countingModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *countingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newTestService(t *testing.T, model llms.Model) *Service {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "vectors.db")
	cfg.Ingest.DumpDir = filepath.Join(dir, "data")
	cfg.Ingest.AllowedExtensions = []string{".pdf", ".docx", ".txt"}
	cfg.EmbedLLM.Dimension = 3

	store, err := db.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := db.InitDB(context.Background(), store); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewService(store, keywordEmbedder{}, llmservice.NewClientWithModel(model, &cfg.LLM), cfg)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleText = "I. MỤC TIÊU CHUNG\nMục tiêu là ABC.\nII. GIẢI PHÁP\nGiải pháp là XYZ.\n"

func TestIngestAndAsk(t *testing.T) {
	ctx := context.Background()
	model := &countingModel{reply: "Mục tiêu là ABC [1]"}
	svc := newTestService(t, model)

	n, err := svc.Ingest(ctx, writeFile(t, "ke-hoach.txt", sampleText), "kế hoạch")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 2 {
		t.Fatalf("ingested %d records, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(svc.cfg.Ingest.DumpDir, "ke-hoach.json")); err != nil {
		t.Fatalf("dump not written: %v", err)
	}

	answer, err := svc.Ask(ctx, "  Mục tiêu là gì?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Question != "Mục tiêu là gì?" {
		t.Fatalf("question = %q", answer.Question)
	}
	if len(answer.Context) != 1 || answer.Context[0] != "Mục tiêu là ABC." {
		t.Fatalf("context = %q", answer.Context)
	}
	if answer.Content != "Mục tiêu là ABC [1]" || model.calls != 1 {
		t.Fatalf("answer = %q, llm calls = %d", answer.Content, model.calls)
	}
	if answer.RelatedQuestions != nil {
		t.Fatalf("related questions not requested, got %q", answer.RelatedQuestions)
	}

	docs, err := svc.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 || docs[0] != (models.FileStats{File: "ke-hoach.txt", Chunks: 2}) {
		t.Fatalf("documents = %+v", docs)
	}
}

func TestAskNoMatchSkipsLLM(t *testing.T) {
	ctx := context.Background()
	model := &countingModel{reply: "unused"}
	svc := newTestService(t, model)

	// empty table
	answer, err := svc.Ask(ctx, "Mục tiêu là gì?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !IsNoContent(answer.Context) || answer.Content != models.NoMatchAnswer {
		t.Fatalf("answer = %+v", answer)
	}

	if _, err := svc.Ingest(ctx, writeFile(t, "a.txt", sampleText), ""); err != nil {
		t.Fatal(err)
	}
	answer, err = svc.Ask(ctx, "Thời tiết hôm nay?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !IsNoContent(answer.Context) || answer.Content != models.NoMatchAnswer {
		t.Fatalf("answer = %+v", answer)
	}
	if model.calls != 0 {
		t.Fatalf("llm called %d times", model.calls)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := newTestService(t, &countingModel{})
	if _, err := svc.Ask(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
}

func TestAskWithRelatedQuestions(t *testing.T) {
	ctx := context.Background()
	model := &countingModel{reply: "Câu hỏi liên quan thứ nhất?"}
	svc := newTestService(t, model)
	svc.cfg.LLM.RelatedOnAsk = true

	if _, err := svc.Ingest(ctx, writeFile(t, "a.txt", sampleText), ""); err != nil {
		t.Fatal(err)
	}
	answer, err := svc.Ask(ctx, "Giải pháp là gì?")
	if err != nil {
		t.Fatal(err)
	}
	if len(answer.RelatedQuestions) != 1 || model.calls != 2 {
		t.Fatalf("related = %q, calls = %d", answer.RelatedQuestions, model.calls)
	}
}

func TestIngestUnsupportedWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &countingModel{})

	_, err := svc.Ingest(ctx, writeFile(t, "notes.odt", "x"), "")
	if !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	n, err := svc.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	if _, err := os.Stat(svc.cfg.Ingest.DumpDir); !os.IsNotExist(err) {
		t.Fatalf("dump dir should not exist, stat err = %v", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &countingModel{})
	if _, err := svc.Ingest(ctx, writeFile(t, "a.txt", sampleText), ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	n, err := svc.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count after reset = %d", n)
	}
}
