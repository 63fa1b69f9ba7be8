package rag

import (
	"errors"
	"testing"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

func chunk(id int64, content string, v ...float32) models.Chunk {
	return models.Chunk{ID: id, Content: content, Vector: v}
}

func TestRankOrdersBySimilarity(t *testing.T) {
	chunks := []models.Chunk{
		chunk(1, "far", 0, 1),
		chunk(2, "near", 1, 0.1),
		chunk(3, "exact", 1, 0),
		chunk(4, "tie-exact", 2, 0),
	}
	ranked, err := Rank([]float32{1, 0}, chunks)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	got := make([]string, len(ranked))
	for i, r := range ranked {
		got[i] = r.Content
	}
	want := []string{"exact", "tie-exact", "near", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Similarity > ranked[i-1].Similarity {
			t.Fatalf("not sorted descending: %v", ranked)
		}
	}
}

func TestRankSkipsBadVectors(t *testing.T) {
	chunks := []models.Chunk{
		chunk(1, "zero", 0, 0),
		chunk(2, "short", 1),
		chunk(3, "ok", 1, 1),
	}
	ranked, err := Rank([]float32{1, 0}, chunks)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Content != "ok" {
		t.Fatalf("ranked = %+v", ranked)
	}
}

func TestRankZeroQuery(t *testing.T) {
	_, err := Rank([]float32{0, 0}, []models.Chunk{chunk(1, "a", 1, 0)})
	if !errors.Is(err, embedding.ErrZeroVector) {
		t.Fatalf("err = %v, want ErrZeroVector", err)
	}
}

func TestTopMatches(t *testing.T) {
	ranked := []models.ScoredChunk{
		{Chunk: chunk(1, "a"), Similarity: 0.9},
		{Chunk: chunk(2, "b"), Similarity: 0.5},
		{Chunk: chunk(3, "c"), Similarity: 0.05},
		{Chunk: chunk(4, "d"), Similarity: 0.01},
	}
	if got := TopMatches(ranked, 2, 0.05); len(got) != 2 || got[1].Content != "b" {
		t.Fatalf("top 2 = %+v", got)
	}
	// threshold is strict
	if got := TopMatches(ranked, 12, 0.05); len(got) != 2 {
		t.Fatalf("thresholded = %+v", got)
	}
	if got := TopMatches(nil, 12, 0.05); len(got) != 0 {
		t.Fatalf("empty = %+v", got)
	}
}

func TestContextTextsSentinel(t *testing.T) {
	ctx := ContextTexts(nil)
	if !IsNoContent(ctx) || ctx[0] != "[!] Không có đoạn tài liệu nào gần với câu hỏi." {
		t.Fatalf("context = %q", ctx)
	}
	ctx = ContextTexts([]models.ScoredChunk{{Chunk: chunk(1, "nội dung")}})
	if IsNoContent(ctx) || len(ctx) != 1 || ctx[0] != "nội dung" {
		t.Fatalf("context = %q", ctx)
	}
}
