package models

// Content types of a chunk record.
const (
	TypeText  = "text"
	TypeTable = "table"
)

// Record is a chunk produced by the parser, before it is embedded.
type Record struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

// Chunk is a stored chunk record with its embedding.
type Chunk struct {
	ID         int64
	File       string
	Category   string
	Section    string
	Subsection string
	Type       string
	Content    string
	Vector     []float32
}

// ScoredChunk is a chunk ranked against a query vector.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// FileStats summarises the stored chunks of one ingested file.
type FileStats struct {
	File   string `json:"file" bun:"file"`
	Chunks int    `json:"chunks" bun:"chunks"`
}

// Prompt is the system/user message pair sent to the chat model.
type Prompt struct {
	System string
	User   string
}

// Answer is the outcome of one question.
type Answer struct {
	Question         string
	Context          []string
	Content          string
	RelatedQuestions []string
}
