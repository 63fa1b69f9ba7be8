package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      ChatConfig     `yaml:"llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	StaticDir   string `yaml:"static_dir"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	CORSOrigin  string `yaml:"cors_origin"`
}

// DatabaseConfig selects the chunk table backend. Dialect is "sqlite" or
// "postgres"; for postgres Driver is "pgdriver" or "pq".
type DatabaseConfig struct {
	Dialect  string `yaml:"dialect"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Driver   string `yaml:"driver"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// LLMConfig configures the embedding model endpoint.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
	Dimension int    `yaml:"dimension"`
}

// ChatConfig configures the chat-completion endpoint used for answers.
type ChatConfig struct {
	APIURL             string   `yaml:"api_url"`
	Key                string   `yaml:"key"`
	Model              string   `yaml:"model"`
	Temperature        *float64 `yaml:"temperature"`
	MaxTokens          int      `yaml:"max_tokens"`
	RelatedTemperature *float64 `yaml:"related_temperature"`
	RelatedMaxTokens   int      `yaml:"related_max_tokens"`
	RelatedOnAsk       bool     `yaml:"related_on_ask"`
}

type RAGConfig struct {
	ChunkSize       int      `yaml:"chunk_size"`
	TopK            int      `yaml:"top_k"`
	MinSimilarity   *float64 `yaml:"min_similarity"`
	ContextMaxChars int      `yaml:"context_max_chars"`
}

type IngestConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	DumpDir           string   `yaml:"dump_dir"`
	DumpFormat        string   `yaml:"dump_format"`
	TableValueSuffix  *string  `yaml:"table_value_suffix"`
	WatchDir          string   `yaml:"watch_dir"`
}

type SnapshotConfig struct {
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console *bool  `yaml:"console"`
}

const (
	DefaultLMAPIURL   = "http://127.0.0.1:1234/v1/chat/completions"
	defaultTableUnit  = " tiết"
	defaultEmbedModel = "all-minilm"

	defaultTemperature        = 0.2
	defaultRelatedTemperature = 0.6
	defaultMinSimilarity      = 0.05
)

// LoadConfig reads the YAML config at path. A missing file yields the
// defaults. A .env file in the working directory is loaded first so that
// environment overrides can live there.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LM_API_URL"); v != "" {
		cfg.LLM.APIURL = v
	}
	if v := os.Getenv("LM_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("EMBED_BASE_URL"); v != "" {
		cfg.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("DOCQA_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DOCQA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5678"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "frontend/build"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploaded"
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}

	cfg.Database.Dialect = strings.ToLower(cfg.Database.Dialect)
	if cfg.Database.Dialect == "" {
		cfg.Database.Dialect = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "db/vectors.db"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" && cfg.EmbedLLM.Provider == "ollama" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = defaultEmbedModel
	}
	if cfg.EmbedLLM.BatchSize <= 0 {
		cfg.EmbedLLM.BatchSize = 32
	}
	if cfg.EmbedLLM.Dimension == 0 {
		cfg.EmbedLLM.Dimension = 384
	}

	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = DefaultLMAPIURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.2-3b-instruct"
	}
	if cfg.LLM.Temperature == nil {
		cfg.LLM.Temperature = float64Ptr(defaultTemperature)
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 768
	}
	if cfg.LLM.RelatedTemperature == nil {
		cfg.LLM.RelatedTemperature = float64Ptr(defaultRelatedTemperature)
	}
	if cfg.LLM.RelatedMaxTokens <= 0 {
		cfg.LLM.RelatedMaxTokens = 256
	}

	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = 800
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 12
	}
	if cfg.RAG.MinSimilarity == nil {
		cfg.RAG.MinSimilarity = float64Ptr(defaultMinSimilarity)
	}
	if cfg.RAG.ContextMaxChars <= 0 {
		cfg.RAG.ContextMaxChars = 3000
	}

	if len(cfg.Ingest.AllowedExtensions) == 0 {
		cfg.Ingest.AllowedExtensions = []string{".pdf", ".docx"}
	}
	for i, ext := range cfg.Ingest.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Ingest.AllowedExtensions[i] = ext
	}
	if cfg.Ingest.DumpDir == "" {
		cfg.Ingest.DumpDir = "data"
	}
	if cfg.Ingest.DumpFormat == "" {
		cfg.Ingest.DumpFormat = "json"
	}
	if cfg.Ingest.TableValueSuffix == nil {
		unit := defaultTableUnit
		cfg.Ingest.TableValueSuffix = &unit
	}

	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "db/chunks.chromem"
	}
	if cfg.Snapshot.Collection == "" {
		cfg.Snapshot.Collection = "chunks"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Allowed reports whether ext (with leading dot, any case) may be ingested.
func (c IngestConfig) Allowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range c.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// TableSuffix returns the unit appended to described table values.
func (c IngestConfig) TableSuffix() string {
	if c.TableValueSuffix == nil {
		return defaultTableUnit
	}
	return *c.TableValueSuffix
}

// AnswerTemperature returns the sampling temperature for answers. An
// explicit 0 in the config is kept.
func (c ChatConfig) AnswerTemperature() float64 {
	return float64Or(c.Temperature, defaultTemperature)
}

func (c ChatConfig) RelatedQuestionTemperature() float64 {
	return float64Or(c.RelatedTemperature, defaultRelatedTemperature)
}

// Threshold returns the similarity a chunk must exceed to be used as context.
func (c RAGConfig) Threshold() float64 {
	return float64Or(c.MinSimilarity, defaultMinSimilarity)
}

func float64Ptr(v float64) *float64 {
	return &v
}

func float64Or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
