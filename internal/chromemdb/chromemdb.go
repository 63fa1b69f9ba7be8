package chromemdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

// VectorDBManager holds an in-memory chromem database used to write and
// read chunk snapshots.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	cfg        config.SnapshotConfig
}

func NewVectorDBManager(cfg config.SnapshotConfig) (*VectorDBManager, error) {
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	return &VectorDBManager{db: chromem.NewDB(), cfg: cfg}, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// AddChunks adds chunks with their stored vectors. Chunks with an empty or
// zero-norm vector are skipped. It returns the number added.
func (m *VectorDBManager) AddChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	if m.collection == nil {
		if _, err := m.GetOrCreateCollection(); err != nil {
			return 0, err
		}
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if embedding.Norm(c.Vector) == 0 {
			log.Warn().Int64("id", c.ID).Str("file", c.File).Msg("Skipping chunk with zero vector")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.FormatInt(c.ID, 10),
			Content:   c.Content,
			Metadata:  metadata(c),
			Embedding: c.Vector,
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return len(docs), nil
}

func metadata(c models.Chunk) map[string]string {
	md := map[string]string{
		"file": c.File,
		"type": c.Type,
	}
	if c.Category != "" {
		md["category"] = c.Category
	}
	if c.Section != "" {
		md["section"] = c.Section
	}
	if c.Subsection != "" {
		md["subsection"] = c.Subsection
	}
	return md
}

// Export writes the collection to the configured snapshot file.
func (m *VectorDBManager) Export() error {
	if m.collection == nil {
		return fmt.Errorf("collection is required")
	}
	if dir := filepath.Dir(m.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("path", m.cfg.Path).
		Bool("compress", m.cfg.Compress).
		Bool("encrypted", m.cfg.EncryptionKey != "").
		Msg("Exporting snapshot")
	if err := m.db.ExportToFile(m.cfg.Path, m.cfg.Compress, m.cfg.EncryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads the configured snapshot file into the manager.
func (m *VectorDBManager) Import() error {
	if err := m.db.ImportFromFile(m.cfg.Path, m.cfg.EncryptionKey, m.cfg.Collection); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	m.collection = m.db.GetCollection(m.cfg.Collection, nil)
	if m.collection == nil {
		return fmt.Errorf("collection %q not found in %s", m.cfg.Collection, m.cfg.Path)
	}
	return nil
}

func (m *VectorDBManager) Count() int {
	if m.collection == nil {
		return 0
	}
	return m.collection.Count()
}

// Export writes chunks to a chromem snapshot file and returns the number of
// documents written.
func Export(ctx context.Context, chunks []models.Chunk, cfg config.SnapshotConfig) (int, error) {
	m, err := NewVectorDBManager(cfg)
	if err != nil {
		return 0, err
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return 0, err
	}
	n, err := m.AddChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}
	if err := m.Export(); err != nil {
		return 0, err
	}
	log.Info().Str("path", cfg.Path).Int("documents", n).Msg("Exported snapshot")
	return n, nil
}

// Import reads a snapshot file and returns its document count.
func Import(cfg config.SnapshotConfig) (int, error) {
	m, err := NewVectorDBManager(cfg)
	if err != nil {
		return 0, err
	}
	if err := m.Import(); err != nil {
		return 0, err
	}
	return m.Count(), nil
}
