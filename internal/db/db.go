package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// ChunkRow is one stored chunk. Vector holds the embedding as little-endian
// float32 bytes.
type ChunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	File          string    `bun:"file,notnull"`
	Category      string    `bun:"category"`
	Section       string    `bun:"section"`
	Subsection    string    `bun:"subsection"`
	Type          string    `bun:"type,notnull"`
	Content       string    `bun:"content,notnull"`
	Vector        []byte    `bun:"vector,notnull"`
	Dimension     int       `bun:"dimension,notnull"`
	IngestedAt    time.Time `bun:"ingested_at,notnull"`
}

// Open connects to the configured database and wraps it in bun.
func Open(cfg *config.DatabaseConfig) (*bun.DB, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewDB(sqldb, cfg), nil
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Dialect {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sql.Open("sqlite", cfg.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	case "postgres":
		if cfg.Driver == "pq" {
			return sql.Open("postgres", cfg.DSN)
		}
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unknown database dialect: %s", cfg.Dialect)
	}
}

func NewDB(sqldb *sql.DB, cfg *config.DatabaseConfig) *bun.DB {
	var db *bun.DB
	if cfg.Dialect == "postgres" {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChunkRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

// StoreChunks inserts chunks in one statement. Every chunk must carry a
// vector.
func StoreChunks(ctx context.Context, db *bun.DB, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]ChunkRow, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("chunk %d of %s has no vector", i+1, c.File)
		}
		rows[i] = ChunkRow{
			File:       c.File,
			Category:   c.Category,
			Section:    c.Section,
			Subsection: c.Subsection,
			Type:       c.Type,
			Content:    c.Content,
			Vector:     EncodeVector(c.Vector),
			Dimension:  len(c.Vector),
			IngestedAt: now,
		}
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// ListChunks reads every stored chunk in insertion order. Rows whose vector
// blob cannot be decoded are skipped.
func ListChunks(ctx context.Context, db *bun.DB) ([]models.Chunk, error) {
	var rows []ChunkRow
	if err := db.NewSelect().Model(&rows).Order("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(rows))
	for _, r := range rows {
		vec, err := DecodeVector(r.Vector)
		if err != nil {
			log.Warn().Err(err).Int64("id", r.ID).Str("file", r.File).Msg("Skipping chunk with malformed vector")
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:         r.ID,
			File:       r.File,
			Category:   r.Category,
			Section:    r.Section,
			Subsection: r.Subsection,
			Type:       r.Type,
			Content:    r.Content,
			Vector:     vec,
		})
	}
	return chunks, nil
}

// CountByFile returns the number of stored chunks per file, ordered by file.
func CountByFile(ctx context.Context, db *bun.DB) ([]models.FileStats, error) {
	stats := []models.FileStats{}
	err := db.NewSelect().
		Model((*ChunkRow)(nil)).
		Column("file").
		ColumnExpr("COUNT(*) AS chunks").
		Group("file").
		Order("file").
		Scan(ctx, &stats)
	return stats, err
}

func CountChunks(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*ChunkRow)(nil)).Count(ctx)
}

// DropChunks drops the chunks table if it exists.
func DropChunks(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*ChunkRow)(nil)).IfExists().Exec(ctx)
	return err
}
