package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"document-qa/internal/chromemdb"
	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/llmservice"
	"document-qa/internal/parser"
	"document-qa/internal/rag"
	"document-qa/internal/server"
	"document-qa/internal/tui"
	"document-qa/internal/watcher"
)

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", configFilePath, "Path to the config file")
	return fs, cfgPath
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	helper.SetupLogger(cfg.Log)
	log.Debug().Interface("config", cfg).Msg("Loaded config")
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	dbInstance, err := db.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.InitDB(ctx, dbInstance); err != nil {
		dbInstance.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	return dbInstance, nil
}

// newService wires the database, embedder and chat client. The caller closes
// the returned database.
func newService(ctx context.Context, cfg *config.Config) (*rag.Service, *bun.DB, error) {
	dbInstance, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		dbInstance.Close()
		return nil, nil, fmt.Errorf("init embedder: %w", err)
	}
	llm, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		dbInstance.Close()
		return nil, nil, err
	}
	return rag.NewService(dbInstance, embedder, llm, cfg), dbInstance, nil
}

func runServe(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("serve")
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	svc, dbInstance, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	return server.New(svc, cfg.Server).Start(ctx)
}

// collectFiles expands glob patterns and plain paths into a sorted,
// de-duplicated file list.
func collectFiles(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			log.Warn().Str("pattern", p).Msg("No files matched")
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func runIngest(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("ingest")
	category := fs.String("category", "", "Category stored with every chunk")
	dryRun := fs.Bool("dry-run", false, "Parse and print chunks, do not embed or store")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: ingest [flags] <file or glob>...  (e.g. 'docs/**/*.pdf')")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no files given")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	files, err := collectFiles(fs.Args())
	if err != nil {
		return err
	}

	if *dryRun {
		p := parser.New(cfg)
		for _, f := range files {
			records, err := p.ParseDocument(f)
			if err != nil {
				log.Error().Err(err).Str("file", f).Msg("Error parsing document")
				continue
			}
			log.Info().Str("file", f).Int("chunks", len(records)).Msg("Parsed document")
			helper.PrettyPrint(records)
		}
		return nil
	}

	svc, dbInstance, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	progress := helper.NewProgress(helper.IsTerminal(os.Stderr), len(files), "ingest")
	total, failed := 0, 0
	for _, f := range files {
		progress.Describe(filepath.Base(f))
		n, err := svc.Ingest(ctx, f, *category)
		total += n
		if err != nil {
			failed++
			log.Error().Err(err).Str("file", f).Msg("Error ingesting document")
		}
		progress.Increment()
		if ctx.Err() != nil {
			break
		}
	}
	progress.Finish()

	log.Info().Int("files", len(files)).Int("failed", failed).Int("chunks", total).Msg("Ingest finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func runAsk(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("ask")
	question := fs.String("q", "", "Question to answer (or pass it as arguments)")
	showContext := fs.Bool("context", true, "Print the retrieved context")
	fs.Parse(args)

	q := strings.TrimSpace(*question)
	if q == "" {
		q = strings.TrimSpace(strings.Join(fs.Args(), " "))
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	svc, dbInstance, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	answer, err := svc.Ask(ctx, q)
	if err != nil {
		return err
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Question)
	if *showContext {
		log.Info().Msg("Context: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		for i, c := range answer.Context {
			fmt.Printf("[%d] %s\n\n", i+1, c)
		}
	}
	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Content)
	for _, r := range answer.RelatedQuestions {
		fmt.Printf("• %s\n", r)
	}
	return nil
}

func runRelated(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("related")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	llm, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		return err
	}
	q := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if q == "" {
		return rag.ErrEmptyQuestion
	}
	for _, r := range llm.RelatedQuestions(ctx, q) {
		fmt.Println(r)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("export")
	out := fs.String("out", "", "Snapshot file (overrides snapshot.path)")
	verify := fs.Bool("verify", true, "Read the snapshot back and check the document count")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *out != "" {
		cfg.Snapshot.Path = *out
	}
	dbInstance, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	chunks, err := db.ListChunks(ctx, dbInstance)
	if err != nil {
		return err
	}
	n, err := chromemdb.Export(ctx, chunks, cfg.Snapshot)
	if err != nil {
		return err
	}
	if !*verify {
		return nil
	}
	got, err := chromemdb.Import(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("verify snapshot: %w", err)
	}
	if got != n {
		return fmt.Errorf("verify snapshot: wrote %d documents, read back %d", n, got)
	}
	log.Info().Str("path", cfg.Snapshot.Path).Int("documents", got).Msg("Snapshot verified")
	return nil
}

func runWatch(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("watch")
	dir := fs.String("dir", "", "Folder to watch (overrides ingest.watch_dir)")
	category := fs.String("category", "", "Category stored with every chunk")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *dir != "" {
		cfg.Ingest.WatchDir = *dir
	}
	if cfg.Ingest.WatchDir == "" {
		return errors.New("no folder to watch: set ingest.watch_dir or -dir")
	}
	if err := helper.CreateFolder(cfg.Ingest.WatchDir); err != nil {
		return err
	}

	svc, dbInstance, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	w, err := watcher.New(cfg.Ingest.Allowed, watcher.DefaultDebounce, func(ctx context.Context, path string) error {
		_, err := svc.Ingest(ctx, path, *category)
		return err
	})
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, cfg.Ingest.WatchDir)
}

func runChat(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("chat")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	svc, dbInstance, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	docs, err := svc.Documents(ctx)
	if err != nil {
		return err
	}
	chunks := 0
	for _, d := range docs {
		chunks += d.Chunks
	}
	summary := fmt.Sprintf("%d tài liệu · %d đoạn", len(docs), chunks)

	_, err = tea.NewProgram(tui.New(ctx, svc, summary), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runStats(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("stats")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	dbInstance, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	stats, err := db.CountByFile(ctx, dbInstance)
	if err != nil {
		return err
	}
	helper.PrettyPrint(stats)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("reset")
	yes := fs.Bool("yes", false, "Confirm dropping every stored chunk")
	fs.Parse(args)
	if !*yes {
		return errors.New("refusing to drop the chunk table without -yes")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	dbInstance, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	if err := db.DropChunks(ctx, dbInstance); err != nil {
		return fmt.Errorf("drop chunks: %w", err)
	}
	if err := db.InitDB(ctx, dbInstance); err != nil {
		return err
	}
	log.Info().Str("dialect", cfg.Database.Dialect).Msg("Chunk table reset")
	return nil
}
