package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const DefaultDebounce = 500 * time.Millisecond

// IngestFunc processes one settled file.
type IngestFunc func(ctx context.Context, path string) error

// Watcher ingests files dropped into a directory. Events for the same path
// are debounced and files are ingested one at a time.
type Watcher struct {
	fs       *fsnotify.Watcher
	allowed  func(ext string) bool
	debounce time.Duration
	ingest   IngestFunc
}

type settled struct {
	path string
	gen  int
}

// New creates a watcher. allowed receives lower-case extensions with a
// leading dot.
func New(allowed func(ext string) bool, debounce time.Duration, ingest IngestFunc) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fs: fs, allowed: allowed, debounce: debounce, ingest: ingest}, nil
}

// Run watches dir until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log.Info().Str("dir", dir).Dur("debounce", w.debounce).Msg("Watching folder")

	pending := map[string]int{}
	timers := map[string]*time.Timer{}
	ready := make(chan settled, 16)
	gen := 0

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.allowed(strings.ToLower(filepath.Ext(ev.Name))) {
				continue
			}
			gen++
			s := settled{path: ev.Name, gen: gen}
			pending[s.path] = s.gen
			if t, ok := timers[s.path]; ok {
				t.Stop()
			}
			timers[s.path] = time.AfterFunc(w.debounce, notify(ctx, ready, s))

		case s := <-ready:
			if pending[s.path] != s.gen {
				continue
			}
			delete(pending, s.path)
			delete(timers, s.path)
			log.Info().Str("file", s.path).Msg("Ingesting dropped file")
			if err := w.ingest(ctx, s.path); err != nil {
				log.Error().Err(err).Str("file", s.path).Msg("Error ingesting file")
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// notify returns a timer callback that hands s to the run loop, or gives up
// once the loop has returned.
func notify(ctx context.Context, ready chan<- settled, s settled) func() {
	return func() {
		select {
		case ready <- s:
		case <-ctx.Done():
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
