package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func allowTxt(ext string) bool { return ext == ".txt" }

func startWatcher(t *testing.T, dir string, ingested chan<- string) {
	t.Helper()
	w, err := New(allowTxt, 100*time.Millisecond, func(_ context.Context, path string) error {
		ingested <- path
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx, dir); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	// let the watch register before files appear
	time.Sleep(50 * time.Millisecond)
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	ingested := make(chan string, 10)
	startWatcher(t, dir, ingested)

	path := filepath.Join(dir, "notes.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case got := <-ingested:
		if got != path {
			t.Fatalf("ingested %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ingest")
	}

	select {
	case got := <-ingested:
		t.Fatalf("unexpected second ingest of %q", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ingested := make(chan string, 10)
	startWatcher(t, dir, ingested)

	if err := os.WriteFile(filepath.Join(dir, "data.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ingested:
		t.Fatalf("unexpected ingest of %q", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestNotifyReturnsAfterRunEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan settled)

	done := make(chan struct{})
	go func() {
		defer close(done)
		notify(ctx, ready, settled{path: "a.txt", gen: 1})()
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer callback still blocked after cancel")
	}
}

func TestRunReturnsWhenClosed(t *testing.T) {
	dir := t.TempDir()
	w, err := New(allowTxt, time.Hour, func(context.Context, string) error { return nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), dir) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "late.txt"), []byte("v"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
