package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.docx", "sub/c.pdf", "sub/deeper/d.pdf", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := collectFiles([]string{
		filepath.Join(dir, "**", "*.pdf"),
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.docx"),
		filepath.Join(dir, "missing.pdf"),
	})
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.docx"),
		filepath.Join(dir, "sub", "c.pdf"),
		filepath.Join(dir, "sub", "deeper", "d.pdf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v\nwant %v", got, want)
	}
}

func TestCollectFilesBadPattern(t *testing.T) {
	if _, err := collectFiles([]string{"[unclosed"}); err == nil {
		t.Fatal("expected error")
	}
}
