package docstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	in := payload{Name: "rice", Count: 7}
	if err := s.Save(ctx, "sample", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var out payload
	found, err := s.Load(ctx, "sample", &out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("Load reported not found after Save")
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestFileStoreMissingDocument(t *testing.T) {
	s := newTestFileStore(t)

	var out payload
	found, err := s.Load(context.Background(), "nope", &out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("Load reported found for a missing document")
	}
}

func TestFileStoreCorruptDocumentStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	var out payload
	found, err := s.Load(context.Background(), "bad", &out)
	if err != nil {
		t.Fatalf("Load returned error for corrupt document: %v", err)
	}
	if found {
		t.Fatal("corrupt document must report not found")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "doc", payload{Name: "a", Count: 1}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(ctx, "doc", payload{Name: "b", Count: 2}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	var out payload
	if _, err := s.Load(ctx, "doc", &out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Name != "b" || out.Count != 2 {
		t.Fatalf("got %+v after overwrite, want {b 2}", out)
	}
}
