package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	saveAttempts  = 3
	saveBackoff   = 50 * time.Millisecond
	fileDocSuffix = ".json"
)

// FileStore keeps each document as <name>.json inside a directory.
// Writes go to a temp file first and are renamed into place so a crash
// mid-write never leaves a half-written document behind.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) Save(ctx context.Context, doc string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc, err)
	}

	path := s.path(doc)
	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = writeAtomic(path, data); lastErr == nil {
			return nil
		}
		s.log.Warn("document save attempt failed",
			"doc", doc, "attempt", attempt, "error", lastErr)
		if attempt < saveAttempts {
			time.Sleep(time.Duration(attempt) * saveBackoff)
		}
	}
	return fmt.Errorf("save document %s: %w", doc, lastErr)
}

func (s *FileStore) Load(ctx context.Context, doc string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(s.path(doc))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read document %s: %w", doc, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt input must not stop startup; the owner begins empty.
		s.log.Warn("document is corrupt, starting empty", "doc", doc, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(doc string) string {
	return filepath.Join(s.dir, doc+fileDocSuffix)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
