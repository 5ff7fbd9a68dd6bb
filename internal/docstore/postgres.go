package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS ledger_documents (
    doc        TEXT PRIMARY KEY,
    body       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps each document as one row in ledger_documents.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPostgresStore(databaseURL string, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure ledger_documents: %w", err)
	}
	return &PostgresStore{db: db, log: log}, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_documents (doc, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (doc) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		doc, body)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, doc string, v any) (bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM ledger_documents WHERE doc = $1`, doc).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load document %s: %w", doc, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.log.Warn("document is corrupt, starting empty", "doc", doc, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
