package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ledger:doc:"

// RedisStore keeps each document as a JSON string under ledger:doc:<name>.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisStore(addr, password string, db int, log *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, log: log}, nil
}

func (s *RedisStore) Save(ctx context.Context, doc string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+doc, body, 0).Err(); err != nil {
		return fmt.Errorf("save document %s: %w", doc, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, doc string, v any) (bool, error) {
	body, err := s.client.Get(ctx, redisKeyPrefix+doc).Bytes()
	if errors.Is(err, redis.Nil) {
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

func (s *RedisStore) Close() error { return s.client.Close() }
