package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("game session not found")

// SessionStore persists in-flight games.
type SessionStore interface {
	Save(ctx context.Context, g *Game) error
	Load(ctx context.Context, id uuid.UUID) (*Game, error)
}

const sessionKeyPrefix = "cartai:game"

// RedisStore keeps each game as a JSON document that expires after ttl of inactivity.
type RedisStore struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisStore(redis redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: redis, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, g *Game) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(g.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*Game, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + ":" + id.String()
}
