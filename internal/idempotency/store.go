// Package idempotency stores the first response of every mutating request that carried an
// Idempotency-Key so a retry replays it instead of moving money twice. Postgres is the
// source of truth; Redis is a read-through cache in front of it.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const pollInterval = 50 * time.Millisecond

// Where a replayed record came from.
const (
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

// Record is a finished response. It is also the Redis cache payload.
type Record struct {
	Key         string `json:"key"`
	RequestHash string `json:"hash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
	ServedBy    string `json:"-"`
}

type Store struct {
	queries repository.Querier
	cache   *cache
	ttl     time.Duration
}

// NewStore builds a store. rdb may be nil, in which case every lookup goes to Postgres.
func NewStore(rdb redis.Cmdable, queries repository.Querier, ttl time.Duration) *Store {
	return &Store{queries: queries, cache: newCache(rdb, ttl), ttl: ttl}
}

// Lookup returns the finished response stored under key. A stored hash that differs
// from requestHash is ErrHashMismatch; a reserved but unfinished key is ErrInProgress.
func (s *Store) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	if rec := s.cache.get(ctx, key); rec != nil {
		if rec.RequestHash != requestHash {
			return nil, ErrHashMismatch
		}
		return rec, nil
	}

	row, err := s.queries.GetIdempotencyKey(ctx, key)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	case row.RequestHash != requestHash:
		return nil, ErrHashMismatch
	case row.InProgress:
		return nil, ErrInProgress
	}
	return s.remember(ctx, row), nil
}

// Reserve claims the key for the current request. It reports false when another request
// already holds it.
func (s *Store) Reserve(ctx context.Context, key, requestHash, method, path string) (bool, error) {
	_, err := s.queries.ReserveIdempotencyKey(ctx, repository.ReserveIdempotencyKeyParams{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Method:         method,
		Path:           path,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
}

// Finalize stores the response for a reserved key.
func (s *Store) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	row, err := s.queries.FinalizeIdempotencyKey(ctx, repository.FinalizeIdempotencyKeyParams{
		ResponseStatus: int32(status),
		ResponseBody:   body,
		ContentType:    contentType,
		IdempotencyKey: key,
		RequestHash:    requestHash,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	return s.remember(ctx, row), nil
}

// WaitForCompletion polls until the request holding the key has finished.
func (s *Store) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if !errors.Is(err, ErrInProgress) {
			return rec, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// PurgeExpired deletes keys untouched for longer than the store TTL. Redis entries
// expire on their own.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.queries.DeleteIdempotencyKeysBefore(ctx, repository.ToPgTimestamptz(now.Add(-s.ttl)))
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return n, nil
}

func (s *Store) remember(ctx context.Context, row repository.IdempotencyKey) *Record {
	rec := &Record{
		Key:         row.IdempotencyKey,
		RequestHash: row.RequestHash,
		Status:      int(row.ResponseStatus),
		Body:        row.ResponseBody,
		ContentType: row.ContentType,
		ServedBy:    SourcePostgres,
	}
	s.cache.put(ctx, rec)
	return rec
}
