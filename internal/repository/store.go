package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// attempts per RunInTx when Postgres aborts with a deadlock or serialization failure
const maxTxAttempts = 3

// Store owns the pool behind the account store. It satisfies service.QueryStore.
type Store struct {
	db      *pgxpool.Pool
	queries *Queries
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, queries: New(db)}
}

// Queries runs outside any transaction; use it for reads only.
func (s *Store) Queries() Querier {
	return s.queries
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// RunInTx runs fn in a read-committed transaction. Row locks taken with
// SELECT ... FOR UPDATE inside fn are held until commit. fn is re-run from scratch
// when Postgres reports a deadlock or serialization failure, so it must not keep
// state between calls beyond what it overwrites.
func (s *Store) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	for attempt := 1; ; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil || attempt == maxTxAttempts || !retryable(err) {
			return err
		}
		zap.L().Warn("retrying aborted transaction", zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (s *Store) runOnce(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}
