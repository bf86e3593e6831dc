package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/cartai/ledger/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAborted = errors.New("transaction aborted")

// abortOnceStore runs the first transaction to completion and then rolls it back, the
// way a serialization failure followed by a retry would.
type abortOnceStore struct {
	*memstore.Store
	aborted bool
}

func (s *abortOnceStore) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	if !s.aborted {
		s.aborted = true
		err := s.Store.RunInTx(ctx, func(q repository.Querier) error {
			if err := fn(q); err != nil {
				return err
			}
			return errAborted
		})
		if !errors.Is(err, errAborted) {
			return err
		}
	}
	return s.Store.RunInTx(ctx, fn)
}

type publishedMovement struct {
	bucket string
	kind   string
	amount int64
}

func recordPublished(t *testing.T) *[]publishedMovement {
	t.Helper()
	var got []publishedMovement
	prev := publishMovement
	publishMovement = func(bucket, kind string, amount int64) {
		got = append(got, publishedMovement{bucket, kind, amount})
	}
	t.Cleanup(func() { publishMovement = prev })
	return &got
}

func TestLedgerMetricsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t)
	user, _ := f.register(t, "ana")
	published := recordPublished(t)

	f.fund(t, user.AccountID, domain.BucketBonus, 5000)
	assert.Equal(t, []publishedMovement{{domain.BucketBonus, domain.KindManualAdjustment, 5000}}, *published)
}

func TestLedgerMetricsSkipRolledBackTx(t *testing.T) {
	f := newFixture(t)
	user, _ := f.register(t, "ana")
	published := recordPublished(t)

	err := runLedgerTx(context.Background(), f.store, func(qtx repository.Querier) error {
		if err := postMovements(context.Background(), qtx, user.AccountID, domain.KindManualAdjustment, "test",
			credit(domain.BucketBonus, 5000)); err != nil {
			return err
		}
		return errAborted
	})
	require.ErrorIs(t, err, errAborted)
	assert.Empty(t, *published)
	assert.EqualValues(t, 0, f.account(t, user.AccountID).BonusBalance)
}

func TestLedgerMetricsCountRetriedTxOnce(t *testing.T) {
	f := newFixture(t)
	user, _ := f.register(t, "ana")
	published := recordPublished(t)

	store := &abortOnceStore{Store: f.store}
	err := runLedgerTx(context.Background(), store, func(qtx repository.Querier) error {
		return postMovements(context.Background(), qtx, user.AccountID, domain.KindManualAdjustment, "test",
			credit(domain.BucketBonus, 5000))
	})
	require.NoError(t, err)
	assert.True(t, store.aborted)
	assert.Len(t, *published, 1)
	assert.EqualValues(t, 5000, f.account(t, user.AccountID).BonusBalance)
}
