package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/idempotency"
	"github.com/cartai/ledger/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *idempotency.Store {
	return idempotency.NewStore(nil, memstore.New().Queries(), time.Hour)
}

func TestReserveFinalizeLookup(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	_, err := store.Lookup(ctx, "k1", "h1")
	require.ErrorIs(t, err, idempotency.ErrNotFound)

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/v1/withdrawals")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "k1", "h1", "POST", "/v1/withdrawals")
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must lose")

	_, err = store.Lookup(ctx, "k1", "h1")
	require.ErrorIs(t, err, idempotency.ErrInProgress)

	rec, err := store.Finalize(ctx, "k1", "h1", 202, []byte(`{"id":"w1"}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, 202, rec.Status)

	rec, err = store.Lookup(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 202, rec.Status)
	assert.JSONEq(t, `{"id":"w1"}`, string(rec.Body))
	assert.Equal(t, "postgres", rec.ServedBy)
}

func TestLookupHashMismatch(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	_, err := store.Reserve(ctx, "k1", "h1", "POST", "/v1/promo-codes/redeem")
	require.NoError(t, err)
	_, err = store.Finalize(ctx, "k1", "h1", 200, []byte(`{}`), "application/json")
	require.NoError(t, err)

	_, err = store.Lookup(ctx, "k1", "other")
	require.ErrorIs(t, err, idempotency.ErrHashMismatch)

	_, err = store.Finalize(ctx, "k1", "other", 200, nil, "application/json")
	require.ErrorIs(t, err, idempotency.ErrNotFound)
}

func TestWaitForCompletion(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	_, err := store.Reserve(ctx, "k1", "h1", "POST", "/v1/free-yield/claim")
	require.NoError(t, err)

	go func() {
		time.Sleep(120 * time.Millisecond)
		_, _ = store.Finalize(ctx, "k1", "h1", 200, []byte(`{"accrued":500}`), "application/json")
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	rec, err := store.WaitForCompletion(waitCtx, "k1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Status)
}

func TestWaitForCompletionHonoursContext(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	_, err := store.Reserve(ctx, "k1", "h1", "POST", "/v1/free-yield/claim")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = store.WaitForCompletion(waitCtx, "k1", "h1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := idempotency.NewStore(nil, memstore.New().Queries(), time.Hour)

	_, err := store.Reserve(ctx, "old", "h", "POST", "/v1/withdrawals")
	require.NoError(t, err)

	n, err := store.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.PurgeExpired(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Lookup(ctx, "old", "h")
	require.ErrorIs(t, err, idempotency.ErrNotFound)
}
