package service

import (
	"context"
	"testing"

	"github.com/cartai/ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "wilson")
	other, _ := f.register(t, "ximena")

	promo, err := f.promos.CreatePromo(ctx, f.admin, "bienvenida10", 10_000)
	require.NoError(t, err)
	assert.Equal(t, "BIENVENIDA10", promo.Code)

	res, err := f.promos.RedeemPromo(ctx, actor, "Bienvenida10")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(10_000), res.Credited)
	assert.Equal(t, domain.Amount(10_000), res.BonusBalance)

	t.Run("already_used", func(t *testing.T) {
		_, err := f.promos.RedeemPromo(ctx, other, "BIENVENIDA10")
		require.ErrorIs(t, err, ErrPromoAlreadyUsed)
		assert.Zero(t, f.account(t, other.AccountID).BonusBalance)

		_, err = f.promos.RedeemPromo(ctx, actor, "BIENVENIDA10")
		require.ErrorIs(t, err, ErrPromoAlreadyUsed)
		assert.Equal(t, int64(10_000), f.account(t, actor.AccountID).BonusBalance)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := f.promos.RedeemPromo(ctx, actor, "NOPE1234")
		require.ErrorIs(t, err, ErrPromoNotFound)
	})

	t.Run("too_short", func(t *testing.T) {
		_, err := f.promos.RedeemPromo(ctx, actor, "abc")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	list, err := f.promos.ListPromos(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Used)
	require.NotNil(t, list[0].RedeemedBy)
	assert.Equal(t, actor.AccountID.String(), *list[0].RedeemedBy)
	f.requireNoDrift(t)
}

func TestCreatePromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "yolanda")

	_, err := f.promos.CreatePromo(ctx, actor, "FREE5000", 5_000)
	require.ErrorIs(t, err, ErrAdminRequired)

	_, err = f.promos.CreatePromo(ctx, f.admin, "FREE5000", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.promos.CreatePromo(ctx, f.admin, "FREE5000", 5_000)
	require.NoError(t, err)

	_, err = f.promos.CreatePromo(ctx, f.admin, "free5000", 7_000)
	require.ErrorIs(t, err, ErrPromoExists)

	_, err = f.promos.ListPromos(ctx, actor)
	require.ErrorIs(t, err, ErrAdminRequired)
}

func TestConcurrentPromoRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.promos.CreatePromo(ctx, f.admin, "RACE2025", 3_000)
	require.NoError(t, err)

	n := 6
	actors := make([]Actor, n)
	for i := range actors {
		actors[i], _ = f.register(t, "racer")
	}
	errs := make(chan error, n)
	for _, a := range actors {
		go func(a Actor) {
			_, err := f.promos.RedeemPromo(ctx, a, "RACE2025")
			errs <- err
		}(a)
	}
	var ok int
	for i := 0; i < n; i++ {
		if err := <-errs; err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrPromoAlreadyUsed)
		}
	}
	assert.Equal(t, 1, ok)

	var total int64
	for _, a := range actors {
		total += f.account(t, a.AccountID).BonusBalance
	}
	assert.Equal(t, int64(3_000), total)
}
