package service

import (
	"context"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeYieldClaimOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "zoe")

	_, err := f.freeYield.Claim(ctx, actor)
	require.ErrorIs(t, err, ErrFreeYieldInactive)

	status, err := f.freeYield.Activate(ctx, actor)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.True(t, status.CanClaim)
	assert.Equal(t, 60, status.DaysRemaining)

	status, err = f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(500), status.Accrued)
	assert.True(t, status.ClaimedToday)
	assert.False(t, status.CanClaim)

	before := f.account(t, actor.AccountID)
	_, err = f.freeYield.Claim(ctx, actor)
	require.ErrorIs(t, err, ErrAlreadyClaimedToday)
	after := f.account(t, actor.AccountID)
	assert.Equal(t, before.BonusBalance, after.BonusBalance)
	assert.Equal(t, before.FreeYieldAccrued, after.FreeYieldAccrued)

	f.clock.Advance(24 * time.Hour)
	_, err = f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)

	acc := f.account(t, actor.AccountID)
	assert.Equal(t, int64(1_000), acc.BonusBalance)
	assert.Equal(t, int64(1_000), acc.FreeYieldAccrued)
	f.requireNoDrift(t)
}

func TestFreeYieldTermBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "adrian")

	_, err := f.freeYield.Activate(ctx, actor)
	require.NoError(t, err)

	f.clock.Advance(59 * 24 * time.Hour)
	status, err := f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 59, status.DaysElapsed)

	f.clock.Advance(24 * time.Hour)
	_, err = f.freeYield.Claim(ctx, actor)
	require.ErrorIs(t, err, ErrFreeYieldExpired)

	t.Run("cannot_reactivate_after_term", func(t *testing.T) {
		_, err := f.freeYield.Activate(ctx, actor)
		require.ErrorIs(t, err, ErrFreeYieldExpired)
	})

	status, err = f.freeYield.Status(ctx, actor, actor.AccountID)
	require.NoError(t, err)
	assert.True(t, status.Expired)
	assert.Zero(t, status.DaysRemaining)
}

func TestFreeYieldActivateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "bruno")

	_, err := f.freeYield.Activate(ctx, actor)
	require.NoError(t, err)
	_, err = f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)

	f.clock.Advance(3 * 24 * time.Hour)
	status, err := f.freeYield.Activate(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 3, status.DaysElapsed)
	assert.Equal(t, domain.Amount(500), status.Accrued)
}

func TestFreeYieldUsesConfiguredTimezone(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	policy := DefaultPolicy()
	policy.Location = bogota
	f := newFixtureWithPolicy(t, policy)
	ctx := context.Background()
	actor, _ := f.register(t, "camila")

	// 15:00 UTC on the 10th is 10:00 in Bogota.
	_, err = f.freeYield.Activate(ctx, actor)
	require.NoError(t, err)
	_, err = f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)

	// 03:00 UTC on the 11th is still the 10th in Bogota.
	f.clock.Advance(12 * time.Hour)
	_, err = f.freeYield.Claim(ctx, actor)
	require.ErrorIs(t, err, ErrAlreadyClaimedToday)

	// 05:00 UTC on the 11th is midnight in Bogota.
	f.clock.Advance(2 * time.Hour)
	_, err = f.freeYield.Claim(ctx, actor)
	require.NoError(t, err)
}

func TestFreeYieldStatusOwnerOnly(t *testing.T) {
	f := newFixture(t)
	actor, _ := f.register(t, "dario")
	other, _ := f.register(t, "emma")

	_, err := f.freeYield.Status(context.Background(), other, actor.AccountID)
	require.ErrorIs(t, err, ErrNotOwner)
}
