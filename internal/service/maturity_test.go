package service

import (
	"context"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeMatured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "felipe")
	f.buyPackage(t, actor, "ahorro-200k")
	f.buyPackage(t, actor, "basico-50k")

	maturity := NewMaturityService(f.store).WithClock(f.clock.Now)

	f.clock.Advance(29 * 24 * time.Hour)
	n, err := maturity.FinalizeMatured(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(24 * time.Hour)
	n, err = maturity.FinalizeMatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pkgs, err := f.store.Queries().ListPackagesByAccount(ctx, repository.ToPgUUID(actor.AccountID))
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, p := range pkgs {
		statuses[p.CatalogID] = p.Status
	}
	assert.Equal(t, domain.PackageStatusFinalized, statuses["ahorro-200k"])
	assert.Equal(t, domain.PackageStatusActive, statuses["basico-50k"])

	// Balances and the active flag are untouched.
	acc := f.account(t, actor.AccountID)
	assert.Equal(t, int64(250_000), acc.InvestmentBalance)
	assert.True(t, acc.ActivePackage)
}

func TestQueueSizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "helena")
	bindNequi(t, f, actor)
	f.fund(t, actor.AccountID, domain.BucketEarned, 25_000)

	_, err := f.payments.CreatePaymentIntent(ctx, actor, "plus-100k")
	require.NoError(t, err)
	_, err = f.payments.CreatePaymentIntent(ctx, actor, "basico-50k")
	require.NoError(t, err)
	_, err = f.withdrawals.RequestWithdrawal(ctx, actor, 25_000)
	require.NoError(t, err)

	sizes, err := NewQueueService(f.store).Sizes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sizes.PendingPayments)
	assert.Equal(t, int64(1), sizes.PendingWithdrawals)
}
