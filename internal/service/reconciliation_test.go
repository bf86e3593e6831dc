package service

import (
	"context"
	"testing"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationBalancedAfterFlows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referrer, _ := f.register(t, "referrer")
	f.buyPackage(t, referrer, "basico-50k")
	f.fund(t, referrer.AccountID, domain.BucketEarned, 25000)
	_, err := f.withdrawals.BindDestination(ctx, referrer, BindDestinationRequest{
		Method: "nequi", Account: "3001234567", Confirmation: "3001234567",
	})
	require.NoError(t, err)
	_, err = f.withdrawals.RequestWithdrawal(ctx, referrer, 20000)
	require.NoError(t, err)

	f.requireNoDrift(t)
}

func TestReconciliationReportsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "gabriel")
	f.fund(t, actor.AccountID, domain.BucketBonus, 4_000)

	recon := NewReconciliationService(f.store)
	drift, err := recon.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// A balance write that bypasses the ledger.
	err = f.store.RunInTx(ctx, func(q repository.Querier) error {
		_, err := q.AdjustAccountBalances(ctx, repository.AdjustAccountBalancesParams{
			ID:    repository.ToPgUUID(actor.AccountID),
			Bonus: 1_000,
		})
		return err
	})
	require.NoError(t, err)

	drift, err = recon.Run(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, domain.BucketBonus, drift[0].Bucket)
	assert.Equal(t, int64(4_000), drift[0].LedgerTotal)
	assert.Equal(t, int64(5_000), drift[0].BalanceTotal)
}
