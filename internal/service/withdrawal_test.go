package service

import (
	"context"
	"testing"

	"github.com/cartai/ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindNequi(t *testing.T, f *fixture, actor Actor) {
	t.Helper()
	_, err := f.withdrawals.BindDestination(context.Background(), actor, BindDestinationRequest{
		Method: "Nequi", Account: "3001234567", Confirmation: "3001234567",
	})
	require.NoError(t, err)
}

func TestBindDestination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "ines")

	cases := []struct {
		name string
		req  BindDestinationRequest
		want error
	}{
		{name: "unknown_method", req: BindDestinationRequest{Method: "paypal", Account: "3001234567", Confirmation: "3001234567"}, want: ErrUnknownMethod},
		{name: "mismatch", req: BindDestinationRequest{Method: "nequi", Account: "3001234567", Confirmation: "3001234568"}, want: ErrDestinationMismatch},
		{name: "missing_account", req: BindDestinationRequest{Method: "nequi"}, want: ErrValidation},
		{name: "not_digits", req: BindDestinationRequest{Method: "ahorros", Account: "12-34-56", Confirmation: "12-34-56"}, want: ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.withdrawals.BindDestination(ctx, actor, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	dest, err := f.withdrawals.BindDestination(ctx, actor, BindDestinationRequest{
		Method: " Daviplata ", Account: "3109876543", Confirmation: "3109876543",
	})
	require.NoError(t, err)
	assert.Equal(t, "daviplata", dest.Method)

	acc := f.account(t, actor.AccountID)
	require.NotNil(t, acc.WithdrawalMethod)
	assert.Equal(t, "daviplata", *acc.WithdrawalMethod)
	assert.Equal(t, "3109876543", *acc.WithdrawalAccount)
}

func TestRequestWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "jorge")

	t.Run("destination_missing", func(t *testing.T) {
		_, err := f.withdrawals.RequestWithdrawal(ctx, actor, 20_000)
		require.ErrorIs(t, err, ErrDestinationMissing)
	})

	bindNequi(t, f, actor)
	f.fund(t, actor.AccountID, domain.BucketEarned, 20_000)

	t.Run("below_minimum", func(t *testing.T) {
		_, err := f.withdrawals.RequestWithdrawal(ctx, actor, 19_999)
		require.ErrorIs(t, err, ErrBelowMinimum)
		assert.Equal(t, int64(20_000), f.account(t, actor.AccountID).EarnedBalance)
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		_, err := f.withdrawals.RequestWithdrawal(ctx, actor, 20_001)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("non_positive_is_below_minimum", func(t *testing.T) {
		for _, amount := range []domain.Amount{0, -5} {
			_, err := f.withdrawals.RequestWithdrawal(ctx, actor, amount)
			require.ErrorIs(t, err, ErrBelowMinimum)
		}
		assert.Equal(t, int64(20_000), f.account(t, actor.AccountID).EarnedBalance)
	})

	w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 20_000)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, w.Status)
	assert.Equal(t, "nequi", w.Destination.Method)
	assert.Equal(t, "3001234567", w.Destination.Account)
	assert.Zero(t, f.account(t, actor.AccountID).EarnedBalance)

	t.Run("rebinding_keeps_snapshot", func(t *testing.T) {
		_, err := f.withdrawals.BindDestination(ctx, actor, BindDestinationRequest{
			Method: "bancolombia", Account: "12345678901", Confirmation: "12345678901",
		})
		require.NoError(t, err)
		pending, err := f.withdrawals.ListPending(ctx, f.admin)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "nequi", pending[0].Destination.Method)
	})

	f.requireNoDrift(t)
}

func TestApproveWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "karen")
	bindNequi(t, f, actor)
	f.fund(t, actor.AccountID, domain.BucketEarned, 50_000)

	w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 30_000)
	require.NoError(t, err)

	approved, err := f.withdrawals.Approve(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, approved.Status)
	require.NotNil(t, approved.ResolvedAt)

	// Single debit at request time.
	assert.Equal(t, int64(20_000), f.account(t, actor.AccountID).EarnedBalance)

	history, err := f.withdrawals.History(ctx, actor)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.WithdrawalStatusApproved, history[0].Status)

	_, err = f.withdrawals.Approve(ctx, f.admin, w.ID)
	require.ErrorIs(t, err, ErrWithdrawalNotFound)

	_, err = f.withdrawals.Approve(ctx, actor, uuid.New())
	require.ErrorIs(t, err, ErrAdminRequired)
	f.requireNoDrift(t)
}

func TestApproveWithdrawalDebitOnApproval(t *testing.T) {
	policy := DefaultPolicy()
	policy.DebitOnApproval = true
	f := newFixtureWithPolicy(t, policy)
	ctx := context.Background()
	actor, _ := f.register(t, "leo")
	bindNequi(t, f, actor)
	f.fund(t, actor.AccountID, domain.BucketEarned, 50_000)

	w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 25_000)
	require.NoError(t, err)
	_, err = f.withdrawals.Approve(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Zero(t, f.account(t, actor.AccountID).EarnedBalance)

	t.Run("second_debit_cannot_go_negative", func(t *testing.T) {
		f.fund(t, actor.AccountID, domain.BucketEarned, 20_000)
		w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 20_000)
		require.NoError(t, err)
		_, err = f.withdrawals.Approve(ctx, f.admin, w.ID)
		require.ErrorIs(t, err, ErrNegativeBalance)

		pending, err := f.withdrawals.ListPending(ctx, f.admin)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})
	f.requireNoDrift(t)
}

func TestRejectWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("without_refund", func(t *testing.T) {
		f := newFixture(t)
		actor, _ := f.register(t, "mario")
		bindNequi(t, f, actor)
		f.fund(t, actor.AccountID, domain.BucketEarned, 40_000)

		w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 40_000)
		require.NoError(t, err)
		rejected, err := f.withdrawals.Reject(ctx, f.admin, w.ID, "wrong account holder")
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalStatusRejected, rejected.Status)
		require.NotNil(t, rejected.Reason)
		assert.Equal(t, "wrong account holder", *rejected.Reason)
		assert.Zero(t, f.account(t, actor.AccountID).EarnedBalance)
		f.requireNoDrift(t)
	})

	t.Run("with_refund", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.RefundOnReject = true
		f := newFixtureWithPolicy(t, policy)
		actor, _ := f.register(t, "nora")
		bindNequi(t, f, actor)
		f.fund(t, actor.AccountID, domain.BucketEarned, 40_000)

		w, err := f.withdrawals.RequestWithdrawal(ctx, actor, 40_000)
		require.NoError(t, err)
		_, err = f.withdrawals.Reject(ctx, f.admin, w.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(40_000), f.account(t, actor.AccountID).EarnedBalance)
		f.requireNoDrift(t)
	})
}
