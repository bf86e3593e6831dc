package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.accounts.Register(ctx, RegisterRequest{UserID: uuid.New(), Email: " maria@example.com ", DisplayName: "Maria"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Len(t, user.ReferralCode, 8)
	assert.Nil(t, user.ReferredByCode)
	assert.False(t, user.ActivePackage)

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := f.accounts.Register(ctx, RegisterRequest{UserID: uuid.New(), Email: "MARIA@example.com"})
		require.ErrorIs(t, err, ErrAccountExists)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("duplicate_id", func(t *testing.T) {
		_, err := f.accounts.Register(ctx, RegisterRequest{UserID: user.ID, Email: "other@example.com"})
		require.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("invalid_email", func(t *testing.T) {
		_, err := f.accounts.Register(ctx, RegisterRequest{UserID: uuid.New(), Email: "not-an-email"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("admin_email_is_not_an_admin", func(t *testing.T) {
		acc, err := f.accounts.Register(ctx, RegisterRequest{UserID: uuid.New(), Email: "AdminCartAI@cartai.com"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, acc.Role)

		acc, err = f.accounts.Login(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, acc.Role)
	})
}

func TestLoginPromotesConfiguredAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bossID := uuid.New()
	policy := f.policy
	policy.AdminUserIDs = []uuid.UUID{bossID}
	svc := NewAccountService(f.store, policy)

	boss, err := svc.Register(ctx, RegisterRequest{UserID: bossID, Email: "boss@cartai.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, boss.Role)

	boss, err = svc.Login(ctx, bossID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, boss.Role)
	assert.Equal(t, domain.RoleAdmin, f.account(t, bossID).Role)

	history, err := NewAuditService(f.store).History(ctx, "account", bossID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "role_bootstrapped", history[1].Action)

	_, err = svc.Login(ctx, uuid.New())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _ := f.register(t, "lucia")
	other, _ := f.register(t, "mateo")

	_, err := f.accounts.SetRole(ctx, user, other.AccountID, domain.RoleAdmin)
	require.ErrorIs(t, err, ErrAdminRequired)

	_, err = f.accounts.SetRole(ctx, f.admin, user.AccountID, "owner")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.accounts.SetRole(ctx, f.admin, f.admin.AccountID, domain.RoleUser)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.accounts.SetRole(ctx, f.admin, uuid.New(), domain.RoleAdmin)
	require.ErrorIs(t, err, ErrAccountNotFound)

	promoted, err := f.accounts.SetRole(ctx, f.admin, user.AccountID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	demoted, err := f.accounts.SetRole(ctx, f.admin, user.AccountID, domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, demoted.Role)
	assert.Equal(t, domain.RoleUser, f.account(t, user.AccountID).Role)
}

func TestReferralCodesAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		_, acc := f.register(t, "user")
		require.False(t, seen[acc.ReferralCode], "duplicate referral code %s", acc.ReferralCode)
		seen[acc.ReferralCode] = true
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "ana")

	f.buyPackage(t, actor, "basico-50k")
	f.clock.Advance(45 * 24 * time.Hour)

	summary, err := f.accounts.Summary(ctx, actor, actor.AccountID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(50_000), summary.Account.InvestmentBalance)
	assert.Equal(t, domain.Amount(50_000), summary.TotalBalance)
	assert.True(t, summary.Account.ActivePackage)
	require.Len(t, summary.Packages, 1)
	assert.Equal(t, 45, summary.Packages[0].Progress.DaysElapsed)
	assert.Equal(t, 50, summary.Packages[0].Progress.ProgressPercent)
	assert.False(t, summary.FreeYield.Active)

	t.Run("other_user_forbidden", func(t *testing.T) {
		other, _ := f.register(t, "eve")
		_, err := f.accounts.Summary(ctx, other, actor.AccountID)
		require.ErrorIs(t, err, ErrNotOwner)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin_allowed", func(t *testing.T) {
		_, err := f.accounts.Summary(ctx, f.admin, actor.AccountID)
		require.NoError(t, err)
	})

	t.Run("unknown_account", func(t *testing.T) {
		_, err := f.accounts.Summary(ctx, f.admin, uuid.New())
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "luis")

	acc, err := f.accounts.AdjustBalance(ctx, f.admin, AdjustBalanceRequest{
		AccountID: actor.AccountID, Bucket: domain.BucketEarned, Delta: 30_000, Reason: "daily yield batch",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(30_000), acc.EarnedBalance)

	cases := []struct {
		name string
		req  AdjustBalanceRequest
		want error
	}{
		{name: "negative_result", req: AdjustBalanceRequest{AccountID: actor.AccountID, Bucket: domain.BucketEarned, Delta: -30_001, Reason: "fix"}, want: ErrNegativeBalance},
		{name: "unknown_bucket", req: AdjustBalanceRequest{AccountID: actor.AccountID, Bucket: "savings", Delta: 1, Reason: "fix"}, want: ErrInvalidBucket},
		{name: "zero_delta", req: AdjustBalanceRequest{AccountID: actor.AccountID, Bucket: domain.BucketBonus, Reason: "fix"}, want: ErrValidation},
		{name: "missing_reason", req: AdjustBalanceRequest{AccountID: actor.AccountID, Bucket: domain.BucketBonus, Delta: 1}, want: ErrValidation},
		{name: "unknown_account", req: AdjustBalanceRequest{AccountID: uuid.New(), Bucket: domain.BucketBonus, Delta: 1, Reason: "fix"}, want: ErrAccountNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.accounts.AdjustBalance(ctx, f.admin, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("requires_admin", func(t *testing.T) {
		_, err := f.accounts.AdjustBalance(ctx, actor, AdjustBalanceRequest{
			AccountID: actor.AccountID, Bucket: domain.BucketEarned, Delta: 1, Reason: "self",
		})
		require.True(t, errors.Is(err, ErrAdminRequired))
	})

	assert.Equal(t, int64(30_000), f.account(t, actor.AccountID).EarnedBalance)

	history, err := NewAuditService(f.store).History(ctx, "account", actor.AccountID.String())
	require.NoError(t, err)
	var adjustments int
	for _, h := range history {
		if h.Action == "balance_adjusted" {
			adjustments++
		}
	}
	assert.Equal(t, 1, adjustments)
	f.requireNoDrift(t)
}

func TestStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "sofia")

	f.fund(t, actor.AccountID, domain.BucketEarned, 1_000)
	f.fund(t, actor.AccountID, domain.BucketBonus, 2_000)
	f.fund(t, actor.AccountID, domain.BucketEarned, 3_000)

	entries, err := f.accounts.Statement(ctx, actor, actor.AccountID, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.Amount(3_000), entries[0].Amount)
	assert.Equal(t, domain.KindManualAdjustment, entries[0].Kind)

	entries, err = f.accounts.Statement(ctx, actor, actor.AccountID, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.Amount(1_000), entries[0].Amount)

	t.Run("huge_page_is_empty", func(t *testing.T) {
		for _, p := range []int{math.MaxInt32, math.MaxInt32/200 + 2, math.MaxInt} {
			entries, err := f.accounts.Statement(ctx, actor, actor.AccountID, p, 200)
			require.NoError(t, err)
			assert.Empty(t, entries, "page %d", p)
		}
	})
}

func TestListAccountsRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	actor, _ := f.register(t, "pablo")

	_, err := f.accounts.ListAccounts(context.Background(), actor, 10, 0)
	require.ErrorIs(t, err, ErrAdminRequired)

	all, err := f.accounts.ListAccounts(context.Background(), f.admin, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCatalogProjections(t *testing.T) {
	f := newFixture(t)
	items, err := NewCatalogService(f.store).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)

	byID := map[string]CatalogItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, domain.Amount(72_000), byID["basico-50k"].ExpectedReturn)
	assert.True(t, byID["basico-50k"].ReturnPercent.Equal(decimal.NewFromInt(144)))
	assert.Equal(t, domain.Amount(260_000), byID["ahorro-200k"].ExpectedReturn)
	assert.True(t, byID["ahorro-200k"].ReturnPercent.Equal(decimal.NewFromInt(130)))
}
