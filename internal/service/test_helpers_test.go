package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/cartai/ledger/internal/testutil/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store       *memstore.Store
	clock       *testClock
	policy      Policy
	accounts    *AccountService
	payments    *PaymentService
	withdrawals *WithdrawalService
	referrals   *ReferralService
	promos      *PromoService
	freeYield   *FreeYieldService
	admin       Actor
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPolicy(t, DefaultPolicy())
}

func newFixtureWithPolicy(t *testing.T, policy Policy) *fixture {
	t.Helper()

	adminID := uuid.New()
	policy.AdminUserIDs = append(slices.Clone(policy.AdminUserIDs), adminID)
	store := memstore.New()
	clock := &testClock{now: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	f := &fixture{
		store:       store,
		clock:       clock,
		policy:      policy,
		accounts:    NewAccountService(store, policy).WithClock(clock.Now),
		payments:    NewPaymentService(store).WithClock(clock.Now),
		withdrawals: NewWithdrawalService(store, policy).WithClock(clock.Now),
		referrals:   NewReferralService(store, policy),
		promos:      NewPromoService(store),
		freeYield:   NewFreeYieldService(store, policy).WithClock(clock.Now),
	}

	_, err := f.accounts.Register(context.Background(), RegisterRequest{
		UserID:      adminID,
		Email:       "ops@cartai.com",
		DisplayName: "Admin",
	})
	require.NoError(t, err)
	admin, err := f.accounts.Login(context.Background(), adminID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	f.admin = Actor{AccountID: admin.ID, Role: admin.Role}
	return f
}

func (f *fixture) register(t *testing.T, name string) (Actor, *AccountView) {
	t.Helper()
	acc, err := f.accounts.Register(context.Background(), RegisterRequest{
		UserID:      uuid.New(),
		Email:       fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:6]),
		DisplayName: name,
	})
	require.NoError(t, err)
	return Actor{AccountID: acc.ID, Role: acc.Role}, acc
}

func (f *fixture) account(t *testing.T, id uuid.UUID) repository.Account {
	t.Helper()
	acc, err := f.store.Queries().GetAccount(context.Background(), repository.ToPgUUID(id))
	require.NoError(t, err)
	return acc
}

// fund credits a bucket through the audited admin adjustment path.
func (f *fixture) fund(t *testing.T, id uuid.UUID, bucket string, amount domain.Amount) {
	t.Helper()
	_, err := f.accounts.AdjustBalance(context.Background(), f.admin, AdjustBalanceRequest{
		AccountID: id,
		Bucket:    bucket,
		Delta:     amount,
		Reason:    "test funding",
	})
	require.NoError(t, err)
}

// buyPackage runs the full deposit flow for a catalog item.
func (f *fixture) buyPackage(t *testing.T, actor Actor, catalogID string) *ApprovePaymentResult {
	t.Helper()
	ctx := context.Background()
	intent, err := f.payments.CreatePaymentIntent(ctx, actor, catalogID)
	require.NoError(t, err)
	_, err = f.payments.SubmitReference(ctx, actor, intent.ID, "REF-"+intent.ID.String()[:8])
	require.NoError(t, err)
	res, err := f.payments.Approve(ctx, f.admin, intent.ID)
	require.NoError(t, err)
	return res
}

func (f *fixture) requireNoDrift(t *testing.T) {
	t.Helper()
	drift, err := NewReconciliationService(f.store).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, drift)
}
