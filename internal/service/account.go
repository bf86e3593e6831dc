package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const referralCodeAttempts = 5

// AccountService owns registration, account reads and manual balance corrections.
type AccountService struct {
	store  QueryStore
	audit  *AuditService
	policy Policy
	now    func() time.Time
}

func NewAccountService(store QueryStore, policy Policy) *AccountService {
	return &AccountService{
		store:  store,
		audit:  NewAuditService(store),
		policy: policy,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

type RegisterRequest struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// Register creates the account for a verified identity-provider user. New accounts are
// always plain users; admins are promoted at login or by another admin.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*AccountView, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}

	role := domain.RoleUser
	for attempt := 1; ; attempt++ {
		var created repository.Account
		err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
			acc, err := qtx.CreateAccount(ctx, repository.CreateAccountParams{
				ID:           repository.ToPgUUID(req.UserID),
				Email:        req.Email,
				DisplayName:  req.DisplayName,
				Role:         role,
				ReferralCode: newReferralCode(),
			})
			if err != nil {
				return err
			}
			created = acc
			return s.audit.Write(ctx, qtx, "account", req.UserID.String(), &req.UserID, "registered", "", role, nil)
		})
		if err == nil {
			view := accountView(created)
			return &view, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "referral_code") && attempt < referralCodeAttempts {
				zap.L().Debug("referral code collision, retrying", zap.Int("attempt", attempt))
				continue
			}
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
}

// newReferralCode returns 8 upper-case hex characters.
func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

// Get returns the stored account. Used by login to resolve the stored role.
func (s *AccountService) Get(ctx context.Context, accountID uuid.UUID) (*AccountView, error) {
	acc, err := s.store.Queries().GetAccount(ctx, repository.ToPgUUID(accountID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	view := accountView(acc)
	return &view, nil
}

// Login resolves the account of a verified identity. Ids listed in the policy's
// AdminUserIDs are promoted to admin here, once, with an audit entry.
func (s *AccountService) Login(ctx context.Context, userID uuid.UUID) (*AccountView, error) {
	view, err := s.Get(ctx, userID)
	if err != nil || view.Role == domain.RoleAdmin || !s.policy.isBootstrapAdmin(userID) {
		return view, err
	}
	updated, err := s.changeRole(ctx, userID, nil, domain.RoleAdmin, "role_bootstrapped")
	if err != nil {
		return nil, err
	}
	zap.L().Info("admin role granted from configuration", zap.String("account_id", userID.String()))
	return updated, nil
}

// SetRole lets an admin promote or demote another account.
func (s *AccountService) SetRole(ctx context.Context, actor Actor, accountID uuid.UUID, role string) (*AccountView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrValidation, domain.RoleUser, domain.RoleAdmin)
	}
	if accountID == actor.AccountID {
		return nil, fmt.Errorf("%w: admins cannot change their own role", ErrValidation)
	}
	return s.changeRole(ctx, accountID, &actor.AccountID, role, "role_changed")
}

func (s *AccountService) changeRole(ctx context.Context, accountID uuid.UUID, by *uuid.UUID, role, action string) (*AccountView, error) {
	var updated repository.Account
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(accountID)
		before, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		rows, err := qtx.SetAccountRole(ctx, repository.SetAccountRoleParams{ID: id, Role: role})
		if err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		if err := requireExactlyOne(rows, "set role"); err != nil {
			return err
		}
		updated = before
		updated.Role = role
		return s.audit.Write(ctx, qtx, "account", accountID.String(), by, action, before.Role, role, nil)
	})
	if err != nil {
		return nil, err
	}
	view := accountView(updated)
	return &view, nil
}

type AccountSummary struct {
	Account            AccountView            `json:"account"`
	TotalBalance       domain.Amount          `json:"total_balance"`
	Packages           []PackageView          `json:"packages"`
	FreeYield          domain.FreeYieldStatus `json:"free_yield"`
	ReferralCount      int                    `json:"referral_count"`
	PendingPayments    int                    `json:"pending_payments"`
	PendingWithdrawals int                    `json:"pending_withdrawals"`
}

// Summary returns balances, package progress and trial status. Owner or admin only.
func (s *AccountService) Summary(ctx context.Context, actor Actor, accountID uuid.UUID) (*AccountSummary, error) {
	if err := requireOwnerOrAdmin(actor, accountID); err != nil {
		return nil, err
	}
	q := s.store.Queries()
	id := repository.ToPgUUID(accountID)

	acc, err := q.GetAccount(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	pkgs, err := q.ListPackagesByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	referrals, err := q.ListReferralsByReferrer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	payments, err := q.ListPendingPaymentsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	withdrawals, err := q.ListPendingWithdrawalsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}

	now := s.now()
	out := &AccountSummary{
		Account:            accountView(acc),
		Packages:           make([]PackageView, 0, len(pkgs)),
		ReferralCount:      len(referrals),
		PendingPayments:    len(payments),
		PendingWithdrawals: len(withdrawals),
	}
	out.TotalBalance = out.Account.InvestmentBalance + out.Account.EarnedBalance + out.Account.BonusBalance
	for _, p := range pkgs {
		out.Packages = append(out.Packages, packageView(p, now))
	}
	today := domain.CalendarDay(now, s.policy.location())
	out.FreeYield = freeYieldState(acc).Status(today, s.policy.FreeYieldTermDays)
	return out, nil
}

// Statement pages through the account's ledger entries, newest first.
const (
	maxStatementPageSize = 200
	maxStatementPage     = math.MaxInt32/maxStatementPageSize + 1
)

func (s *AccountService) Statement(ctx context.Context, actor Actor, accountID uuid.UUID, page, pageSize int) ([]EntryView, error) {
	if err := requireOwnerOrAdmin(actor, accountID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxStatementPageSize {
		pageSize = maxStatementPageSize
	}
	// Keeps the offset inside int32; pages this deep are empty anyway.
	page = min(page, maxStatementPage)
	offset := (page - 1) * pageSize

	q := s.store.Queries()
	if _, err := q.GetAccount(ctx, repository.ToPgUUID(accountID)); err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	rows, err := q.ListLedgerEntries(ctx, repository.ListLedgerEntriesParams{
		AccountID: repository.ToPgUUID(accountID),
		Limit:     int32(pageSize),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	out := make([]EntryView, 0, len(rows))
	for _, e := range rows {
		out = append(out, entryView(e))
	}
	return out, nil
}

type AdjustBalanceRequest struct {
	AccountID uuid.UUID
	Bucket    string
	Delta     domain.Amount
	Reason    string
}

// AdjustBalance applies an audited manual correction. The bucket must stay non-negative.
func (s *AccountService) AdjustBalance(ctx context.Context, actor Actor, req AdjustBalanceRequest) (*AccountView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !domain.IsBucket(req.Bucket) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBucket, req.Bucket)
	}
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	var updated repository.Account
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(req.AccountID)
		before, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if err := postMovements(ctx, qtx, req.AccountID, domain.KindManualAdjustment, req.Reason, credit(req.Bucket, req.Delta)); err != nil {
			return err
		}
		updated, err = qtx.GetAccount(ctx, id)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		meta := auditMetadata(map[string]any{
			"bucket": req.Bucket,
			"delta":  int64(req.Delta),
			"reason": req.Reason,
		})
		return s.audit.Write(ctx, qtx, "account", req.AccountID.String(), &actor.AccountID, "balance_adjusted",
			bucketValue(before, req.Bucket).String(), bucketValue(updated, req.Bucket).String(), meta)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("manual balance adjustment",
		zap.String("account_id", req.AccountID.String()),
		zap.String("bucket", req.Bucket),
		zap.Int64("delta", int64(req.Delta)),
		zap.String("admin_id", actor.AccountID.String()),
	)
	view := accountView(updated)
	return &view, nil
}

func bucketValue(a repository.Account, bucket string) domain.Amount {
	switch bucket {
	case domain.BucketInvestment:
		return domain.Amount(a.InvestmentBalance)
	case domain.BucketEarned:
		return domain.Amount(a.EarnedBalance)
	case domain.BucketBonus:
		return domain.Amount(a.BonusBalance)
	case domain.BucketFreeYield:
		return domain.Amount(a.FreeYieldAccrued)
	}
	return 0
}

// ListAccounts is the admin directory.
func (s *AccountService) ListAccounts(ctx context.Context, actor Actor, limit, offset int32) ([]AccountView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.Queries().ListAccounts(ctx, repository.ListAccountsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]AccountView, 0, len(rows))
	for _, a := range rows {
		out = append(out, accountView(a))
	}
	return out, nil
}
