// Package memstore is an in-memory repository.Querier used by service and API tests.
// Transactions are serialized and roll back on error, and constraint violations surface
// as *pgconn.PgError with the same codes Postgres would return.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cartai/ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type state struct {
	accounts           []repository.Account
	catalog            []repository.PackageCatalog
	packages           []repository.Package
	payments           []repository.PendingPayment
	pendingWithdrawals []repository.PendingWithdrawal
	withdrawals        []repository.Withdrawal
	promos             []repository.PromoCode
	referrals          []repository.Referral
	ledger             []repository.LedgerEntry
	audit              []repository.AuditLog
	idempotency        []repository.IdempotencyKey
	ledgerSeq          int64
	auditSeq           int64
}

func (s *state) clone() *state {
	return &state{
		accounts:           slices.Clone(s.accounts),
		catalog:            slices.Clone(s.catalog),
		packages:           slices.Clone(s.packages),
		payments:           slices.Clone(s.payments),
		pendingWithdrawals: slices.Clone(s.pendingWithdrawals),
		withdrawals:        slices.Clone(s.withdrawals),
		promos:             slices.Clone(s.promos),
		referrals:          slices.Clone(s.referrals),
		ledger:             slices.Clone(s.ledger),
		audit:              slices.Clone(s.audit),
		idempotency:        slices.Clone(s.idempotency),
		ledgerSeq:          s.ledgerSeq,
		auditSeq:           s.auditSeq,
	}
}

// Store satisfies the services' QueryStore contract.
type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
	tick  time.Duration
}

// New returns a store seeded with the default package catalog.
func New() *Store {
	return &Store{
		data:  &state{catalog: DefaultCatalog()},
		clock: time.Now,
	}
}

// DefaultCatalog mirrors the catalog seeded by the SQL migrations.
func DefaultCatalog() []repository.PackageCatalog {
	return []repository.PackageCatalog{
		{ID: "basico-50k", Name: "Paquete Basico", InvestedAmount: 50_000, TermDays: 90, PayoutMode: "daily", DailyYield: 800, Active: true, SortOrder: 1},
		{ID: "plus-100k", Name: "Paquete Plus", InvestedAmount: 100_000, TermDays: 90, PayoutMode: "daily", DailyYield: 1_700, Active: true, SortOrder: 2},
		{ID: "premium-300k", Name: "Paquete Premium", InvestedAmount: 300_000, TermDays: 120, PayoutMode: "daily", DailyYield: 5_000, Active: true, SortOrder: 3},
		{ID: "ahorro-200k", Name: "Paquete Ahorro", InvestedAmount: 200_000, TermDays: 30, PayoutMode: "lump_sum", FinalPayout: 260_000, Active: true, SortOrder: 4},
	}
}

// Queries returns a query set where every call runs under the store lock.
func (s *Store) Queries() repository.Querier {
	return &queries{store: s}
}

// RunInTx runs fn against a private copy of the data and publishes it on success.
func (s *Store) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&queries{store: s, tx: snapshot}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

// UpdateCatalogItem edits a catalog row in place. It reports false for an unknown id.
func (s *Store) UpdateCatalogItem(id string, fn func(*repository.PackageCatalog)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.data.catalog, func(c repository.PackageCatalog) bool { return c.ID == id })
	if i < 0 {
		return false
	}
	fn(&s.data.catalog[i])
	return true
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) now() time.Time {
	s.tick += time.Microsecond
	return s.clock().Add(s.tick)
}

type queries struct {
	store *Store
	tx    *state
}

func (q *queries) with(fn func(st *state)) {
	if q.tx != nil {
		fn(q.tx)
		return
	}
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	fn(q.store.data)
}

func (q *queries) ts() pgtype.Timestamptz {
	return repository.ToPgTimestamptz(q.store.now())
}

var _ repository.Querier = (*queries)(nil)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func checkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23514", ConstraintName: constraint, Message: "new row violates check constraint"}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "insert or update violates foreign key constraint"}
}

func strPtr(v string) *string { return &v }

// accounts

func (st *state) accountIndex(id pgtype.UUID) int {
	return slices.IndexFunc(st.accounts, func(a repository.Account) bool { return a.ID == id })
}

func (q *queries) CreateAccount(_ context.Context, arg repository.CreateAccountParams) (out repository.Account, err error) {
	q.with(func(st *state) {
		for _, a := range st.accounts {
			switch {
			case a.ID == arg.ID:
				err = uniqueViolation("accounts_pkey")
				return
			case strings.EqualFold(a.Email, arg.Email):
				err = uniqueViolation("accounts_email_key")
				return
			case a.ReferralCode == arg.ReferralCode:
				err = uniqueViolation("accounts_referral_code_key")
				return
			}
		}
		now := q.ts()
		out = repository.Account{
			ID:           arg.ID,
			Email:        arg.Email,
			DisplayName:  arg.DisplayName,
			Role:         arg.Role,
			ReferralCode: arg.ReferralCode,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		st.accounts = append(st.accounts, out)
	})
	return out, err
}

func (q *queries) GetAccount(_ context.Context, id pgtype.UUID) (out repository.Account, err error) {
	q.with(func(st *state) {
		i := st.accountIndex(id)
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.accounts[i]
	})
	return out, err
}

func (q *queries) GetAccountForUpdate(ctx context.Context, id pgtype.UUID) (repository.Account, error) {
	return q.GetAccount(ctx, id)
}

func (q *queries) GetAccountByEmail(_ context.Context, email string) (out repository.Account, err error) {
	q.with(func(st *state) {
		i := slices.IndexFunc(st.accounts, func(a repository.Account) bool { return strings.EqualFold(a.Email, email) })
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.accounts[i]
	})
	return out, err
}

func (q *queries) GetAccountByReferralCodeForUpdate(_ context.Context, code string) (out repository.Account, err error) {
	q.with(func(st *state) {
		i := slices.IndexFunc(st.accounts, func(a repository.Account) bool { return a.ReferralCode == code })
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.accounts[i]
	})
	return out, err
}

func (q *queries) updateAccount(id pgtype.UUID, fn func(a *repository.Account) error) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.accountIndex(id)
		if i < 0 {
			return
		}
		a := st.accounts[i]
		if err = fn(&a); err != nil {
			return
		}
		a.UpdatedAt = q.ts()
		st.accounts[i] = a
		rows = 1
	})
	return rows, err
}

func (q *queries) AdjustAccountBalances(_ context.Context, arg repository.AdjustAccountBalancesParams) (int64, error) {
	return q.updateAccount(arg.ID, func(a *repository.Account) error {
		a.InvestmentBalance += arg.Investment
		a.EarnedBalance += arg.Earned
		a.BonusBalance += arg.Bonus
		a.FreeYieldAccrued += arg.FreeYield
		switch {
		case a.InvestmentBalance < 0:
			return checkViolation("accounts_investment_balance_check")
		case a.EarnedBalance < 0:
			return checkViolation("accounts_earned_balance_check")
		case a.BonusBalance < 0:
			return checkViolation("accounts_bonus_balance_check")
		case a.FreeYieldAccrued < 0:
			return checkViolation("accounts_free_yield_accrued_check")
		}
		return nil
	})
}

func (q *queries) SetAccountRole(_ context.Context, arg repository.SetAccountRoleParams) (int64, error) {
	return q.updateAccount(arg.ID, func(a *repository.Account) error {
		if arg.Role != "user" && arg.Role != "admin" {
			return checkViolation("accounts_role_check")
		}
		a.Role = arg.Role
		return nil
	})
}

func (q *queries) SetActivePackage(_ context.Context, id pgtype.UUID) (int64, error) {
	return q.updateAccount(id, func(a *repository.Account) error {
		a.ActivePackage = true
		return nil
	})
}

func (q *queries) SetReferredBy(_ context.Context, arg repository.SetReferredByParams) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.accountIndex(arg.ID)
		if i < 0 || st.accounts[i].ReferredByCode != nil {
			return
		}
		st.accounts[i].ReferredByCode = strPtr(arg.ReferredByCode)
		st.accounts[i].UpdatedAt = q.ts()
		rows = 1
	})
	return rows, err
}

func (q *queries) SetWithdrawalDestination(_ context.Context, arg repository.SetWithdrawalDestinationParams) (int64, error) {
	return q.updateAccount(arg.ID, func(a *repository.Account) error {
		a.WithdrawalMethod = strPtr(arg.WithdrawalMethod)
		a.WithdrawalAccount = strPtr(arg.WithdrawalAccount)
		return nil
	})
}

func (q *queries) StartFreeYield(_ context.Context, arg repository.StartFreeYieldParams) (int64, error) {
	return q.updateAccount(arg.ID, func(a *repository.Account) error {
		a.FreeYieldActive = true
		a.FreeYieldStartedOn = arg.StartedOn
		a.FreeYieldLastClaimOn = pgtype.Date{}
		a.FreeYieldAccrued = 0
		return nil
	})
}

func (q *queries) MarkFreeYieldClaimed(_ context.Context, arg repository.MarkFreeYieldClaimedParams) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.accountIndex(arg.ID)
		if i < 0 {
			return
		}
		a := st.accounts[i]
		if !a.FreeYieldActive {
			return
		}
		if a.FreeYieldLastClaimOn.Valid && a.FreeYieldLastClaimOn.Time.Equal(arg.ClaimedOn.Time) {
			return
		}
		a.FreeYieldLastClaimOn = arg.ClaimedOn
		a.UpdatedAt = q.ts()
		st.accounts[i] = a
		rows = 1
	})
	return rows, err
}

func (q *queries) ListAccounts(_ context.Context, arg repository.ListAccountsParams) (out []repository.Account, err error) {
	q.with(func(st *state) {
		all := slices.Clone(st.accounts)
		slices.Reverse(all)
		out = page(all, arg.Limit, arg.Offset)
	})
	return out, err
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

// catalog and packages

func (q *queries) ListCatalog(_ context.Context) (out []repository.PackageCatalog, err error) {
	q.with(func(st *state) {
		for _, c := range st.catalog {
			if c.Active {
				out = append(out, c)
			}
		}
		slices.SortStableFunc(out, func(a, b repository.PackageCatalog) int { return int(a.SortOrder - b.SortOrder) })
	})
	return out, err
}

func (q *queries) GetCatalogItem(_ context.Context, id string) (out repository.PackageCatalog, err error) {
	q.with(func(st *state) {
		i := slices.IndexFunc(st.catalog, func(c repository.PackageCatalog) bool { return c.ID == id })
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.catalog[i]
	})
	return out, err
}

func (q *queries) InsertPackage(_ context.Context, arg repository.InsertPackageParams) (out repository.Package, err error) {
	q.with(func(st *state) {
		for _, p := range st.packages {
			if p.ID == arg.ID {
				err = uniqueViolation("packages_pkey")
				return
			}
			if p.PaymentID == arg.PaymentID {
				err = uniqueViolation("packages_payment_id_key")
				return
			}
		}
		if st.accountIndex(arg.AccountID) < 0 {
			err = foreignKeyViolation("packages_account_id_fkey")
			return
		}
		out = repository.Package{
			ID:             arg.ID,
			AccountID:      arg.AccountID,
			CatalogID:      arg.CatalogID,
			PaymentID:      arg.PaymentID,
			Name:           arg.Name,
			InvestedAmount: arg.InvestedAmount,
			TermDays:       arg.TermDays,
			PayoutMode:     arg.PayoutMode,
			DailyYield:     arg.DailyYield,
			FinalPayout:    arg.FinalPayout,
			Status:         arg.Status,
			PurchasedAt:    arg.PurchasedAt,
		}
		st.packages = append(st.packages, out)
	})
	return out, err
}

func (q *queries) ListPackagesByAccount(_ context.Context, accountID pgtype.UUID) (out []repository.Package, err error) {
	q.with(func(st *state) {
		for _, p := range st.packages {
			if p.AccountID == accountID {
				out = append(out, p)
			}
		}
		slices.Reverse(out)
	})
	return out, err
}

func (q *queries) FinalizeMaturedPackages(_ context.Context, now pgtype.Timestamptz) (rows int64, err error) {
	q.with(func(st *state) {
		for i, p := range st.packages {
			if p.Status != "activo" {
				continue
			}
			matures := p.PurchasedAt.Time.AddDate(0, 0, int(p.TermDays))
			if !matures.After(now.Time) {
				st.packages[i].Status = "finalizado"
				rows++
			}
		}
	})
	return rows, err
}

// payments

func (st *state) paymentIndex(id pgtype.UUID) int {
	return slices.IndexFunc(st.payments, func(p repository.PendingPayment) bool { return p.ID == id })
}

func (q *queries) InsertPendingPayment(_ context.Context, arg repository.InsertPendingPaymentParams) (out repository.PendingPayment, err error) {
	q.with(func(st *state) {
		if st.paymentIndex(arg.ID) >= 0 {
			err = uniqueViolation("pending_payments_pkey")
			return
		}
		if st.accountIndex(arg.AccountID) < 0 {
			err = foreignKeyViolation("pending_payments_account_id_fkey")
			return
		}
		if !slices.ContainsFunc(st.catalog, func(c repository.PackageCatalog) bool { return c.ID == arg.CatalogID }) {
			err = foreignKeyViolation("pending_payments_catalog_id_fkey")
			return
		}
		now := q.ts()
		out = repository.PendingPayment{
			ID:        arg.ID,
			AccountID: arg.AccountID,
			CatalogID: arg.CatalogID,
			Amount:    arg.Amount,
			Status:    "pending",
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.payments = append(st.payments, out)
	})
	return out, err
}

func (q *queries) GetPendingPayment(_ context.Context, id pgtype.UUID) (out repository.PendingPayment, err error) {
	q.with(func(st *state) {
		i := st.paymentIndex(id)
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.payments[i]
	})
	return out, err
}

func (q *queries) GetPendingPaymentForUpdate(ctx context.Context, id pgtype.UUID) (repository.PendingPayment, error) {
	return q.GetPendingPayment(ctx, id)
}

func (q *queries) UpdatePendingPaymentReference(_ context.Context, arg repository.UpdatePendingPaymentReferenceParams) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.paymentIndex(arg.ID)
		if i < 0 {
			return
		}
		st.payments[i].Reference = strPtr(arg.Reference)
		st.payments[i].Status = arg.Status
		st.payments[i].UpdatedAt = q.ts()
		rows = 1
	})
	return rows, err
}

func (q *queries) DeletePendingPayment(_ context.Context, id pgtype.UUID) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.paymentIndex(id)
		if i < 0 {
			return
		}
		st.payments = slices.Delete(st.payments, i, i+1)
		rows = 1
	})
	return rows, err
}

func (q *queries) ListPendingPayments(_ context.Context) (out []repository.PendingPayment, err error) {
	q.with(func(st *state) {
		out = slices.Clone(st.payments)
	})
	return out, err
}

func (q *queries) ListPendingPaymentsByAccount(_ context.Context, accountID pgtype.UUID) (out []repository.PendingPayment, err error) {
	q.with(func(st *state) {
		for _, p := range st.payments {
			if p.AccountID == accountID {
				out = append(out, p)
			}
		}
	})
	return out, err
}

func (q *queries) CountPendingPayments(_ context.Context) (n int64, err error) {
	q.with(func(st *state) {
		n = int64(len(st.payments))
	})
	return n, err
}

// withdrawals

func (st *state) pendingWithdrawalIndex(id pgtype.UUID) int {
	return slices.IndexFunc(st.pendingWithdrawals, func(w repository.PendingWithdrawal) bool { return w.ID == id })
}

func (q *queries) InsertPendingWithdrawal(_ context.Context, arg repository.InsertPendingWithdrawalParams) (out repository.PendingWithdrawal, err error) {
	q.with(func(st *state) {
		if st.pendingWithdrawalIndex(arg.ID) >= 0 {
			err = uniqueViolation("pending_withdrawals_pkey")
			return
		}
		if st.accountIndex(arg.AccountID) < 0 {
			err = foreignKeyViolation("pending_withdrawals_account_id_fkey")
			return
		}
		out = repository.PendingWithdrawal{
			ID:          arg.ID,
			AccountID:   arg.AccountID,
			Amount:      arg.Amount,
			Method:      arg.Method,
			Destination: arg.Destination,
			Status:      "pending",
			CreatedAt:   q.ts(),
		}
		st.pendingWithdrawals = append(st.pendingWithdrawals, out)
	})
	return out, err
}

func (q *queries) GetPendingWithdrawalForUpdate(_ context.Context, id pgtype.UUID) (out repository.PendingWithdrawal, err error) {
	q.with(func(st *state) {
		i := st.pendingWithdrawalIndex(id)
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.pendingWithdrawals[i]
	})
	return out, err
}

func (q *queries) DeletePendingWithdrawal(_ context.Context, id pgtype.UUID) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.pendingWithdrawalIndex(id)
		if i < 0 {
			return
		}
		st.pendingWithdrawals = slices.Delete(st.pendingWithdrawals, i, i+1)
		rows = 1
	})
	return rows, err
}

func (q *queries) ListPendingWithdrawals(_ context.Context) (out []repository.PendingWithdrawal, err error) {
	q.with(func(st *state) {
		out = slices.Clone(st.pendingWithdrawals)
	})
	return out, err
}

func (q *queries) ListPendingWithdrawalsByAccount(_ context.Context, accountID pgtype.UUID) (out []repository.PendingWithdrawal, err error) {
	q.with(func(st *state) {
		for _, w := range st.pendingWithdrawals {
			if w.AccountID == accountID {
				out = append(out, w)
			}
		}
	})
	return out, err
}

func (q *queries) CountPendingWithdrawals(_ context.Context) (n int64, err error) {
	q.with(func(st *state) {
		n = int64(len(st.pendingWithdrawals))
	})
	return n, err
}

func (q *queries) InsertWithdrawalRecord(_ context.Context, arg repository.InsertWithdrawalRecordParams) (out repository.Withdrawal, err error) {
	q.with(func(st *state) {
		if slices.ContainsFunc(st.withdrawals, func(w repository.Withdrawal) bool { return w.ID == arg.ID }) {
			err = uniqueViolation("withdrawals_pkey")
			return
		}
		out = repository.Withdrawal{
			ID:          arg.ID,
			AccountID:   arg.AccountID,
			Amount:      arg.Amount,
			Method:      arg.Method,
			Destination: arg.Destination,
			Status:      arg.Status,
			Reason:      arg.Reason,
			RequestedAt: arg.RequestedAt,
			ResolvedAt:  q.ts(),
			ResolvedBy:  arg.ResolvedBy,
		}
		st.withdrawals = append(st.withdrawals, out)
	})
	return out, err
}

func (q *queries) ListWithdrawalsByAccount(_ context.Context, accountID pgtype.UUID) (out []repository.Withdrawal, err error) {
	q.with(func(st *state) {
		for _, w := range st.withdrawals {
			if w.AccountID == accountID {
				out = append(out, w)
			}
		}
		slices.Reverse(out)
	})
	return out, err
}

// promo codes and referrals

func (st *state) promoIndex(code string) int {
	return slices.IndexFunc(st.promos, func(p repository.PromoCode) bool { return p.Code == code })
}

func (q *queries) CreatePromoCode(_ context.Context, arg repository.CreatePromoCodeParams) (out repository.PromoCode, err error) {
	q.with(func(st *state) {
		if st.promoIndex(arg.Code) >= 0 {
			err = uniqueViolation("promo_codes_pkey")
			return
		}
		if arg.CreditValue <= 0 {
			err = checkViolation("promo_codes_credit_value_check")
			return
		}
		out = repository.PromoCode{Code: arg.Code, CreditValue: arg.CreditValue, CreatedAt: q.ts()}
		st.promos = append(st.promos, out)
	})
	return out, err
}

func (q *queries) GetPromoCodeForUpdate(_ context.Context, code string) (out repository.PromoCode, err error) {
	q.with(func(st *state) {
		i := st.promoIndex(code)
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.promos[i]
	})
	return out, err
}

func (q *queries) MarkPromoCodeUsed(_ context.Context, arg repository.MarkPromoCodeUsedParams) (rows int64, err error) {
	q.with(func(st *state) {
		i := st.promoIndex(arg.Code)
		if i < 0 || st.promos[i].Used {
			return
		}
		st.promos[i].Used = true
		st.promos[i].RedeemedBy = arg.RedeemedBy
		st.promos[i].RedeemedAt = q.ts()
		rows = 1
	})
	return rows, err
}

func (q *queries) ListPromoCodes(_ context.Context) (out []repository.PromoCode, err error) {
	q.with(func(st *state) {
		out = slices.Clone(st.promos)
		slices.Reverse(out)
	})
	return out, err
}

func (q *queries) InsertReferral(_ context.Context, arg repository.InsertReferralParams) (out repository.Referral, err error) {
	q.with(func(st *state) {
		if slices.ContainsFunc(st.referrals, func(r repository.Referral) bool { return r.RefereeID == arg.RefereeID }) {
			err = uniqueViolation("referrals_pkey")
			return
		}
		if st.accountIndex(arg.RefereeID) < 0 || st.accountIndex(arg.ReferrerID) < 0 {
			err = foreignKeyViolation("referrals_account_fkey")
			return
		}
		out = repository.Referral{
			RefereeID:     arg.RefereeID,
			ReferrerID:    arg.ReferrerID,
			Code:          arg.Code,
			RefereeBonus:  arg.RefereeBonus,
			ReferrerBonus: arg.ReferrerBonus,
			CreatedAt:     q.ts(),
		}
		st.referrals = append(st.referrals, out)
	})
	return out, err
}

func (q *queries) ListReferralsByReferrer(_ context.Context, referrerID pgtype.UUID) (out []repository.Referral, err error) {
	q.with(func(st *state) {
		for _, r := range st.referrals {
			if r.ReferrerID == referrerID {
				out = append(out, r)
			}
		}
		slices.Reverse(out)
	})
	return out, err
}

// ledger and audit

func (q *queries) InsertLedgerEntry(_ context.Context, arg repository.InsertLedgerEntryParams) (out repository.LedgerEntry, err error) {
	q.with(func(st *state) {
		if st.accountIndex(arg.AccountID) < 0 {
			err = foreignKeyViolation("ledger_entries_account_id_fkey")
			return
		}
		switch arg.Bucket {
		case "investment", "earned", "bonus", "free_yield":
		default:
			err = checkViolation("ledger_entries_bucket_check")
			return
		}
		st.ledgerSeq++
		out = repository.LedgerEntry{
			ID:        st.ledgerSeq,
			AccountID: arg.AccountID,
			Bucket:    arg.Bucket,
			Amount:    arg.Amount,
			Kind:      arg.Kind,
			Reference: arg.Reference,
			CreatedAt: q.ts(),
		}
		st.ledger = append(st.ledger, out)
	})
	return out, err
}

func (q *queries) ListLedgerEntries(_ context.Context, arg repository.ListLedgerEntriesParams) (out []repository.LedgerEntry, err error) {
	q.with(func(st *state) {
		var mine []repository.LedgerEntry
		for _, e := range st.ledger {
			if e.AccountID == arg.AccountID {
				mine = append(mine, e)
			}
		}
		slices.Reverse(mine)
		out = page(mine, arg.Limit, arg.Offset)
	})
	return out, err
}

func (q *queries) GetLedgerDrift(_ context.Context) (out []repository.GetLedgerDriftRow, err error) {
	q.with(func(st *state) {
		type key struct {
			account pgtype.UUID
			bucket  string
		}
		sums := map[key]int64{}
		for _, e := range st.ledger {
			sums[key{e.AccountID, e.Bucket}] += e.Amount
		}
		for _, a := range st.accounts {
			balances := []struct {
				bucket string
				value  int64
			}{
				{"bonus", a.BonusBalance},
				{"earned", a.EarnedBalance},
				{"free_yield", a.FreeYieldAccrued},
				{"investment", a.InvestmentBalance},
			}
			for _, b := range balances {
				ledger := sums[key{a.ID, b.bucket}]
				if ledger != b.value {
					out = append(out, repository.GetLedgerDriftRow{
						AccountID:    a.ID,
						Bucket:       b.bucket,
						LedgerTotal:  ledger,
						BalanceTotal: b.value,
					})
				}
			}
		}
	})
	return out, err
}

func (q *queries) InsertAuditLog(_ context.Context, arg repository.InsertAuditLogParams) (out repository.AuditLog, err error) {
	q.with(func(st *state) {
		st.auditSeq++
		out = repository.AuditLog{
			ID:         st.auditSeq,
			EntityType: arg.EntityType,
			EntityID:   arg.EntityID,
			ActorID:    arg.ActorID,
			Action:     arg.Action,
			PrevState:  arg.PrevState,
			NextState:  arg.NextState,
			Metadata:   slices.Clone(arg.Metadata),
			CreatedAt:  q.ts(),
		}
		st.audit = append(st.audit, out)
	})
	return out, err
}

func (q *queries) ListAuditLogByEntity(_ context.Context, arg repository.ListAuditLogByEntityParams) (out []repository.AuditLog, err error) {
	q.with(func(st *state) {
		for _, a := range st.audit {
			if a.EntityType == arg.EntityType && a.EntityID == arg.EntityID {
				out = append(out, a)
			}
		}
	})
	return out, err
}

// idempotency

func (st *state) idempotencyIndex(key string) int {
	return slices.IndexFunc(st.idempotency, func(k repository.IdempotencyKey) bool { return k.IdempotencyKey == key })
}

func (q *queries) GetIdempotencyKey(_ context.Context, key string) (out repository.IdempotencyKey, err error) {
	q.with(func(st *state) {
		i := st.idempotencyIndex(key)
		if i < 0 {
			err = pgx.ErrNoRows
			return
		}
		out = st.idempotency[i]
	})
	return out, err
}

func (q *queries) ReserveIdempotencyKey(_ context.Context, arg repository.ReserveIdempotencyKeyParams) (out repository.IdempotencyKey, err error) {
	q.with(func(st *state) {
		if st.idempotencyIndex(arg.IdempotencyKey) >= 0 {
			err = pgx.ErrNoRows
			return
		}
		now := q.ts()
		out = repository.IdempotencyKey{
			IdempotencyKey: arg.IdempotencyKey,
			RequestHash:    arg.RequestHash,
			Method:         arg.Method,
			Path:           arg.Path,
			InProgress:     true,
			ContentType:    "application/json",
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		st.idempotency = append(st.idempotency, out)
	})
	return out, err
}

func (q *queries) FinalizeIdempotencyKey(_ context.Context, arg repository.FinalizeIdempotencyKeyParams) (out repository.IdempotencyKey, err error) {
	q.with(func(st *state) {
		i := st.idempotencyIndex(arg.IdempotencyKey)
		if i < 0 || st.idempotency[i].RequestHash != arg.RequestHash {
			err = pgx.ErrNoRows
			return
		}
		k := st.idempotency[i]
		k.InProgress = false
		k.ResponseStatus = arg.ResponseStatus
		k.ResponseBody = slices.Clone(arg.ResponseBody)
		k.ContentType = arg.ContentType
		k.UpdatedAt = q.ts()
		st.idempotency[i] = k
		out = k
	})
	return out, err
}

func (q *queries) DeleteIdempotencyKeysBefore(_ context.Context, before pgtype.Timestamptz) (rows int64, err error) {
	q.with(func(st *state) {
		kept := st.idempotency[:0]
		for _, k := range st.idempotency {
			if k.UpdatedAt.Time.Before(before.Time) {
				rows++
				continue
			}
			kept = append(kept, k)
		}
		st.idempotency = kept
	})
	return rows, err
}
