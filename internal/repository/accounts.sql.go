package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const accountColumns = `id, email, display_name, role, investment_balance, earned_balance, bonus_balance,
	free_yield_active, free_yield_started_on, free_yield_last_claim_on, free_yield_accrued,
	withdrawal_method, withdrawal_account, referral_code, referred_by_code, active_package,
	created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.DisplayName,
		&i.Role,
		&i.InvestmentBalance,
		&i.EarnedBalance,
		&i.BonusBalance,
		&i.FreeYieldActive,
		&i.FreeYieldStartedOn,
		&i.FreeYieldLastClaimOn,
		&i.FreeYieldAccrued,
		&i.WithdrawalMethod,
		&i.WithdrawalAccount,
		&i.ReferralCode,
		&i.ReferredByCode,
		&i.ActivePackage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, email, display_name, role, referral_code)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID           pgtype.UUID `json:"id"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"display_name"`
	Role         string      `json:"role"`
	ReferralCode string      `json:"referral_code"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.Email,
		arg.DisplayName,
		arg.Role,
		arg.ReferralCode,
	)
	return scanAccount(row)
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1`

func (q *Queries) GetAccount(ctx context.Context, id pgtype.UUID) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccount, id))
}

const getAccountForUpdate = `-- name: GetAccountForUpdate :one
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetAccountForUpdate(ctx context.Context, id pgtype.UUID) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountForUpdate, id))
}

const getAccountByEmail = `-- name: GetAccountByEmail :one
SELECT ` + accountColumns + `
FROM accounts
WHERE lower(email) = lower($1)`

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountByEmail, email))
}

const getAccountByReferralCodeForUpdate = `-- name: GetAccountByReferralCodeForUpdate :one
SELECT ` + accountColumns + `
FROM accounts
WHERE referral_code = $1
FOR UPDATE`

func (q *Queries) GetAccountByReferralCodeForUpdate(ctx context.Context, referralCode string) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountByReferralCodeForUpdate, referralCode))
}

const adjustAccountBalances = `-- name: AdjustAccountBalances :execrows
UPDATE accounts
SET investment_balance = investment_balance + $2,
    earned_balance = earned_balance + $3,
    bonus_balance = bonus_balance + $4,
    free_yield_accrued = free_yield_accrued + $5,
    updated_at = NOW()
WHERE id = $1`

type AdjustAccountBalancesParams struct {
	ID         pgtype.UUID `json:"id"`
	Investment int64       `json:"investment"`
	Earned     int64       `json:"earned"`
	Bonus      int64       `json:"bonus"`
	FreeYield  int64       `json:"free_yield"`
}

func (q *Queries) AdjustAccountBalances(ctx context.Context, arg AdjustAccountBalancesParams) (int64, error) {
	result, err := q.db.Exec(ctx, adjustAccountBalances,
		arg.ID,
		arg.Investment,
		arg.Earned,
		arg.Bonus,
		arg.FreeYield,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setActivePackage = `-- name: SetActivePackage :execrows
UPDATE accounts
SET active_package = TRUE, updated_at = NOW()
WHERE id = $1`

func (q *Queries) SetActivePackage(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, setActivePackage, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setAccountRole = `-- name: SetAccountRole :execrows
UPDATE accounts
SET role = $2, updated_at = NOW()
WHERE id = $1`

type SetAccountRoleParams struct {
	ID   pgtype.UUID `json:"id"`
	Role string      `json:"role"`
}

func (q *Queries) SetAccountRole(ctx context.Context, arg SetAccountRoleParams) (int64, error) {
	result, err := q.db.Exec(ctx, setAccountRole, arg.ID, arg.Role)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setReferredBy = `-- name: SetReferredBy :execrows
UPDATE accounts
SET referred_by_code = $2, updated_at = NOW()
WHERE id = $1 AND referred_by_code IS NULL`

type SetReferredByParams struct {
	ID             pgtype.UUID `json:"id"`
	ReferredByCode string      `json:"referred_by_code"`
}

func (q *Queries) SetReferredBy(ctx context.Context, arg SetReferredByParams) (int64, error) {
	result, err := q.db.Exec(ctx, setReferredBy, arg.ID, arg.ReferredByCode)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setWithdrawalDestination = `-- name: SetWithdrawalDestination :execrows
UPDATE accounts
SET withdrawal_method = $2, withdrawal_account = $3, updated_at = NOW()
WHERE id = $1`

type SetWithdrawalDestinationParams struct {
	ID                pgtype.UUID `json:"id"`
	WithdrawalMethod  string      `json:"withdrawal_method"`
	WithdrawalAccount string      `json:"withdrawal_account"`
}

func (q *Queries) SetWithdrawalDestination(ctx context.Context, arg SetWithdrawalDestinationParams) (int64, error) {
	result, err := q.db.Exec(ctx, setWithdrawalDestination, arg.ID, arg.WithdrawalMethod, arg.WithdrawalAccount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const startFreeYield = `-- name: StartFreeYield :execrows
UPDATE accounts
SET free_yield_active = TRUE,
    free_yield_started_on = $2,
    free_yield_last_claim_on = NULL,
    free_yield_accrued = 0,
    updated_at = NOW()
WHERE id = $1`

type StartFreeYieldParams struct {
	ID        pgtype.UUID `json:"id"`
	StartedOn pgtype.Date `json:"started_on"`
}

func (q *Queries) StartFreeYield(ctx context.Context, arg StartFreeYieldParams) (int64, error) {
	result, err := q.db.Exec(ctx, startFreeYield, arg.ID, arg.StartedOn)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markFreeYieldClaimed = `-- name: MarkFreeYieldClaimed :execrows
UPDATE accounts
SET free_yield_last_claim_on = $2, updated_at = NOW()
WHERE id = $1
  AND free_yield_active
  AND free_yield_last_claim_on IS DISTINCT FROM $2`

type MarkFreeYieldClaimedParams struct {
	ID        pgtype.UUID `json:"id"`
	ClaimedOn pgtype.Date `json:"claimed_on"`
}

func (q *Queries) MarkFreeYieldClaimed(ctx context.Context, arg MarkFreeYieldClaimedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markFreeYieldClaimed, arg.ID, arg.ClaimedOn)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listAccounts = `-- name: ListAccounts :many
SELECT ` + accountColumns + `
FROM accounts
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		i, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
