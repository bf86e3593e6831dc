package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const pendingWithdrawalColumns = `id, account_id, amount, method, destination, status, created_at`

func scanPendingWithdrawal(row interface{ Scan(...interface{}) error }) (PendingWithdrawal, error) {
	var i PendingWithdrawal
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Amount,
		&i.Method,
		&i.Destination,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

func collectPendingWithdrawals(q *Queries, ctx context.Context, sql string, args ...interface{}) ([]PendingWithdrawal, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingWithdrawal
	for rows.Next() {
		i, err := scanPendingWithdrawal(rows)
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

const insertPendingWithdrawal = `-- name: InsertPendingWithdrawal :one
INSERT INTO pending_withdrawals (id, account_id, amount, method, destination, status)
VALUES ($1, $2, $3, $4, $5, 'pending')
RETURNING ` + pendingWithdrawalColumns

type InsertPendingWithdrawalParams struct {
	ID          pgtype.UUID `json:"id"`
	AccountID   pgtype.UUID `json:"account_id"`
	Amount      int64       `json:"amount"`
	Method      string      `json:"method"`
	Destination string      `json:"destination"`
}

func (q *Queries) InsertPendingWithdrawal(ctx context.Context, arg InsertPendingWithdrawalParams) (PendingWithdrawal, error) {
	row := q.db.QueryRow(ctx, insertPendingWithdrawal,
		arg.ID,
		arg.AccountID,
		arg.Amount,
		arg.Method,
		arg.Destination,
	)
	return scanPendingWithdrawal(row)
}

const getPendingWithdrawalForUpdate = `-- name: GetPendingWithdrawalForUpdate :one
SELECT ` + pendingWithdrawalColumns + `
FROM pending_withdrawals
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetPendingWithdrawalForUpdate(ctx context.Context, id pgtype.UUID) (PendingWithdrawal, error) {
	return scanPendingWithdrawal(q.db.QueryRow(ctx, getPendingWithdrawalForUpdate, id))
}

const deletePendingWithdrawal = `-- name: DeletePendingWithdrawal :execrows
DELETE FROM pending_withdrawals
WHERE id = $1`

func (q *Queries) DeletePendingWithdrawal(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deletePendingWithdrawal, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPendingWithdrawals = `-- name: ListPendingWithdrawals :many
SELECT ` + pendingWithdrawalColumns + `
FROM pending_withdrawals
ORDER BY created_at, id`

func (q *Queries) ListPendingWithdrawals(ctx context.Context) ([]PendingWithdrawal, error) {
	return collectPendingWithdrawals(q, ctx, listPendingWithdrawals)
}

const listPendingWithdrawalsByAccount = `-- name: ListPendingWithdrawalsByAccount :many
SELECT ` + pendingWithdrawalColumns + `
FROM pending_withdrawals
WHERE account_id = $1
ORDER BY created_at, id`

func (q *Queries) ListPendingWithdrawalsByAccount(ctx context.Context, accountID pgtype.UUID) ([]PendingWithdrawal, error) {
	return collectPendingWithdrawals(q, ctx, listPendingWithdrawalsByAccount, accountID)
}

const countPendingWithdrawals = `-- name: CountPendingWithdrawals :one
SELECT COUNT(*)::BIGINT FROM pending_withdrawals`

func (q *Queries) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPendingWithdrawals).Scan(&count)
	return count, err
}

const withdrawalColumns = `id, account_id, amount, method, destination, status, reason, requested_at, resolved_at, resolved_by`

func scanWithdrawal(row interface{ Scan(...interface{}) error }) (Withdrawal, error) {
	var i Withdrawal
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Amount,
		&i.Method,
		&i.Destination,
		&i.Status,
		&i.Reason,
		&i.RequestedAt,
		&i.ResolvedAt,
		&i.ResolvedBy,
	)
	return i, err
}

const insertWithdrawalRecord = `-- name: InsertWithdrawalRecord :one
INSERT INTO withdrawals (id, account_id, amount, method, destination, status, reason, requested_at, resolved_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + withdrawalColumns

type InsertWithdrawalRecordParams struct {
	ID          pgtype.UUID        `json:"id"`
	AccountID   pgtype.UUID        `json:"account_id"`
	Amount      int64              `json:"amount"`
	Method      string             `json:"method"`
	Destination string             `json:"destination"`
	Status      string             `json:"status"`
	Reason      *string            `json:"reason"`
	RequestedAt pgtype.Timestamptz `json:"requested_at"`
	ResolvedBy  pgtype.UUID        `json:"resolved_by"`
}

func (q *Queries) InsertWithdrawalRecord(ctx context.Context, arg InsertWithdrawalRecordParams) (Withdrawal, error) {
	row := q.db.QueryRow(ctx, insertWithdrawalRecord,
		arg.ID,
		arg.AccountID,
		arg.Amount,
		arg.Method,
		arg.Destination,
		arg.Status,
		arg.Reason,
		arg.RequestedAt,
		arg.ResolvedBy,
	)
	return scanWithdrawal(row)
}

const listWithdrawalsByAccount = `-- name: ListWithdrawalsByAccount :many
SELECT ` + withdrawalColumns + `
FROM withdrawals
WHERE account_id = $1
ORDER BY resolved_at DESC, id`

func (q *Queries) ListWithdrawalsByAccount(ctx context.Context, accountID pgtype.UUID) ([]Withdrawal, error) {
	rows, err := q.db.Query(ctx, listWithdrawalsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Withdrawal
	for rows.Next() {
		i, err := scanWithdrawal(rows)
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
