package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const pendingPaymentColumns = `id, account_id, catalog_id, amount, reference, status, created_at, updated_at`

func scanPendingPayment(row interface{ Scan(...interface{}) error }) (PendingPayment, error) {
	var i PendingPayment
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.CatalogID,
		&i.Amount,
		&i.Reference,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectPendingPayments(q *Queries, ctx context.Context, sql string, args ...interface{}) ([]PendingPayment, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingPayment
	for rows.Next() {
		i, err := scanPendingPayment(rows)
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

const insertPendingPayment = `-- name: InsertPendingPayment :one
INSERT INTO pending_payments (id, account_id, catalog_id, amount, status)
VALUES ($1, $2, $3, $4, 'pending')
RETURNING ` + pendingPaymentColumns

type InsertPendingPaymentParams struct {
	ID        pgtype.UUID `json:"id"`
	AccountID pgtype.UUID `json:"account_id"`
	CatalogID string      `json:"catalog_id"`
	Amount    int64       `json:"amount"`
}

func (q *Queries) InsertPendingPayment(ctx context.Context, arg InsertPendingPaymentParams) (PendingPayment, error) {
	row := q.db.QueryRow(ctx, insertPendingPayment, arg.ID, arg.AccountID, arg.CatalogID, arg.Amount)
	return scanPendingPayment(row)
}

const getPendingPayment = `-- name: GetPendingPayment :one
SELECT ` + pendingPaymentColumns + `
FROM pending_payments
WHERE id = $1`

func (q *Queries) GetPendingPayment(ctx context.Context, id pgtype.UUID) (PendingPayment, error) {
	return scanPendingPayment(q.db.QueryRow(ctx, getPendingPayment, id))
}

const getPendingPaymentForUpdate = `-- name: GetPendingPaymentForUpdate :one
SELECT ` + pendingPaymentColumns + `
FROM pending_payments
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetPendingPaymentForUpdate(ctx context.Context, id pgtype.UUID) (PendingPayment, error) {
	return scanPendingPayment(q.db.QueryRow(ctx, getPendingPaymentForUpdate, id))
}

const updatePendingPaymentReference = `-- name: UpdatePendingPaymentReference :execrows
UPDATE pending_payments
SET reference = $2, status = $3, updated_at = NOW()
WHERE id = $1`

type UpdatePendingPaymentReferenceParams struct {
	ID        pgtype.UUID `json:"id"`
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
}

func (q *Queries) UpdatePendingPaymentReference(ctx context.Context, arg UpdatePendingPaymentReferenceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updatePendingPaymentReference, arg.ID, arg.Reference, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deletePendingPayment = `-- name: DeletePendingPayment :execrows
DELETE FROM pending_payments
WHERE id = $1`

func (q *Queries) DeletePendingPayment(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deletePendingPayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPendingPayments = `-- name: ListPendingPayments :many
SELECT ` + pendingPaymentColumns + `
FROM pending_payments
ORDER BY created_at, id`

func (q *Queries) ListPendingPayments(ctx context.Context) ([]PendingPayment, error) {
	return collectPendingPayments(q, ctx, listPendingPayments)
}

const listPendingPaymentsByAccount = `-- name: ListPendingPaymentsByAccount :many
SELECT ` + pendingPaymentColumns + `
FROM pending_payments
WHERE account_id = $1
ORDER BY created_at, id`

func (q *Queries) ListPendingPaymentsByAccount(ctx context.Context, accountID pgtype.UUID) ([]PendingPayment, error) {
	return collectPendingPayments(q, ctx, listPendingPaymentsByAccount, accountID)
}

const countPendingPayments = `-- name: CountPendingPayments :one
SELECT COUNT(*)::BIGINT FROM pending_payments`

func (q *Queries) CountPendingPayments(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPendingPayments).Scan(&count)
	return count, err
}
