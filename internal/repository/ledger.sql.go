package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertLedgerEntry = `-- name: InsertLedgerEntry :one
INSERT INTO ledger_entries (account_id, bucket, amount, kind, reference)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, account_id, bucket, amount, kind, reference, created_at`

type InsertLedgerEntryParams struct {
	AccountID pgtype.UUID `json:"account_id"`
	Bucket    string      `json:"bucket"`
	Amount    int64       `json:"amount"`
	Kind      string      `json:"kind"`
	Reference *string     `json:"reference"`
}

func (q *Queries) InsertLedgerEntry(ctx context.Context, arg InsertLedgerEntryParams) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, insertLedgerEntry,
		arg.AccountID,
		arg.Bucket,
		arg.Amount,
		arg.Kind,
		arg.Reference,
	)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Bucket,
		&i.Amount,
		&i.Kind,
		&i.Reference,
		&i.CreatedAt,
	)
	return i, err
}

const listLedgerEntries = `-- name: ListLedgerEntries :many
SELECT id, account_id, bucket, amount, kind, reference, created_at
FROM ledger_entries
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3`

type ListLedgerEntriesParams struct {
	AccountID pgtype.UUID `json:"account_id"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListLedgerEntries(ctx context.Context, arg ListLedgerEntriesParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntries, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Bucket,
			&i.Amount,
			&i.Kind,
			&i.Reference,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLedgerDrift = `-- name: GetLedgerDrift :many
WITH sums AS (
    SELECT account_id, bucket, SUM(amount)::BIGINT AS ledger_total
    FROM ledger_entries
    GROUP BY account_id, bucket
), balances AS (
    SELECT id AS account_id, 'investment' AS bucket, investment_balance AS balance_total FROM accounts
    UNION ALL
    SELECT id, 'earned', earned_balance FROM accounts
    UNION ALL
    SELECT id, 'bonus', bonus_balance FROM accounts
    UNION ALL
    SELECT id, 'free_yield', free_yield_accrued FROM accounts
)
SELECT b.account_id, b.bucket, COALESCE(s.ledger_total, 0)::BIGINT AS ledger_total, b.balance_total
FROM balances b
LEFT JOIN sums s ON s.account_id = b.account_id AND s.bucket = b.bucket
WHERE COALESCE(s.ledger_total, 0) <> b.balance_total
ORDER BY b.account_id, b.bucket`

type GetLedgerDriftRow struct {
	AccountID    pgtype.UUID `json:"account_id"`
	Bucket       string      `json:"bucket"`
	LedgerTotal  int64       `json:"ledger_total"`
	BalanceTotal int64       `json:"balance_total"`
}

func (q *Queries) GetLedgerDrift(ctx context.Context) ([]GetLedgerDriftRow, error) {
	rows, err := q.db.Query(ctx, getLedgerDrift)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetLedgerDriftRow
	for rows.Next() {
		var i GetLedgerDriftRow
		if err := rows.Scan(&i.AccountID, &i.Bucket, &i.LedgerTotal, &i.BalanceTotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertAuditLog = `-- name: InsertAuditLog :one
INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at`

type InsertAuditLogParams struct {
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	ActorID    pgtype.UUID `json:"actor_id"`
	Action     string      `json:"action"`
	PrevState  *string     `json:"prev_state"`
	NextState  *string     `json:"next_state"`
	Metadata   []byte      `json:"metadata"`
}

func scanAuditLog(row interface{ Scan(...interface{}) error }) (AuditLog, error) {
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.EntityType,
		&i.EntityID,
		&i.ActorID,
		&i.Action,
		&i.PrevState,
		&i.NextState,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, insertAuditLog,
		arg.EntityType,
		arg.EntityID,
		arg.ActorID,
		arg.Action,
		arg.PrevState,
		arg.NextState,
		arg.Metadata,
	)
	return scanAuditLog(row)
}

const listAuditLogByEntity = `-- name: ListAuditLogByEntity :many
SELECT id, entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at
FROM audit_log
WHERE entity_type = $1 AND entity_id = $2
ORDER BY id`

type ListAuditLogByEntityParams struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

func (q *Queries) ListAuditLogByEntity(ctx context.Context, arg ListAuditLogByEntityParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogByEntity, arg.EntityType, arg.EntityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		i, err := scanAuditLog(rows)
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
