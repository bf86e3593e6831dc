package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listCatalog = `-- name: ListCatalog :many
SELECT id, name, invested_amount, term_days, payout_mode, daily_yield, final_payout, active, sort_order
FROM package_catalog
WHERE active
ORDER BY sort_order, id`

func (q *Queries) ListCatalog(ctx context.Context) ([]PackageCatalog, error) {
	rows, err := q.db.Query(ctx, listCatalog)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PackageCatalog
	for rows.Next() {
		var i PackageCatalog
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.InvestedAmount,
			&i.TermDays,
			&i.PayoutMode,
			&i.DailyYield,
			&i.FinalPayout,
			&i.Active,
			&i.SortOrder,
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

const getCatalogItem = `-- name: GetCatalogItem :one
SELECT id, name, invested_amount, term_days, payout_mode, daily_yield, final_payout, active, sort_order
FROM package_catalog
WHERE id = $1`

func (q *Queries) GetCatalogItem(ctx context.Context, id string) (PackageCatalog, error) {
	row := q.db.QueryRow(ctx, getCatalogItem, id)
	var i PackageCatalog
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.InvestedAmount,
		&i.TermDays,
		&i.PayoutMode,
		&i.DailyYield,
		&i.FinalPayout,
		&i.Active,
		&i.SortOrder,
	)
	return i, err
}

const packageColumns = `id, account_id, catalog_id, payment_id, name, invested_amount, term_days, payout_mode,
	daily_yield, final_payout, status, purchased_at`

func scanPackage(row interface{ Scan(...interface{}) error }) (Package, error) {
	var i Package
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.CatalogID,
		&i.PaymentID,
		&i.Name,
		&i.InvestedAmount,
		&i.TermDays,
		&i.PayoutMode,
		&i.DailyYield,
		&i.FinalPayout,
		&i.Status,
		&i.PurchasedAt,
	)
	return i, err
}

const insertPackage = `-- name: InsertPackage :one
INSERT INTO packages (id, account_id, catalog_id, payment_id, name, invested_amount, term_days, payout_mode,
	daily_yield, final_payout, status, purchased_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + packageColumns

type InsertPackageParams struct {
	ID             pgtype.UUID        `json:"id"`
	AccountID      pgtype.UUID        `json:"account_id"`
	CatalogID      string             `json:"catalog_id"`
	PaymentID      pgtype.UUID        `json:"payment_id"`
	Name           string             `json:"name"`
	InvestedAmount int64              `json:"invested_amount"`
	TermDays       int32              `json:"term_days"`
	PayoutMode     string             `json:"payout_mode"`
	DailyYield     int64              `json:"daily_yield"`
	FinalPayout    int64              `json:"final_payout"`
	Status         string             `json:"status"`
	PurchasedAt    pgtype.Timestamptz `json:"purchased_at"`
}

func (q *Queries) InsertPackage(ctx context.Context, arg InsertPackageParams) (Package, error) {
	row := q.db.QueryRow(ctx, insertPackage,
		arg.ID,
		arg.AccountID,
		arg.CatalogID,
		arg.PaymentID,
		arg.Name,
		arg.InvestedAmount,
		arg.TermDays,
		arg.PayoutMode,
		arg.DailyYield,
		arg.FinalPayout,
		arg.Status,
		arg.PurchasedAt,
	)
	return scanPackage(row)
}

const listPackagesByAccount = `-- name: ListPackagesByAccount :many
SELECT ` + packageColumns + `
FROM packages
WHERE account_id = $1
ORDER BY purchased_at DESC, id`

func (q *Queries) ListPackagesByAccount(ctx context.Context, accountID pgtype.UUID) ([]Package, error) {
	rows, err := q.db.Query(ctx, listPackagesByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Package
	for rows.Next() {
		i, err := scanPackage(rows)
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

const finalizeMaturedPackages = `-- name: FinalizeMaturedPackages :execrows
UPDATE packages
SET status = 'finalizado'
WHERE status = 'activo'
  AND purchased_at + make_interval(days => term_days) <= $1`

func (q *Queries) FinalizeMaturedPackages(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	result, err := q.db.Exec(ctx, finalizeMaturedPackages, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
