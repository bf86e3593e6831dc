package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const promoColumns = `code, credit_value, used, redeemed_by, redeemed_at, created_at`

func scanPromoCode(row interface{ Scan(...interface{}) error }) (PromoCode, error) {
	var i PromoCode
	err := row.Scan(
		&i.Code,
		&i.CreditValue,
		&i.Used,
		&i.RedeemedBy,
		&i.RedeemedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createPromoCode = `-- name: CreatePromoCode :one
INSERT INTO promo_codes (code, credit_value)
VALUES ($1, $2)
RETURNING ` + promoColumns

type CreatePromoCodeParams struct {
	Code        string `json:"code"`
	CreditValue int64  `json:"credit_value"`
}

func (q *Queries) CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error) {
	return scanPromoCode(q.db.QueryRow(ctx, createPromoCode, arg.Code, arg.CreditValue))
}

const getPromoCodeForUpdate = `-- name: GetPromoCodeForUpdate :one
SELECT ` + promoColumns + `
FROM promo_codes
WHERE code = $1
FOR UPDATE`

func (q *Queries) GetPromoCodeForUpdate(ctx context.Context, code string) (PromoCode, error) {
	return scanPromoCode(q.db.QueryRow(ctx, getPromoCodeForUpdate, code))
}

const markPromoCodeUsed = `-- name: MarkPromoCodeUsed :execrows
UPDATE promo_codes
SET used = TRUE, redeemed_by = $2, redeemed_at = NOW()
WHERE code = $1 AND used = FALSE`

type MarkPromoCodeUsedParams struct {
	Code       string      `json:"code"`
	RedeemedBy pgtype.UUID `json:"redeemed_by"`
}

func (q *Queries) MarkPromoCodeUsed(ctx context.Context, arg MarkPromoCodeUsedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markPromoCodeUsed, arg.Code, arg.RedeemedBy)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPromoCodes = `-- name: ListPromoCodes :many
SELECT ` + promoColumns + `
FROM promo_codes
ORDER BY created_at DESC, code`

func (q *Queries) ListPromoCodes(ctx context.Context) ([]PromoCode, error) {
	rows, err := q.db.Query(ctx, listPromoCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoCode
	for rows.Next() {
		i, err := scanPromoCode(rows)
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

const insertReferral = `-- name: InsertReferral :one
INSERT INTO referrals (referee_id, referrer_id, code, referee_bonus, referrer_bonus)
VALUES ($1, $2, $3, $4, $5)
RETURNING referee_id, referrer_id, code, referee_bonus, referrer_bonus, created_at`

type InsertReferralParams struct {
	RefereeID     pgtype.UUID `json:"referee_id"`
	ReferrerID    pgtype.UUID `json:"referrer_id"`
	Code          string      `json:"code"`
	RefereeBonus  int64       `json:"referee_bonus"`
	ReferrerBonus int64       `json:"referrer_bonus"`
}

func (q *Queries) InsertReferral(ctx context.Context, arg InsertReferralParams) (Referral, error) {
	row := q.db.QueryRow(ctx, insertReferral,
		arg.RefereeID,
		arg.ReferrerID,
		arg.Code,
		arg.RefereeBonus,
		arg.ReferrerBonus,
	)
	var i Referral
	err := row.Scan(
		&i.RefereeID,
		&i.ReferrerID,
		&i.Code,
		&i.RefereeBonus,
		&i.ReferrerBonus,
		&i.CreatedAt,
	)
	return i, err
}

const listReferralsByReferrer = `-- name: ListReferralsByReferrer :many
SELECT referee_id, referrer_id, code, referee_bonus, referrer_bonus, created_at
FROM referrals
WHERE referrer_id = $1
ORDER BY created_at DESC, referee_id`

func (q *Queries) ListReferralsByReferrer(ctx context.Context, referrerID pgtype.UUID) ([]Referral, error) {
	rows, err := q.db.Query(ctx, listReferralsByReferrer, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Referral
	for rows.Next() {
		var i Referral
		if err := rows.Scan(
			&i.RefereeID,
			&i.ReferrerID,
			&i.Code,
			&i.RefereeBonus,
			&i.ReferrerBonus,
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
