package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"go.uber.org/zap"
)

const maxPromoCodeLength = 32

type PromoService struct {
	store QueryStore
	audit *AuditService
}

func NewPromoService(store QueryStore) *PromoService {
	return &PromoService{store: store, audit: NewAuditService(store)}
}

type PromoView struct {
	Code        string        `json:"code"`
	CreditValue domain.Amount `json:"credit_value"`
	Used        bool          `json:"used"`
	RedeemedBy  *string       `json:"redeemed_by,omitempty"`
	RedeemedAt  *time.Time    `json:"redeemed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func promoView(p repository.PromoCode) PromoView {
	v := PromoView{
		Code:        p.Code,
		CreditValue: domain.Amount(p.CreditValue),
		Used:        p.Used,
		CreatedAt:   p.CreatedAt.Time,
	}
	if p.RedeemedBy.Valid {
		id := repository.FromPgUUID(p.RedeemedBy).String()
		v.RedeemedBy = &id
	}
	if p.RedeemedAt.Valid {
		at := p.RedeemedAt.Time
		v.RedeemedAt = &at
	}
	return v
}

type RedeemPromoResult struct {
	Code         string        `json:"code"`
	Credited     domain.Amount `json:"credited"`
	BonusBalance domain.Amount `json:"bonus_balance"`
}

// RedeemPromo credits a single-use code's value to the caller's bonus balance.
func (s *PromoService) RedeemPromo(ctx context.Context, actor Actor, code string) (*RedeemPromoResult, error) {
	code = normalizeCode(code)
	if len(code) < domain.MinCodeLength {
		return nil, ErrInvalidCode
	}

	var result RedeemPromoResult
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		promo, err := qtx.GetPromoCodeForUpdate(ctx, code)
		if err != nil {
			if isNoRows(err) {
				return ErrPromoNotFound
			}
			return fmt.Errorf("lock promo code: %w", err)
		}
		if promo.Used {
			return ErrPromoAlreadyUsed
		}
		acc, err := qtx.GetAccountForUpdate(ctx, repository.ToPgUUID(actor.AccountID))
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}

		rows, err := qtx.MarkPromoCodeUsed(ctx, repository.MarkPromoCodeUsedParams{
			Code:       code,
			RedeemedBy: acc.ID,
		})
		if err != nil {
			return fmt.Errorf("mark promo code used: %w", err)
		}
		if rows == 0 {
			return ErrPromoAlreadyUsed
		}

		value := domain.Amount(promo.CreditValue)
		if err := postMovements(ctx, qtx, actor.AccountID, domain.KindPromoRedemption, code,
			credit(domain.BucketBonus, value)); err != nil {
			return err
		}
		result = RedeemPromoResult{
			Code:         code,
			Credited:     value,
			BonusBalance: domain.Amount(acc.BonusBalance) + value,
		}
		meta := auditMetadata(map[string]any{"account_id": actor.AccountID.String(), "value": promo.CreditValue})
		return s.audit.Write(ctx, qtx, "promo_code", code, &actor.AccountID, "redeemed", "unused", "used", meta)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("promo code redeemed",
		zap.String("code", code),
		zap.String("account_id", actor.AccountID.String()),
		zap.Int64("value", int64(result.Credited)),
	)
	return &result, nil
}

// CreatePromo issues a new single-use code.
func (s *PromoService) CreatePromo(ctx context.Context, actor Actor, code string, value domain.Amount) (*PromoView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	if len(code) < domain.MinCodeLength || len(code) > maxPromoCodeLength {
		return nil, ErrInvalidCode
	}
	if value <= 0 {
		return nil, ErrInvalidAmount
	}

	var created repository.PromoCode
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		var err error
		created, err = qtx.CreatePromoCode(ctx, repository.CreatePromoCodeParams{Code: code, CreditValue: int64(value)})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrPromoExists
			}
			return fmt.Errorf("create promo code: %w", err)
		}
		meta := auditMetadata(map[string]any{"value": int64(value)})
		return s.audit.Write(ctx, qtx, "promo_code", code, &actor.AccountID, "created", "", "unused", meta)
	})
	if err != nil {
		return nil, err
	}
	view := promoView(created)
	return &view, nil
}

func (s *PromoService) ListPromos(ctx context.Context, actor Actor) ([]PromoView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.store.Queries().ListPromoCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	out := make([]PromoView, 0, len(rows))
	for _, p := range rows {
		out = append(out, promoView(p))
	}
	return out, nil
}
