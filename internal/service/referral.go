package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReferralService struct {
	store  QueryStore
	audit  *AuditService
	policy Policy
}

func NewReferralService(store QueryStore, policy Policy) *ReferralService {
	return &ReferralService{store: store, audit: NewAuditService(store), policy: policy}
}

type RedeemReferralResult struct {
	Code          string        `json:"code"`
	RefereeBonus  domain.Amount `json:"referee_bonus"`
	ReferrerBonus domain.Amount `json:"referrer_bonus"`
	BonusBalance  domain.Amount `json:"bonus_balance"`
}

type ReferralView struct {
	RefereeID     uuid.UUID     `json:"referee_id"`
	Code          string        `json:"code"`
	RefereeBonus  domain.Amount `json:"referee_bonus"`
	ReferrerBonus domain.Amount `json:"referrer_bonus"`
	CreatedAt     time.Time     `json:"created_at"`
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RedeemCode binds the caller to a referrer and pays the referral bonuses.
//
// The referee always receives the referee bonus. The referrer receives the referrer bonus
// only if they hold an active package at redemption time; that check happens once and
// is never revisited.
func (s *ReferralService) RedeemCode(ctx context.Context, actor Actor, code string) (*RedeemReferralResult, error) {
	code = normalizeCode(code)
	if len(code) < domain.MinCodeLength {
		return nil, ErrInvalidCode
	}

	var result RedeemReferralResult
	var referrerID uuid.UUID
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		refereeID := repository.ToPgUUID(actor.AccountID)
		referee, err := qtx.GetAccountForUpdate(ctx, refereeID)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if strings.EqualFold(referee.ReferralCode, code) {
			return fmt.Errorf("%w: cannot redeem your own code", ErrInvalidCode)
		}
		if referee.ReferredByCode != nil {
			return ErrAlreadyReferred
		}

		referrer, err := qtx.GetAccountByReferralCodeForUpdate(ctx, code)
		if err != nil {
			if isNoRows(err) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("lookup referral code: %w", err)
		}
		referrerID = repository.FromPgUUID(referrer.ID)

		rows, err := qtx.SetReferredBy(ctx, repository.SetReferredByParams{ID: refereeID, ReferredByCode: code})
		if err != nil {
			return fmt.Errorf("set referred by: %w", err)
		}
		if rows == 0 {
			return ErrAlreadyReferred
		}

		result.Code = code
		result.RefereeBonus = s.policy.RefereeBonus
		if err := postMovements(ctx, qtx, actor.AccountID, domain.KindReferralReferee, code,
			credit(domain.BucketBonus, s.policy.RefereeBonus)); err != nil {
			return err
		}
		if referrer.ActivePackage {
			result.ReferrerBonus = s.policy.ReferrerBonus
			if err := postMovements(ctx, qtx, referrerID, domain.KindReferralReferrer, actor.AccountID.String(),
				credit(domain.BucketBonus, s.policy.ReferrerBonus)); err != nil {
				return err
			}
		}

		if _, err := qtx.InsertReferral(ctx, repository.InsertReferralParams{
			RefereeID:     refereeID,
			ReferrerID:    referrer.ID,
			Code:          code,
			RefereeBonus:  int64(result.RefereeBonus),
			ReferrerBonus: int64(result.ReferrerBonus),
		}); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyReferred
			}
			return fmt.Errorf("insert referral: %w", err)
		}
		result.BonusBalance = domain.Amount(referee.BonusBalance) + result.RefereeBonus

		meta := auditMetadata(map[string]any{
			"referrer_id":    referrerID.String(),
			"referee_bonus":  int64(result.RefereeBonus),
			"referrer_bonus": int64(result.ReferrerBonus),
		})
		return s.audit.Write(ctx, qtx, "account", actor.AccountID.String(), &actor.AccountID, "referral_redeemed", "", code, meta)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("referral code redeemed",
		zap.String("referee_id", actor.AccountID.String()),
		zap.String("referrer_id", referrerID.String()),
		zap.Bool("referrer_bonus_paid", result.ReferrerBonus > 0),
	)
	return &result, nil
}

// ListReferrals lists the accounts that redeemed the caller's code.
func (s *ReferralService) ListReferrals(ctx context.Context, actor Actor) ([]ReferralView, error) {
	rows, err := s.store.Queries().ListReferralsByReferrer(ctx, repository.ToPgUUID(actor.AccountID))
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	out := make([]ReferralView, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReferralView{
			RefereeID:     repository.FromPgUUID(r.RefereeID),
			Code:          r.Code,
			RefereeBonus:  domain.Amount(r.RefereeBonus),
			ReferrerBonus: domain.Amount(r.ReferrerBonus),
			CreatedAt:     r.CreatedAt.Time,
		})
	}
	return out, nil
}
