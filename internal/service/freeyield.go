package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FreeYieldService runs the free trial: after activation the account may claim a fixed
// unit once per calendar day until the term runs out.
type FreeYieldService struct {
	store  QueryStore
	audit  *AuditService
	policy Policy
	now    func() time.Time
}

func NewFreeYieldService(store QueryStore, policy Policy) *FreeYieldService {
	return &FreeYieldService{
		store:  store,
		audit:  NewAuditService(store),
		policy: policy,
		now:    time.Now,
	}
}

func (s *FreeYieldService) WithClock(now func() time.Time) *FreeYieldService {
	s.now = now
	return s
}

func (s *FreeYieldService) today() time.Time {
	return domain.CalendarDay(s.now(), s.policy.location())
}

// Activate starts the trial today. Calling it on a running trial returns the current
// state unchanged; a trial that ran its full term cannot be restarted.
func (s *FreeYieldService) Activate(ctx context.Context, actor Actor) (*domain.FreeYieldStatus, error) {
	today := s.today()
	term := s.policy.FreeYieldTermDays

	var status domain.FreeYieldStatus
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(actor.AccountID)
		acc, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		state := freeYieldState(acc)
		if state.StartedOn != nil && domain.DaysBetween(*state.StartedOn, today) >= term {
			return ErrFreeYieldExpired
		}
		if state.Active {
			status = state.Status(today, term)
			return nil
		}

		// Activation zeroes the accrued counter; post the reset so the ledger agrees.
		if state.Accrued != 0 {
			if err := postMovements(ctx, qtx, actor.AccountID, domain.KindManualAdjustment, "free_yield_reset",
				debit(domain.BucketFreeYield, state.Accrued)); err != nil {
				return err
			}
		}
		rows, err := qtx.StartFreeYield(ctx, repository.StartFreeYieldParams{
			ID:        id,
			StartedOn: repository.ToPgDate(today),
		})
		if err != nil {
			return fmt.Errorf("start free yield: %w", err)
		}
		if err := requireExactlyOne(rows, "start free yield"); err != nil {
			return err
		}
		started := domain.FreeYieldState{Active: true, StartedOn: &today}
		status = started.Status(today, term)
		return s.audit.Write(ctx, qtx, "account", actor.AccountID.String(), &actor.AccountID, "free_yield_activated", "inactive", "active", nil)
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Claim credits the daily unit to both the accrued counter and the bonus balance.
func (s *FreeYieldService) Claim(ctx context.Context, actor Actor) (*domain.FreeYieldStatus, error) {
	today := s.today()
	term := s.policy.FreeYieldTermDays
	unit := s.policy.FreeYieldDailyUnit

	var status domain.FreeYieldStatus
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(actor.AccountID)
		acc, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		state := freeYieldState(acc)
		switch state.CheckClaim(today, term) {
		case domain.ClaimInactive:
			return ErrFreeYieldInactive
		case domain.ClaimExpired:
			return ErrFreeYieldExpired
		case domain.ClaimAlreadyToday:
			return ErrAlreadyClaimedToday
		}

		rows, err := qtx.MarkFreeYieldClaimed(ctx, repository.MarkFreeYieldClaimedParams{
			ID:        id,
			ClaimedOn: repository.ToPgDate(today),
		})
		if err != nil {
			return fmt.Errorf("mark free yield claimed: %w", err)
		}
		if rows == 0 {
			return ErrAlreadyClaimedToday
		}
		reference := today.Format(time.DateOnly)
		if err := postMovements(ctx, qtx, actor.AccountID, domain.KindFreeYieldClaim, reference,
			credit(domain.BucketFreeYield, unit),
			credit(domain.BucketBonus, unit)); err != nil {
			return err
		}

		state.LastClaimOn = &today
		state.Accrued += unit
		status = state.Status(today, term)
		meta := auditMetadata(map[string]any{"amount": int64(unit), "day": status.DaysElapsed})
		return s.audit.Write(ctx, qtx, "account", actor.AccountID.String(), &actor.AccountID, "free_yield_claimed", "", reference, meta)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("free yield claimed",
		zap.String("account_id", actor.AccountID.String()),
		zap.Int("day", status.DaysElapsed),
	)
	return &status, nil
}

// Status returns the trial view for an account. Owner or admin only.
func (s *FreeYieldService) Status(ctx context.Context, actor Actor, accountID uuid.UUID) (*domain.FreeYieldStatus, error) {
	if err := requireOwnerOrAdmin(actor, accountID); err != nil {
		return nil, err
	}
	acc, err := s.store.Queries().GetAccount(ctx, repository.ToPgUUID(accountID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	status := freeYieldState(acc).Status(s.today(), s.policy.FreeYieldTermDays)
	return &status, nil
}
