package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minDestinationDigits = 6
	maxDestinationDigits = 20
)

// WithdrawalService runs the payout workflow on the earned balance.
type WithdrawalService struct {
	store  QueryStore
	audit  *AuditService
	policy Policy
	now    func() time.Time
}

func NewWithdrawalService(store QueryStore, policy Policy) *WithdrawalService {
	return &WithdrawalService{
		store:  store,
		audit:  NewAuditService(store),
		policy: policy,
		now:    time.Now,
	}
}

func (s *WithdrawalService) WithClock(now func() time.Time) *WithdrawalService {
	s.now = now
	return s
}

type BindDestinationRequest struct {
	Method       string
	Account      string
	Confirmation string
}

// BindDestination records where payouts are sent. The account number has to be typed
// twice and both copies must match.
func (s *WithdrawalService) BindDestination(ctx context.Context, actor Actor, req BindDestinationRequest) (*Destination, error) {
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if _, ok := domain.WithdrawalMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
	account := strings.TrimSpace(req.Account)
	if account == "" {
		return nil, fmt.Errorf("%w: account number is required", ErrValidation)
	}
	if account != strings.TrimSpace(req.Confirmation) {
		return nil, ErrDestinationMismatch
	}
	if len(account) < minDestinationDigits || len(account) > maxDestinationDigits || strings.IndexFunc(account, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return nil, fmt.Errorf("%w: account number must be %d to %d digits", ErrValidation, minDestinationDigits, maxDestinationDigits)
	}

	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(actor.AccountID)
		before, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		rows, err := qtx.SetWithdrawalDestination(ctx, repository.SetWithdrawalDestinationParams{
			ID:                id,
			WithdrawalMethod:  method,
			WithdrawalAccount: account,
		})
		if err != nil {
			return fmt.Errorf("set withdrawal destination: %w", err)
		}
		if err := requireExactlyOne(rows, "set withdrawal destination"); err != nil {
			return err
		}
		prev := ""
		if before.WithdrawalMethod != nil {
			prev = *before.WithdrawalMethod
		}
		return s.audit.Write(ctx, qtx, "account", actor.AccountID.String(), &actor.AccountID, "destination_bound", prev, method, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Destination{Method: method, Account: account}, nil
}

// RequestWithdrawal debits the earned balance immediately and queues the payout for an
// admin. The destination is snapshotted so later rebinding does not redirect it.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, actor Actor, amount domain.Amount) (*WithdrawalView, error) {
	if amount < s.policy.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, s.policy.MinWithdrawal)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var created repository.PendingWithdrawal
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		acc, err := qtx.GetAccountForUpdate(ctx, repository.ToPgUUID(actor.AccountID))
		if err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if acc.WithdrawalMethod == nil || acc.WithdrawalAccount == nil {
			return ErrDestinationMissing
		}
		if int64(amount) > acc.EarnedBalance {
			return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientFunds, amount, domain.Amount(acc.EarnedBalance))
		}

		id := uuid.New()
		if err := postMovements(ctx, qtx, actor.AccountID, domain.KindWithdrawalHold, id.String(),
			debit(domain.BucketEarned, amount)); err != nil {
			return err
		}
		created, err = qtx.InsertPendingWithdrawal(ctx, repository.InsertPendingWithdrawalParams{
			ID:          repository.ToPgUUID(id),
			AccountID:   acc.ID,
			Amount:      int64(amount),
			Method:      *acc.WithdrawalMethod,
			Destination: *acc.WithdrawalAccount,
		})
		if err != nil {
			return fmt.Errorf("insert pending withdrawal: %w", err)
		}
		meta := auditMetadata(map[string]any{"amount": int64(amount), "method": *acc.WithdrawalMethod})
		return s.audit.Write(ctx, qtx, "withdrawal", id.String(), &actor.AccountID, "requested", "", domain.WithdrawalStatusPending, meta)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("withdrawal requested",
		zap.String("withdrawal_id", repository.FromPgUUID(created.ID).String()),
		zap.String("account_id", actor.AccountID.String()),
		zap.Int64("amount", int64(amount)),
	)
	view := pendingWithdrawalView(created)
	return &view, nil
}

// Approve settles a pending withdrawal into history.
func (s *WithdrawalService) Approve(ctx context.Context, actor Actor, withdrawalID uuid.UUID) (*WithdrawalView, error) {
	return s.resolve(ctx, actor, withdrawalID, domain.WithdrawalStatusApproved, "")
}

// Reject closes a pending withdrawal. The request-time debit is restored only when the
// policy enables refunds.
func (s *WithdrawalService) Reject(ctx context.Context, actor Actor, withdrawalID uuid.UUID, reason string) (*WithdrawalView, error) {
	return s.resolve(ctx, actor, withdrawalID, domain.WithdrawalStatusRejected, strings.TrimSpace(reason))
}

func (s *WithdrawalService) resolve(ctx context.Context, actor Actor, withdrawalID uuid.UUID, decision, reason string) (*WithdrawalView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var record repository.Withdrawal
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(withdrawalID)
		w, err := qtx.GetPendingWithdrawalForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrWithdrawalNotFound
			}
			return fmt.Errorf("lock pending withdrawal: %w", err)
		}
		if err := withdrawalTransitions.check("withdrawal", w.Status, decision); err != nil {
			return err
		}
		if _, err := qtx.GetAccountForUpdate(ctx, w.AccountID); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		accountID := repository.FromPgUUID(w.AccountID)
		amount := domain.Amount(w.Amount)
		switch {
		case decision == domain.WithdrawalStatusApproved && s.policy.DebitOnApproval:
			if err := postMovements(ctx, qtx, accountID, domain.KindWithdrawalSettlement, withdrawalID.String(),
				debit(domain.BucketEarned, amount)); err != nil {
				return err
			}
		case decision == domain.WithdrawalStatusRejected && s.policy.RefundOnReject:
			if err := postMovements(ctx, qtx, accountID, domain.KindWithdrawalRefund, withdrawalID.String(),
				credit(domain.BucketEarned, amount)); err != nil {
				return err
			}
		}

		record, err = qtx.InsertWithdrawalRecord(ctx, repository.InsertWithdrawalRecordParams{
			ID:          id,
			AccountID:   w.AccountID,
			Amount:      w.Amount,
			Method:      w.Method,
			Destination: w.Destination,
			Status:      decision,
			Reason:      textParam(reason),
			RequestedAt: w.CreatedAt,
			ResolvedBy:  repository.ToPgUUID(actor.AccountID),
		})
		if err != nil {
			return fmt.Errorf("insert withdrawal record: %w", err)
		}
		rows, err := qtx.DeletePendingWithdrawal(ctx, id)
		if err != nil {
			return fmt.Errorf("delete pending withdrawal: %w", err)
		}
		if err := requireExactlyOne(rows, "delete pending withdrawal"); err != nil {
			return err
		}

		refunded := decision == domain.WithdrawalStatusRejected && s.policy.RefundOnReject
		meta := auditMetadata(map[string]any{
			"account_id": accountID.String(),
			"amount":     w.Amount,
			"reason":     reason,
			"refunded":   refunded,
		})
		return s.audit.Write(ctx, qtx, "withdrawal", withdrawalID.String(), &actor.AccountID, decision, w.Status, decision, meta)
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementApprovalDecision("withdrawals", decision)
	fields := []zap.Field{
		zap.String("withdrawal_id", withdrawalID.String()),
		zap.String("account_id", repository.FromPgUUID(record.AccountID).String()),
		zap.Int64("amount", record.Amount),
		zap.String("admin_id", actor.AccountID.String()),
	}
	if decision == domain.WithdrawalStatusRejected && !s.policy.RefundOnReject {
		zap.L().Warn("withdrawal rejected without refund; earned balance stays debited", fields...)
	} else {
		zap.L().Info("withdrawal "+decision, fields...)
	}
	view := withdrawalRecordView(record)
	return &view, nil
}

// ListPending is the admin payout queue.
func (s *WithdrawalService) ListPending(ctx context.Context, actor Actor) ([]WithdrawalView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.store.Queries().ListPendingWithdrawals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	out := make([]WithdrawalView, 0, len(rows))
	for _, w := range rows {
		out = append(out, pendingWithdrawalView(w))
	}
	return out, nil
}

// History returns the caller's open requests followed by resolved ones.
func (s *WithdrawalService) History(ctx context.Context, actor Actor) ([]WithdrawalView, error) {
	q := s.store.Queries()
	id := repository.ToPgUUID(actor.AccountID)
	pending, err := q.ListPendingWithdrawalsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	resolved, err := q.ListWithdrawalsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	out := make([]WithdrawalView, 0, len(pending)+len(resolved))
	for _, w := range pending {
		out = append(out, pendingWithdrawalView(w))
	}
	for _, w := range resolved {
		out = append(out, withdrawalRecordView(w))
	}
	return out, nil
}
