package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReferenceLength = 120

// PaymentService runs the deposit approval workflow. A deposit starts as a pending
// payment for a catalog package, collects the transfer reference from its owner and is
// resolved by an admin. Approval is the only path that creates a package.
type PaymentService struct {
	store QueryStore
	audit *AuditService
	now   func() time.Time
}

func NewPaymentService(store QueryStore) *PaymentService {
	return &PaymentService{
		store: store,
		audit: NewAuditService(store),
		now:   time.Now,
	}
}

func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// CreatePaymentIntent opens a pending payment for one catalog package.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, actor Actor, catalogID string) (*PaymentView, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return nil, fmt.Errorf("%w: catalog_id is required", ErrValidation)
	}

	var created repository.PendingPayment
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		item, err := qtx.GetCatalogItem(ctx, catalogID)
		if err != nil {
			if isNoRows(err) {
				return ErrCatalogNotFound
			}
			return fmt.Errorf("get catalog item: %w", err)
		}
		if !item.Active {
			return ErrCatalogNotFound
		}
		if _, err := qtx.GetAccount(ctx, repository.ToPgUUID(actor.AccountID)); err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("get account: %w", err)
		}

		id := uuid.New()
		created, err = qtx.InsertPendingPayment(ctx, repository.InsertPendingPaymentParams{
			ID:        repository.ToPgUUID(id),
			AccountID: repository.ToPgUUID(actor.AccountID),
			CatalogID: item.ID,
			Amount:    item.InvestedAmount,
		})
		if err != nil {
			return fmt.Errorf("insert pending payment: %w", err)
		}
		meta := auditMetadata(map[string]any{"catalog_id": item.ID, "amount": item.InvestedAmount})
		return s.audit.Write(ctx, qtx, "payment", id.String(), &actor.AccountID, "created", "", domain.PaymentStatusPending, meta)
	})
	if err != nil {
		return nil, err
	}
	view := paymentView(created)
	return &view, nil
}

// SubmitReference stores the bank transfer reference and moves the payment to review.
// The reference is advisory; an admin still verifies the transfer before approving.
func (s *PaymentService) SubmitReference(ctx context.Context, actor Actor, paymentID uuid.UUID, reference string) (*PaymentView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrEmptyReference
	}
	if len(reference) > maxReferenceLength {
		return nil, fmt.Errorf("%w: reference is longer than %d characters", ErrValidation, maxReferenceLength)
	}

	var updated repository.PendingPayment
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(paymentID)
		p, err := qtx.GetPendingPaymentForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock pending payment: %w", err)
		}
		if repository.FromPgUUID(p.AccountID) != actor.AccountID {
			return ErrNotOwner
		}
		if err := paymentTransitions.check("payment", p.Status, domain.PaymentStatusInReview); err != nil {
			return err
		}
		rows, err := qtx.UpdatePendingPaymentReference(ctx, repository.UpdatePendingPaymentReferenceParams{
			ID:        id,
			Reference: reference,
			Status:    domain.PaymentStatusInReview,
		})
		if err != nil {
			return fmt.Errorf("update payment reference: %w", err)
		}
		if err := requireExactlyOne(rows, "update payment reference"); err != nil {
			return err
		}
		updated, err = qtx.GetPendingPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("reload pending payment: %w", err)
		}
		meta := auditMetadata(map[string]any{"reference": reference})
		return s.audit.Write(ctx, qtx, "payment", paymentID.String(), &actor.AccountID, "reference_submitted", p.Status, domain.PaymentStatusInReview, meta)
	})
	if err != nil {
		return nil, err
	}
	view := paymentView(updated)
	return &view, nil
}

type ApprovePaymentResult struct {
	Payment PaymentView `json:"payment"`
	Package PackageView `json:"package"`
}

// Approve credits the investment balance, creates the package and removes the pending
// record in one transaction. A payment can only be approved once because the pending
// row is locked and deleted, and packages.payment_id is unique.
func (s *PaymentService) Approve(ctx context.Context, actor Actor, paymentID uuid.UUID) (*ApprovePaymentResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var result ApprovePaymentResult
	err := runLedgerTx(ctx, s.store, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(paymentID)
		p, err := qtx.GetPendingPaymentForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock pending payment: %w", err)
		}
		if err := paymentTransitions.check("payment", p.Status, domain.PaymentStatusApproved); err != nil {
			return err
		}
		if _, err := qtx.GetAccountForUpdate(ctx, p.AccountID); err != nil {
			if isNoRows(err) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}
		item, err := qtx.GetCatalogItem(ctx, p.CatalogID)
		if err != nil {
			if isNoRows(err) {
				return ErrCatalogNotFound
			}
			return fmt.Errorf("get catalog item: %w", err)
		}

		// The intent amount is what the user transferred; catalog edits after the intent
		// do not change it.
		accountID := repository.FromPgUUID(p.AccountID)
		if err := postMovements(ctx, qtx, accountID, domain.KindPackagePurchase, paymentID.String(),
			credit(domain.BucketInvestment, domain.Amount(p.Amount))); err != nil {
			return err
		}

		pkg, err := qtx.InsertPackage(ctx, repository.InsertPackageParams{
			ID:             repository.ToPgUUID(uuid.New()),
			AccountID:      p.AccountID,
			CatalogID:      item.ID,
			PaymentID:      id,
			Name:           item.Name,
			InvestedAmount: p.Amount,
			TermDays:       item.TermDays,
			PayoutMode:     item.PayoutMode,
			DailyYield:     item.DailyYield,
			FinalPayout:    item.FinalPayout,
			Status:         domain.PackageStatusActive,
			PurchasedAt:    repository.ToPgTimestamptz(s.now().UTC()),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: payment already produced a package", ErrConflict)
			}
			return fmt.Errorf("insert package: %w", err)
		}

		rows, err := qtx.SetActivePackage(ctx, p.AccountID)
		if err != nil {
			return fmt.Errorf("set active package: %w", err)
		}
		if err := requireExactlyOne(rows, "set active package"); err != nil {
			return err
		}

		rows, err = qtx.DeletePendingPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("delete pending payment: %w", err)
		}
		if err := requireExactlyOne(rows, "delete pending payment"); err != nil {
			return err
		}

		meta := auditMetadata(map[string]any{
			"account_id": accountID.String(),
			"catalog_id": item.ID,
			"amount":     p.Amount,
			"package_id": repository.FromPgUUID(pkg.ID).String(),
		})
		if err := s.audit.Write(ctx, qtx, "payment", paymentID.String(), &actor.AccountID, "approved", p.Status, domain.PaymentStatusApproved, meta); err != nil {
			return err
		}

		result.Payment = paymentView(p)
		result.Payment.Status = domain.PaymentStatusApproved
		result.Package = packageView(pkg, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementApprovalDecision("payments", "approved")
	zap.L().Info("payment approved",
		zap.String("payment_id", paymentID.String()),
		zap.String("account_id", result.Payment.AccountID.String()),
		zap.Int64("amount", int64(result.Payment.Amount)),
		zap.String("admin_id", actor.AccountID.String()),
	)
	return &result, nil
}

// Reject discards the pending payment without touching balances.
func (s *PaymentService) Reject(ctx context.Context, actor Actor, paymentID uuid.UUID, reason string) (*PaymentView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var rejected repository.PendingPayment
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		id := repository.ToPgUUID(paymentID)
		p, err := qtx.GetPendingPaymentForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock pending payment: %w", err)
		}
		if err := paymentTransitions.check("payment", p.Status, domain.PaymentStatusRejected); err != nil {
			return err
		}
		rows, err := qtx.DeletePendingPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("delete pending payment: %w", err)
		}
		if err := requireExactlyOne(rows, "delete pending payment"); err != nil {
			return err
		}
		rejected = p
		meta := auditMetadata(map[string]any{
			"account_id": repository.FromPgUUID(p.AccountID).String(),
			"reason":     reason,
		})
		return s.audit.Write(ctx, qtx, "payment", paymentID.String(), &actor.AccountID, "rejected", p.Status, domain.PaymentStatusRejected, meta)
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementApprovalDecision("payments", "rejected")
	zap.L().Info("payment rejected",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason),
		zap.String("admin_id", actor.AccountID.String()),
	)
	view := paymentView(rejected)
	view.Status = domain.PaymentStatusRejected
	return &view, nil
}

// ListPending is the admin review queue, oldest first.
func (s *PaymentService) ListPending(ctx context.Context, actor Actor) ([]PaymentView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.store.Queries().ListPendingPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return paymentViews(rows), nil
}

func (s *PaymentService) ListMine(ctx context.Context, actor Actor) ([]PaymentView, error) {
	rows, err := s.store.Queries().ListPendingPaymentsByAccount(ctx, repository.ToPgUUID(actor.AccountID))
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return paymentViews(rows), nil
}

func paymentViews(rows []repository.PendingPayment) []PaymentView {
	out := make([]PaymentView, 0, len(rows))
	for _, p := range rows {
		out = append(out, paymentView(p))
	}
	return out
}
