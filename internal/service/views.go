package service

import (
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
)

type Destination struct {
	Method  string `json:"method"`
	Account string `json:"account"`
}

type AccountView struct {
	ID                    uuid.UUID     `json:"id"`
	Email                 string        `json:"email"`
	DisplayName           string        `json:"display_name"`
	Role                  string        `json:"role"`
	InvestmentBalance     domain.Amount `json:"investment_balance"`
	EarnedBalance         domain.Amount `json:"earned_balance"`
	BonusBalance          domain.Amount `json:"bonus_balance"`
	FreeYieldAccrued      domain.Amount `json:"free_yield_accrued"`
	ReferralCode          string        `json:"referral_code"`
	ReferredByCode        *string       `json:"referred_by_code,omitempty"`
	ActivePackage         bool          `json:"active_package"`
	WithdrawalDestination *Destination  `json:"withdrawal_destination,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}

func accountView(a repository.Account) AccountView {
	v := AccountView{
		ID:                repository.FromPgUUID(a.ID),
		Email:             a.Email,
		DisplayName:       a.DisplayName,
		Role:              a.Role,
		InvestmentBalance: domain.Amount(a.InvestmentBalance),
		EarnedBalance:     domain.Amount(a.EarnedBalance),
		BonusBalance:      domain.Amount(a.BonusBalance),
		FreeYieldAccrued:  domain.Amount(a.FreeYieldAccrued),
		ReferralCode:      a.ReferralCode,
		ReferredByCode:    a.ReferredByCode,
		ActivePackage:     a.ActivePackage,
		CreatedAt:         a.CreatedAt.Time,
	}
	if a.WithdrawalMethod != nil && a.WithdrawalAccount != nil {
		v.WithdrawalDestination = &Destination{Method: *a.WithdrawalMethod, Account: *a.WithdrawalAccount}
	}
	return v
}

type PackageView struct {
	ID             uuid.UUID              `json:"id"`
	CatalogID      string                 `json:"catalog_id"`
	Name           string                 `json:"name"`
	InvestedAmount domain.Amount          `json:"invested_amount"`
	TermDays       int                    `json:"term_days"`
	PayoutMode     string                 `json:"payout_mode"`
	DailyYield     domain.Amount          `json:"daily_yield"`
	FinalPayout    domain.Amount          `json:"final_payout"`
	PurchasedAt    time.Time              `json:"purchased_at"`
	Progress       domain.PackageProgress `json:"progress"`
}

func packageTerms(p repository.Package) domain.PackageTerms {
	return domain.PackageTerms{
		InvestedAmount: domain.Amount(p.InvestedAmount),
		TermDays:       int(p.TermDays),
		PayoutMode:     p.PayoutMode,
		DailyYield:     domain.Amount(p.DailyYield),
		FinalPayout:    domain.Amount(p.FinalPayout),
		PurchasedAt:    p.PurchasedAt.Time,
	}
}

func packageView(p repository.Package, now time.Time) PackageView {
	return PackageView{
		ID:             repository.FromPgUUID(p.ID),
		CatalogID:      p.CatalogID,
		Name:           p.Name,
		InvestedAmount: domain.Amount(p.InvestedAmount),
		TermDays:       int(p.TermDays),
		PayoutMode:     p.PayoutMode,
		DailyYield:     domain.Amount(p.DailyYield),
		FinalPayout:    domain.Amount(p.FinalPayout),
		PurchasedAt:    p.PurchasedAt.Time,
		Progress:       domain.Progress(packageTerms(p), now),
	}
}

type PaymentView struct {
	ID        uuid.UUID     `json:"id"`
	AccountID uuid.UUID     `json:"account_id"`
	CatalogID string        `json:"catalog_id"`
	Amount    domain.Amount `json:"amount"`
	Reference *string       `json:"reference,omitempty"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

func paymentView(p repository.PendingPayment) PaymentView {
	return PaymentView{
		ID:        repository.FromPgUUID(p.ID),
		AccountID: repository.FromPgUUID(p.AccountID),
		CatalogID: p.CatalogID,
		Amount:    domain.Amount(p.Amount),
		Reference: p.Reference,
		Status:    p.Status,
		CreatedAt: p.CreatedAt.Time,
	}
}

type WithdrawalView struct {
	ID          uuid.UUID     `json:"id"`
	AccountID   uuid.UUID     `json:"account_id"`
	Amount      domain.Amount `json:"amount"`
	Destination Destination   `json:"destination"`
	Status      string        `json:"status"`
	Reason      *string       `json:"reason,omitempty"`
	RequestedAt time.Time     `json:"requested_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

func pendingWithdrawalView(w repository.PendingWithdrawal) WithdrawalView {
	return WithdrawalView{
		ID:          repository.FromPgUUID(w.ID),
		AccountID:   repository.FromPgUUID(w.AccountID),
		Amount:      domain.Amount(w.Amount),
		Destination: Destination{Method: w.Method, Account: w.Destination},
		Status:      w.Status,
		RequestedAt: w.CreatedAt.Time,
	}
}

func withdrawalRecordView(w repository.Withdrawal) WithdrawalView {
	resolved := w.ResolvedAt.Time
	return WithdrawalView{
		ID:          repository.FromPgUUID(w.ID),
		AccountID:   repository.FromPgUUID(w.AccountID),
		Amount:      domain.Amount(w.Amount),
		Destination: Destination{Method: w.Method, Account: w.Destination},
		Status:      w.Status,
		Reason:      w.Reason,
		RequestedAt: w.RequestedAt.Time,
		ResolvedAt:  &resolved,
	}
}

type EntryView struct {
	ID        int64         `json:"id"`
	Bucket    string        `json:"bucket"`
	Amount    domain.Amount `json:"amount"`
	Kind      string        `json:"kind"`
	Reference *string       `json:"reference,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func entryView(e repository.LedgerEntry) EntryView {
	return EntryView{
		ID:        e.ID,
		Bucket:    e.Bucket,
		Amount:    domain.Amount(e.Amount),
		Kind:      e.Kind,
		Reference: e.Reference,
		CreatedAt: e.CreatedAt.Time,
	}
}

func freeYieldState(a repository.Account) domain.FreeYieldState {
	return domain.FreeYieldState{
		Active:      a.FreeYieldActive,
		StartedOn:   repository.FromPgDate(a.FreeYieldStartedOn),
		LastClaimOn: repository.FromPgDate(a.FreeYieldLastClaimOn),
		Accrued:     domain.Amount(a.FreeYieldAccrued),
	}
}
