package service

import (
	"slices"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/google/uuid"
)

// Policy carries the business constants and open-question switches shared by services.
type Policy struct {
	MinWithdrawal      domain.Amount
	RefereeBonus       domain.Amount
	ReferrerBonus      domain.Amount
	FreeYieldTermDays  int
	FreeYieldDailyUnit domain.Amount
	// DebitOnApproval re-debits earned balance when an admin approves a withdrawal.
	DebitOnApproval bool
	// RefundOnReject restores the request-time debit when a withdrawal is rejected.
	RefundOnReject bool
	Location       *time.Location
	// AdminUserIDs are identity-provider user ids promoted to admin at login.
	AdminUserIDs []uuid.UUID
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		MinWithdrawal:      20_000,
		RefereeBonus:       2_000,
		ReferrerBonus:      6_000,
		FreeYieldTermDays:  60,
		FreeYieldDailyUnit: 500,
		Location:           time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Policy) isBootstrapAdmin(id uuid.UUID) bool {
	return slices.Contains(p.AdminUserIDs, id)
}
