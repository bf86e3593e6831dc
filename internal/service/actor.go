package service

import (
	"github.com/cartai/ledger/internal/domain"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	AccountID uuid.UUID
	Role      string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func requireOwnerOrAdmin(a Actor, accountID uuid.UUID) error {
	if a.IsAdmin() || a.AccountID == accountID {
		return nil
	}
	return ErrNotOwner
}
