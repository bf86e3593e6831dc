package service

import (
	"fmt"
	"strings"

	"github.com/cartai/ledger/internal/domain"
)

type transitionTable map[string]map[string]struct{}

var paymentTransitions = transitionTable{
	domain.PaymentStatusPending: {
		domain.PaymentStatusInReview: {},
		domain.PaymentStatusApproved: {},
		domain.PaymentStatusRejected: {},
	},
	// Re-submitting a reference while in review replaces it.
	domain.PaymentStatusInReview: {
		domain.PaymentStatusInReview: {},
		domain.PaymentStatusApproved: {},
		domain.PaymentStatusRejected: {},
	},
	domain.PaymentStatusApproved: {},
	domain.PaymentStatusRejected: {},
}

var withdrawalTransitions = transitionTable{
	domain.WithdrawalStatusPending: {
		domain.WithdrawalStatusApproved: {},
		domain.WithdrawalStatusRejected: {},
	},
	domain.WithdrawalStatusApproved: {},
	domain.WithdrawalStatusRejected: {},
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

func (t transitionTable) allows(current, next string) bool {
	nextStates, ok := t[normalizeState(current)]
	if !ok {
		return false
	}
	_, ok = nextStates[normalizeState(next)]
	return ok
}

func (t transitionTable) check(entity, current, next string) error {
	if !t.allows(current, next) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, current, next)
	}
	return nil
}
