package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service operation that is caused by the
// caller wraps exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("state conflict")
	ErrForbidden  = errors.New("forbidden")
)

var (
	ErrInvalidCode     = fmt.Errorf("%w: invalid code", ErrValidation)
	ErrAlreadyReferred = fmt.Errorf("%w: account already redeemed a referral code", ErrConflict)
	ErrCodeNotFound    = fmt.Errorf("%w: referral code not found", ErrNotFound)

	ErrPromoNotFound    = fmt.Errorf("%w: promo code not found", ErrNotFound)
	ErrPromoAlreadyUsed = fmt.Errorf("%w: promo code already used", ErrConflict)
	ErrPromoExists      = fmt.Errorf("%w: promo code already exists", ErrConflict)

	ErrBelowMinimum        = fmt.Errorf("%w: amount below minimum withdrawal", ErrValidation)
	ErrInsufficientFunds   = fmt.Errorf("%w: insufficient earned balance", ErrValidation)
	ErrDestinationMissing  = fmt.Errorf("%w: withdrawal destination not bound", ErrValidation)
	ErrDestinationMismatch = fmt.Errorf("%w: confirmation does not match account number", ErrValidation)
	ErrUnknownMethod       = fmt.Errorf("%w: unknown withdrawal method", ErrValidation)
	ErrWithdrawalNotFound  = fmt.Errorf("%w: withdrawal not found", ErrNotFound)

	ErrPaymentNotFound = fmt.Errorf("%w: payment not found", ErrNotFound)
	ErrCatalogNotFound = fmt.Errorf("%w: package not found in catalog", ErrNotFound)
	ErrEmptyReference  = fmt.Errorf("%w: payment reference is required", ErrValidation)

	ErrFreeYieldInactive   = fmt.Errorf("%w: free-yield trial is not active", ErrConflict)
	ErrFreeYieldExpired    = fmt.Errorf("%w: free-yield trial has ended", ErrConflict)
	ErrAlreadyClaimedToday = fmt.Errorf("%w: free yield already claimed today", ErrConflict)

	ErrAccountNotFound = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrAccountExists   = fmt.Errorf("%w: account already exists", ErrConflict)
	ErrInvalidBucket   = fmt.Errorf("%w: unknown balance bucket", ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrNegativeBalance = fmt.Errorf("%w: adjustment would make the balance negative", ErrConflict)

	ErrAdminRequired = fmt.Errorf("%w: admin role required", ErrForbidden)
	ErrNotOwner      = fmt.Errorf("%w: resource belongs to another account", ErrForbidden)

	ErrInvalidTransition = fmt.Errorf("%w: invalid state transition", ErrConflict)

	ErrGameNotFound = fmt.Errorf("%w: game not found", ErrNotFound)
	ErrGameOver     = fmt.Errorf("%w: game is over", ErrConflict)
	ErrMustPlay     = fmt.Errorf("%w: a playable tile is in hand", ErrConflict)
	ErrInvalidSide  = fmt.Errorf("%w: side must be left or right", ErrValidation)
)
