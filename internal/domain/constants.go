package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// Balance buckets. Every ledger entry touches exactly one bucket.
	BucketInvestment = "investment"
	BucketEarned     = "earned"
	BucketBonus      = "bonus"
	BucketFreeYield  = "free_yield"

	// Ledger entry kinds
	KindPackagePurchase      = "package_purchase"
	KindReferralReferee      = "referral_referee"
	KindReferralReferrer     = "referral_referrer"
	KindPromoRedemption      = "promo_redemption"
	KindFreeYieldClaim       = "free_yield_claim"
	KindWithdrawalHold       = "withdrawal_hold"
	KindWithdrawalSettlement = "withdrawal_settlement"
	KindWithdrawalRefund     = "withdrawal_refund"
	KindManualAdjustment     = "manual_adjustment"

	// Pending payment statuses
	PaymentStatusPending  = "pending"
	PaymentStatusInReview = "in_review"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"

	// Withdrawal statuses
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"

	// Package statuses, as stored
	PackageStatusActive    = "activo"
	PackageStatusFinalized = "finalizado"

	PayoutModeDaily   = "daily"
	PayoutModeLumpSum = "lump_sum"

	// Referral and promo codes shorter than this are rejected outright.
	MinCodeLength = 4
)

// WithdrawalMethods lists the accepted destination types.
var WithdrawalMethods = map[string]struct{}{
	"nequi":       {},
	"daviplata":   {},
	"bancolombia": {},
	"ahorros":     {},
	"corriente":   {},
}

// IsBucket reports whether b names a balance bucket.
func IsBucket(b string) bool {
	switch b {
	case BucketInvestment, BucketEarned, BucketBonus, BucketFreeYield:
		return true
	}
	return false
}
