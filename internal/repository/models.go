package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID                   pgtype.UUID        `json:"id"`
	Email                string             `json:"email"`
	DisplayName          string             `json:"display_name"`
	Role                 string             `json:"role"`
	InvestmentBalance    int64              `json:"investment_balance"`
	EarnedBalance        int64              `json:"earned_balance"`
	BonusBalance         int64              `json:"bonus_balance"`
	FreeYieldActive      bool               `json:"free_yield_active"`
	FreeYieldStartedOn   pgtype.Date        `json:"free_yield_started_on"`
	FreeYieldLastClaimOn pgtype.Date        `json:"free_yield_last_claim_on"`
	FreeYieldAccrued     int64              `json:"free_yield_accrued"`
	WithdrawalMethod     *string            `json:"withdrawal_method"`
	WithdrawalAccount    *string            `json:"withdrawal_account"`
	ReferralCode         string             `json:"referral_code"`
	ReferredByCode       *string            `json:"referred_by_code"`
	ActivePackage        bool               `json:"active_package"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type PackageCatalog struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	InvestedAmount int64  `json:"invested_amount"`
	TermDays       int32  `json:"term_days"`
	PayoutMode     string `json:"payout_mode"`
	DailyYield     int64  `json:"daily_yield"`
	FinalPayout    int64  `json:"final_payout"`
	Active         bool   `json:"active"`
	SortOrder      int32  `json:"sort_order"`
}

type Package struct {
	ID             pgtype.UUID        `json:"id"`
	AccountID      pgtype.UUID        `json:"account_id"`
	CatalogID      string             `json:"catalog_id"`
	PaymentID      pgtype.UUID        `json:"payment_id"`
	Name           string             `json:"name"`
	InvestedAmount int64              `json:"invested_amount"`
	TermDays       int32              `json:"term_days"`
	PayoutMode     string             `json:"payout_mode"`
	DailyYield     int64              `json:"daily_yield"`
	FinalPayout    int64              `json:"final_payout"`
	Status         string             `json:"status"`
	PurchasedAt    pgtype.Timestamptz `json:"purchased_at"`
}

type PendingPayment struct {
	ID        pgtype.UUID        `json:"id"`
	AccountID pgtype.UUID        `json:"account_id"`
	CatalogID string             `json:"catalog_id"`
	Amount    int64              `json:"amount"`
	Reference *string            `json:"reference"`
	Status    string             `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type PendingWithdrawal struct {
	ID          pgtype.UUID        `json:"id"`
	AccountID   pgtype.UUID        `json:"account_id"`
	Amount      int64              `json:"amount"`
	Method      string             `json:"method"`
	Destination string             `json:"destination"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Withdrawal struct {
	ID          pgtype.UUID        `json:"id"`
	AccountID   pgtype.UUID        `json:"account_id"`
	Amount      int64              `json:"amount"`
	Method      string             `json:"method"`
	Destination string             `json:"destination"`
	Status      string             `json:"status"`
	Reason      *string            `json:"reason"`
	RequestedAt pgtype.Timestamptz `json:"requested_at"`
	ResolvedAt  pgtype.Timestamptz `json:"resolved_at"`
	ResolvedBy  pgtype.UUID        `json:"resolved_by"`
}

type PromoCode struct {
	Code        string             `json:"code"`
	CreditValue int64              `json:"credit_value"`
	Used        bool               `json:"used"`
	RedeemedBy  pgtype.UUID        `json:"redeemed_by"`
	RedeemedAt  pgtype.Timestamptz `json:"redeemed_at"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Referral struct {
	RefereeID     pgtype.UUID        `json:"referee_id"`
	ReferrerID    pgtype.UUID        `json:"referrer_id"`
	Code          string             `json:"code"`
	RefereeBonus  int64              `json:"referee_bonus"`
	ReferrerBonus int64              `json:"referrer_bonus"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type LedgerEntry struct {
	ID        int64              `json:"id"`
	AccountID pgtype.UUID        `json:"account_id"`
	Bucket    string             `json:"bucket"`
	Amount    int64              `json:"amount"`
	Kind      string             `json:"kind"`
	Reference *string            `json:"reference"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type AuditLog struct {
	ID         int64              `json:"id"`
	EntityType string             `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	ActorID    pgtype.UUID        `json:"actor_id"`
	Action     string             `json:"action"`
	PrevState  *string            `json:"prev_state"`
	NextState  *string            `json:"next_state"`
	Metadata   []byte             `json:"metadata"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type IdempotencyKey struct {
	IdempotencyKey string             `json:"idempotency_key"`
	RequestHash    string             `json:"request_hash"`
	Method         string             `json:"method"`
	Path           string             `json:"path"`
	InProgress     bool               `json:"in_progress"`
	ResponseStatus int32              `json:"response_status"`
	ResponseBody   []byte             `json:"response_body"`
	ContentType    string             `json:"content_type"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}
