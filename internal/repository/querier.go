package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	// accounts
	CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error)
	GetAccount(ctx context.Context, id pgtype.UUID) (Account, error)
	GetAccountForUpdate(ctx context.Context, id pgtype.UUID) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	GetAccountByReferralCodeForUpdate(ctx context.Context, referralCode string) (Account, error)
	AdjustAccountBalances(ctx context.Context, arg AdjustAccountBalancesParams) (int64, error)
	SetActivePackage(ctx context.Context, id pgtype.UUID) (int64, error)
	SetAccountRole(ctx context.Context, arg SetAccountRoleParams) (int64, error)
	SetReferredBy(ctx context.Context, arg SetReferredByParams) (int64, error)
	SetWithdrawalDestination(ctx context.Context, arg SetWithdrawalDestinationParams) (int64, error)
	StartFreeYield(ctx context.Context, arg StartFreeYieldParams) (int64, error)
	MarkFreeYieldClaimed(ctx context.Context, arg MarkFreeYieldClaimedParams) (int64, error)
	ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error)

	// catalog and packages
	ListCatalog(ctx context.Context) ([]PackageCatalog, error)
	GetCatalogItem(ctx context.Context, id string) (PackageCatalog, error)
	InsertPackage(ctx context.Context, arg InsertPackageParams) (Package, error)
	ListPackagesByAccount(ctx context.Context, accountID pgtype.UUID) ([]Package, error)
	FinalizeMaturedPackages(ctx context.Context, now pgtype.Timestamptz) (int64, error)

	// payments
	InsertPendingPayment(ctx context.Context, arg InsertPendingPaymentParams) (PendingPayment, error)
	GetPendingPayment(ctx context.Context, id pgtype.UUID) (PendingPayment, error)
	GetPendingPaymentForUpdate(ctx context.Context, id pgtype.UUID) (PendingPayment, error)
	UpdatePendingPaymentReference(ctx context.Context, arg UpdatePendingPaymentReferenceParams) (int64, error)
	DeletePendingPayment(ctx context.Context, id pgtype.UUID) (int64, error)
	ListPendingPayments(ctx context.Context) ([]PendingPayment, error)
	ListPendingPaymentsByAccount(ctx context.Context, accountID pgtype.UUID) ([]PendingPayment, error)
	CountPendingPayments(ctx context.Context) (int64, error)

	// withdrawals
	InsertPendingWithdrawal(ctx context.Context, arg InsertPendingWithdrawalParams) (PendingWithdrawal, error)
	GetPendingWithdrawalForUpdate(ctx context.Context, id pgtype.UUID) (PendingWithdrawal, error)
	DeletePendingWithdrawal(ctx context.Context, id pgtype.UUID) (int64, error)
	ListPendingWithdrawals(ctx context.Context) ([]PendingWithdrawal, error)
	ListPendingWithdrawalsByAccount(ctx context.Context, accountID pgtype.UUID) ([]PendingWithdrawal, error)
	CountPendingWithdrawals(ctx context.Context) (int64, error)
	InsertWithdrawalRecord(ctx context.Context, arg InsertWithdrawalRecordParams) (Withdrawal, error)
	ListWithdrawalsByAccount(ctx context.Context, accountID pgtype.UUID) ([]Withdrawal, error)

	// promo codes and referrals
	CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error)
	GetPromoCodeForUpdate(ctx context.Context, code string) (PromoCode, error)
	MarkPromoCodeUsed(ctx context.Context, arg MarkPromoCodeUsedParams) (int64, error)
	ListPromoCodes(ctx context.Context) ([]PromoCode, error)
	InsertReferral(ctx context.Context, arg InsertReferralParams) (Referral, error)
	ListReferralsByReferrer(ctx context.Context, referrerID pgtype.UUID) ([]Referral, error)

	// ledger and audit
	InsertLedgerEntry(ctx context.Context, arg InsertLedgerEntryParams) (LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, arg ListLedgerEntriesParams) ([]LedgerEntry, error)
	GetLedgerDrift(ctx context.Context) ([]GetLedgerDriftRow, error)
	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error)
	ListAuditLogByEntity(ctx context.Context, arg ListAuditLogByEntityParams) ([]AuditLog, error)

	// idempotency
	GetIdempotencyKey(ctx context.Context, idempotencyKey string) (IdempotencyKey, error)
	ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (IdempotencyKey, error)
	FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (IdempotencyKey, error)
	DeleteIdempotencyKeysBefore(ctx context.Context, before pgtype.Timestamptz) (int64, error)
}
