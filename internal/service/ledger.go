package service

import (
	"context"
	"fmt"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/repository"
	"github.com/google/uuid"
)

// publishMovement is swapped in tests.
var publishMovement = observability.ObserveLedgerMovement

type movement struct {
	bucket string
	amount domain.Amount
}

func credit(bucket string, amount domain.Amount) movement {
	return movement{bucket: bucket, amount: amount}
}

func debit(bucket string, amount domain.Amount) movement {
	return movement{bucket: bucket, amount: -amount}
}

// postMovements applies all deltas to the account in one UPDATE and writes one ledger
// entry per bucket touched. A delta that would leave a bucket negative is rejected by
// the balance CHECK constraints and reported as ErrNegativeBalance.
func postMovements(ctx context.Context, qtx repository.Querier, accountID uuid.UUID, kind, reference string, moves ...movement) error {
	params := repository.AdjustAccountBalancesParams{ID: repository.ToPgUUID(accountID)}
	for _, m := range moves {
		switch m.bucket {
		case domain.BucketInvestment:
			params.Investment += int64(m.amount)
		case domain.BucketEarned:
			params.Earned += int64(m.amount)
		case domain.BucketBonus:
			params.Bonus += int64(m.amount)
		case domain.BucketFreeYield:
			params.FreeYield += int64(m.amount)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidBucket, m.bucket)
		}
	}

	rows, err := qtx.AdjustAccountBalances(ctx, params)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w (account %s)", ErrNegativeBalance, accountID)
		}
		return fmt.Errorf("adjust account balances: %w", err)
	}
	if err := requireExactlyOne(rows, "adjust account balances"); err != nil {
		return err
	}

	for _, m := range moves {
		if m.amount == 0 {
			continue
		}
		if _, err := qtx.InsertLedgerEntry(ctx, repository.InsertLedgerEntryParams{
			AccountID: repository.ToPgUUID(accountID),
			Bucket:    m.bucket,
			Amount:    int64(m.amount),
			Kind:      kind,
			Reference: textParam(reference),
		}); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		if lt, ok := qtx.(*ledgerTx); ok {
			lt.posted = append(lt.posted, postedMovement{bucket: m.bucket, kind: kind, amount: m.amount})
		}
	}
	return nil
}

type postedMovement struct {
	bucket string
	kind   string
	amount domain.Amount
}

// ledgerTx records the movements posted through it so they are only counted once the
// transaction has committed.
type ledgerTx struct {
	repository.Querier
	posted []postedMovement
}

// runLedgerTx runs fn in a transaction and publishes movement metrics after commit.
// Rolled back and retried attempts publish nothing.
func runLedgerTx(ctx context.Context, store QueryStore, fn func(qtx repository.Querier) error) error {
	var committed *ledgerTx
	err := store.RunInTx(ctx, func(q repository.Querier) error {
		committed = &ledgerTx{Querier: q}
		return fn(committed)
	})
	if err != nil {
		return err
	}
	for _, m := range committed.posted {
		publishMovement(m.bucket, m.kind, int64(m.amount))
	}
	return nil
}
