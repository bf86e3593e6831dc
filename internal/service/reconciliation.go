package service

import (
	"context"
	"fmt"

	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/repository"
	"go.uber.org/zap"
)

// Drift is one balance column that disagrees with the sum of its ledger entries.
type Drift struct {
	AccountID    string `json:"account_id"`
	Bucket       string `json:"bucket"`
	LedgerTotal  int64  `json:"ledger_total"`
	BalanceTotal int64  `json:"balance_total"`
}

// ReconciliationService verifies that every balance column equals its ledger history.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run reports every drifting (account, bucket) pair. Drift is logged and counted, not
// repaired.
func (s *ReconciliationService) Run(ctx context.Context) ([]Drift, error) {
	rows, err := s.store.Queries().GetLedgerDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("run ledger drift query: %w", err)
	}

	if len(rows) == 0 {
		zap.L().Info("Ledger Balanced")
		return nil, nil
	}

	out := make([]Drift, 0, len(rows))
	for _, row := range rows {
		d := Drift{
			AccountID:    repository.FromPgUUID(row.AccountID).String(),
			Bucket:       row.Bucket,
			LedgerTotal:  row.LedgerTotal,
			BalanceTotal: row.BalanceTotal,
		}
		out = append(out, d)
		observability.IncrementLedgerDrift(row.Bucket)
		zap.L().Error("CRITICAL: balance drifted from ledger",
			zap.String("account_id", d.AccountID),
			zap.String("bucket", d.Bucket),
			zap.Int64("ledger_total", d.LedgerTotal),
			zap.Int64("balance_total", d.BalanceTotal),
		)
	}
	return out, nil
}
