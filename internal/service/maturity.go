package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/repository"
	"go.uber.org/zap"
)

// MaturityService flips stored package status once the term has elapsed. It never
// touches balances or the account's active_package flag.
type MaturityService struct {
	store QueryStore
	now   func() time.Time
}

func NewMaturityService(store QueryStore) *MaturityService {
	return &MaturityService{store: store, now: time.Now}
}

func (s *MaturityService) WithClock(now func() time.Time) *MaturityService {
	s.now = now
	return s
}

// FinalizeMatured returns how many packages were finalized.
func (s *MaturityService) FinalizeMatured(ctx context.Context) (int64, error) {
	n, err := s.store.Queries().FinalizeMaturedPackages(ctx, repository.ToPgTimestamptz(s.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("finalize matured packages: %w", err)
	}
	if n > 0 {
		zap.L().Info("packages finalized", zap.Int64("count", n))
	}
	return n, nil
}
