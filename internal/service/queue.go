package service

import (
	"context"
	"fmt"
)

type QueueSizes struct {
	PendingPayments    int64 `json:"pending_payments"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
}

// QueueService reports the size of the admin review queues.
type QueueService struct {
	store QueryStore
}

func NewQueueService(store QueryStore) *QueueService {
	return &QueueService{store: store}
}

func (s *QueueService) Sizes(ctx context.Context) (QueueSizes, error) {
	q := s.store.Queries()
	payments, err := q.CountPendingPayments(ctx)
	if err != nil {
		return QueueSizes{}, fmt.Errorf("count pending payments: %w", err)
	}
	withdrawals, err := q.CountPendingWithdrawals(ctx)
	if err != nil {
		return QueueSizes{}, fmt.Errorf("count pending withdrawals: %w", err)
	}
	return QueueSizes{PendingPayments: payments, PendingWithdrawals: withdrawals}, nil
}
