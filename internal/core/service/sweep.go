package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/port"
)

// SweepResult reports the candidate set of an expiration sweep. In dry-run
// mode Count is the candidate count; in live mode it is the number of orders
// actually transitioned.
type SweepResult struct {
	Count  int64
	Orders []domain.Order
}

// SweepExpired cancels PENDING orders created before cutoff. Candidates that
// left PENDING between the scan and the bulk update are skipped. In dry-run
// mode nothing is mutated.
//
// Unlike CancelOrder this does not restore inventory; the batch has always
// behaved that way and restitution here is tracked as an open product
// decision.
func (s *OrderService) SweepExpired(ctx context.Context, cutoff time.Time, dryRun bool) (SweepResult, error) {
	candidates, err := s.store.ListStalePendingOrders(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale orders: %w", err)
	}

	if dryRun || len(candidates) == 0 {
		return SweepResult{Count: int64(len(candidates)), Orders: candidates}, nil
	}

	ids := make([]string, len(candidates))
	for i, order := range candidates {
		ids[i] = order.ID
	}

	var count int64
	err = s.store.ExecTx(ctx, func(tx port.Store) error {
		n, err := tx.CancelOrders(ctx, ids, time.Now())
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return SweepResult{Count: count, Orders: candidates}, nil
}
