package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

func (t *tx) InsertWithdrawal(_ context.Context, w *ledger_models.WithdrawalRequest) error {
	t.s.withdrawals[w.ID] = *w
	return nil
}

func (t *tx) LockWithdrawal(_ context.Context, id uuid.UUID) (*ledger_models.WithdrawalRequest, error) {
	w, ok := t.s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("withdrawal request: %w", ledger_models.ErrNotFound)
	}
	return &w, nil
}

func (t *tx) UpdateWithdrawal(_ context.Context, w *ledger_models.WithdrawalRequest) error {
	w.UpdatedAt = time.Now().UTC()
	t.s.withdrawals[w.ID] = *w
	return nil
}

func (t *tx) ListWithdrawals(_ context.Context, f repository.WithdrawalFilter) ([]*ledger_models.WithdrawalRequest, error) {
	var all []*ledger_models.WithdrawalRequest
	for _, w := range t.s.withdrawals {
		if f.WorkerID != nil && w.WorkerID != *f.WorkerID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		all = append(all, &w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from, to := clampPage(len(all), f.Limit, f.Offset)
	return all[from:to], nil
}

func (t *tx) PendingWithdrawalTotal(_ context.Context, workerID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, w := range t.s.withdrawals {
		if w.WorkerID == workerID && w.Status == ledger_models.WithdrawalPending {
			total = total.Add(w.Amount)
		}
	}
	return total, nil
}

func (t *tx) InsertSettlement(_ context.Context, s *ledger_models.DailySettlement) error {
	t.s.settlements[s.ID] = *s
	return nil
}

func (t *tx) LockSettlement(_ context.Context, id uuid.UUID) (*ledger_models.DailySettlement, error) {
	s, ok := t.s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("settlement: %w", ledger_models.ErrNotFound)
	}
	return &s, nil
}

func (t *tx) UpdateSettlement(_ context.Context, s *ledger_models.DailySettlement) error {
	s.UpdatedAt = time.Now().UTC()
	t.s.settlements[s.ID] = *s
	return nil
}

func (t *tx) ListSettlements(_ context.Context, workerID *uuid.UUID, limit, offset int) ([]*ledger_models.DailySettlement, error) {
	var all []*ledger_models.DailySettlement
	for _, s := range t.s.settlements {
		if workerID != nil && s.WorkerID != *workerID {
			continue
		}
		all = append(all, &s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from, to := clampPage(len(all), limit, offset)
	return all[from:to], nil
}

func (t *tx) InsertTopup(_ context.Context, r *ledger_models.TopupRequest) error {
	if r.GatewayOrderID != nil {
		for _, other := range t.s.topups {
			if other.GatewayOrderID != nil && *other.GatewayOrderID == *r.GatewayOrderID {
				return fmt.Errorf("insert top-up request: duplicate gateway order %s", *r.GatewayOrderID)
			}
		}
	}
	t.s.topups[r.ID] = *r
	return nil
}

func (t *tx) LockTopup(_ context.Context, id uuid.UUID) (*ledger_models.TopupRequest, error) {
	r, ok := t.s.topups[id]
	if !ok {
		return nil, fmt.Errorf("top-up request: %w", ledger_models.ErrNotFound)
	}
	return &r, nil
}

func (t *tx) LockTopupByOrder(_ context.Context, gatewayOrderID string) (*ledger_models.TopupRequest, error) {
	for _, r := range t.s.topups {
		if r.GatewayOrderID != nil && *r.GatewayOrderID == gatewayOrderID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("top-up request: %w", ledger_models.ErrNotFound)
}

func (t *tx) UpdateTopup(_ context.Context, r *ledger_models.TopupRequest) error {
	r.UpdatedAt = time.Now().UTC()
	t.s.topups[r.ID] = *r
	return nil
}

func (t *tx) InsertRefund(_ context.Context, r *ledger_models.WalletRefund) error {
	if _, ok := t.s.refunds[r.BookingID]; ok {
		return ledger_models.ErrDuplicateRefund
	}
	t.s.refunds[r.BookingID] = *r
	return nil
}

func (t *tx) RefundExists(_ context.Context, bookingID uuid.UUID) (bool, error) {
	_, ok := t.s.refunds[bookingID]
	return ok, nil
}
