package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
)

func (t *tx) findWallet(ownerType ledger_models.OwnerType, ownerID uuid.UUID) (ledger_models.Wallet, bool) {
	for _, w := range t.s.wallets {
		if w.OwnerType == ownerType && w.OwnerID == ownerID {
			return w, true
		}
	}
	return ledger_models.Wallet{}, false
}

func (t *tx) LockWallet(_ context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	if w, ok := t.findWallet(ownerType, ownerID); ok {
		return &w, nil
	}
	w, err := ledger_models.NewWallet(ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet id: %w", err)
	}
	t.s.wallets[w.ID] = *w
	return w, nil
}

func (t *tx) GetWallet(_ context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	w, ok := t.findWallet(ownerType, ownerID)
	if !ok {
		return nil, fmt.Errorf("wallet: %w", ledger_models.ErrNotFound)
	}
	return &w, nil
}

func (t *tx) UpdateWallet(_ context.Context, w *ledger_models.Wallet) error {
	if _, ok := t.s.wallets[w.ID]; !ok {
		return fmt.Errorf("wallet %s: %w", w.ID, ledger_models.ErrNotFound)
	}
	// Mirrors the CHECK constraint on wallets.current_balance.
	if w.CurrentBalance.IsNegative() {
		return fmt.Errorf("wallet %s: balance would become negative", w.ID)
	}
	w.UpdatedAt = time.Now().UTC()
	t.s.wallets[w.ID] = *w
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, tr *ledger_models.Transaction) error {
	if !tr.Amount.IsPositive() {
		return fmt.Errorf("insert wallet transaction: amount must be positive")
	}
	t.s.transactions = append(t.s.transactions, *tr)
	return nil
}

func (t *tx) ListTransactions(_ context.Context, walletID uuid.UUID, limit, offset int) ([]*ledger_models.Transaction, error) {
	var all []*ledger_models.Transaction
	for i := len(t.s.transactions) - 1; i >= 0; i-- {
		if tr := t.s.transactions[i]; tr.WalletID == walletID {
			all = append(all, &tr)
		}
	}
	from, to := clampPage(len(all), limit, offset)
	return all[from:to], nil
}

func (t *tx) CountCreditsSinceSettlement(_ context.Context, walletID uuid.UUID) (int, error) {
	n := 0
	for _, tr := range t.s.transactions {
		if tr.WalletID != walletID {
			continue
		}
		switch tr.Type {
		case ledger_models.TxSettlement:
			n = 0
		case ledger_models.TxCredit:
			n++
		}
	}
	return n, nil
}

func (t *tx) ListWalletsWithBalance(_ context.Context, ownerType ledger_models.OwnerType) ([]*ledger_models.Wallet, error) {
	var out []*ledger_models.Wallet
	for _, w := range t.s.wallets {
		if w.OwnerType == ownerType && w.IsActive && w.CurrentBalance.IsPositive() {
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID.String() < out[j].OwnerID.String() })
	return out, nil
}

func (t *tx) InsertEarning(_ context.Context, e *ledger_models.WorkerEarning) error {
	t.s.earnings[e.ID] = *e
	return nil
}

func sortEarnings(es []*ledger_models.WorkerEarning) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].WorkerID != es[j].WorkerID {
			return es[i].WorkerID.String() < es[j].WorkerID.String()
		}
		return es[i].EarnedAt.Before(es[j].EarnedAt)
	})
}

func (t *tx) LockPendingEarnings(_ context.Context, providerIDs []uuid.UUID) ([]*ledger_models.WorkerEarning, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range providerIDs {
		wanted[id] = true
	}
	var out []*ledger_models.WorkerEarning
	for _, e := range t.s.earnings {
		if e.PayoutStatus != ledger_models.EarningPending {
			continue
		}
		if len(wanted) > 0 && !wanted[e.WorkerID] {
			continue
		}
		out = append(out, &e)
	}
	sortEarnings(out)
	return out, nil
}

func (t *tx) PendingEarners(_ context.Context, providerIDs []uuid.UUID) ([]uuid.UUID, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range providerIDs {
		wanted[id] = true
	}
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, e := range t.s.earnings {
		if e.PayoutStatus != ledger_models.EarningPending || seen[e.WorkerID] {
			continue
		}
		if len(wanted) > 0 && !wanted[e.WorkerID] {
			continue
		}
		seen[e.WorkerID] = true
		out = append(out, e.WorkerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (t *tx) ConsumeEarnings(_ context.Context, earningIDs []uuid.UUID, consumedBy uuid.UUID, at time.Time) error {
	for _, id := range earningIDs {
		e, ok := t.s.earnings[id]
		if !ok || e.PayoutStatus != ledger_models.EarningPending {
			return fmt.Errorf("consume earnings for %s: %w: earning %s is not pending",
				consumedBy, ledger_models.ErrInvalidState, id)
		}
		e.PayoutStatus = ledger_models.EarningSettled
		e.ConsumedBy = &consumedBy
		e.PayoutDate = &at
		t.s.earnings[id] = e
	}
	return nil
}

func (t *tx) ReleaseEarnings(_ context.Context, consumedBy uuid.UUID) (int64, error) {
	var n int64
	for id, e := range t.s.earnings {
		if e.ConsumedBy == nil || *e.ConsumedBy != consumedBy || e.PayoutStatus != ledger_models.EarningSettled {
			continue
		}
		e.PayoutStatus = ledger_models.EarningPending
		e.ConsumedBy = nil
		e.PayoutDate = nil
		t.s.earnings[id] = e
		n++
	}
	return n, nil
}

func (t *tx) LinkEarnings(_ context.Context, earningIDs []uuid.UUID, batchID, detailID uuid.UUID) error {
	for _, id := range earningIDs {
		e, ok := t.s.earnings[id]
		if !ok || e.PayoutStatus != ledger_models.EarningPending {
			return fmt.Errorf("link earnings to detail %s: %w: earning %s is not pending",
				detailID, ledger_models.ErrInvalidState, id)
		}
		e.PayoutStatus = ledger_models.EarningBatched
		e.PayoutBatchID = &batchID
		e.PayoutDetailID = &detailID
		t.s.earnings[id] = e
	}
	return nil
}

func (t *tx) MarkEarningsPaid(_ context.Context, detailID uuid.UUID, paidAt time.Time) (int64, error) {
	var n int64
	for id, e := range t.s.earnings {
		if e.PayoutDetailID == nil || *e.PayoutDetailID != detailID || e.PayoutStatus != ledger_models.EarningBatched {
			continue
		}
		e.PayoutStatus = ledger_models.EarningPaid
		e.PayoutDate = &paidAt
		t.s.earnings[id] = e
		n++
	}
	return n, nil
}

func (t *tx) ListEarningsByDetail(_ context.Context, detailID uuid.UUID) ([]*ledger_models.WorkerEarning, error) {
	var out []*ledger_models.WorkerEarning
	for _, e := range t.s.earnings {
		if e.PayoutDetailID != nil && *e.PayoutDetailID == detailID {
			out = append(out, &e)
		}
	}
	sortEarnings(out)
	return out, nil
}

func (t *tx) ChargeConfigs(_ context.Context, chargeType ledger_models.ChargeType) ([]*ledger_models.ChargeConfiguration, error) {
	var out []*ledger_models.ChargeConfiguration
	for _, c := range t.s.charges {
		if c.ChargeType == chargeType {
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveFrom.After(out[j].EffectiveFrom) })
	return out, nil
}

func (t *tx) InsertChargeConfig(_ context.Context, c *ledger_models.ChargeConfiguration) error {
	t.s.charges = append(t.s.charges, *c)
	return nil
}

func (t *tx) WalletSettings(_ context.Context, key string) ([]*ledger_models.WalletSetting, error) {
	var out []*ledger_models.WalletSetting
	for _, s := range t.s.settings {
		if s.Key == key {
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveFrom.After(out[j].EffectiveFrom) })
	return out, nil
}
