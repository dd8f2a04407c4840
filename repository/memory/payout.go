package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
)

func (t *tx) InsertBatch(_ context.Context, b *ledger_models.PayoutBatch) error {
	for _, other := range t.s.batches {
		if other.BatchReference == b.BatchReference {
			return fmt.Errorf("insert payout batch: duplicate reference %s", b.BatchReference)
		}
	}
	stored := *b
	stored.Details = nil
	t.s.batches[b.ID] = stored
	return nil
}

func (t *tx) GetBatch(_ context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error) {
	b, ok := t.s.batches[id]
	if !ok {
		return nil, fmt.Errorf("payout batch: %w", ledger_models.ErrNotFound)
	}
	return &b, nil
}

func (t *tx) LockBatch(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error) {
	return t.GetBatch(ctx, id)
}

func (t *tx) UpdateBatch(_ context.Context, b *ledger_models.PayoutBatch) error {
	b.UpdatedAt = time.Now().UTC()
	stored := *b
	stored.Details = nil
	t.s.batches[b.ID] = stored
	return nil
}

func sortBatches(bs []*ledger_models.PayoutBatch) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].CreatedAt.After(bs[j].CreatedAt) })
}

func (t *tx) ListBatches(_ context.Context, status ledger_models.BatchStatus, limit, offset int) ([]*ledger_models.PayoutBatch, error) {
	var all []*ledger_models.PayoutBatch
	for _, b := range t.s.batches {
		if status == "" || b.Status == status {
			all = append(all, &b)
		}
	}
	sortBatches(all)
	from, to := clampPage(len(all), limit, offset)
	return all[from:to], nil
}

func (t *tx) ListProcessingBatchesBefore(_ context.Context, before time.Time) ([]*ledger_models.PayoutBatch, error) {
	var out []*ledger_models.PayoutBatch
	for _, b := range t.s.batches {
		if b.Status == ledger_models.BatchProcessing && b.ProcessedAt != nil && b.ProcessedAt.Before(before) {
			out = append(out, &b)
		}
	}
	sortBatches(out)
	return out, nil
}

func (t *tx) InsertDetail(_ context.Context, d *ledger_models.PayoutDetail) error {
	for _, other := range t.s.details {
		if other.BatchID == d.BatchID && other.ProviderID == d.ProviderID {
			return fmt.Errorf("insert payout detail: provider %s already in batch %s", d.ProviderID, d.BatchID)
		}
	}
	t.s.details[d.ID] = *d
	return nil
}

func (t *tx) LockDetail(_ context.Context, id uuid.UUID) (*ledger_models.PayoutDetail, error) {
	d, ok := t.s.details[id]
	if !ok {
		return nil, fmt.Errorf("payout detail: %w", ledger_models.ErrNotFound)
	}
	return &d, nil
}

func (t *tx) UpdateDetail(_ context.Context, d *ledger_models.PayoutDetail) error {
	d.UpdatedAt = time.Now().UTC()
	t.s.details[d.ID] = *d
	return nil
}

func (t *tx) ListDetails(_ context.Context, batchID uuid.UUID) ([]*ledger_models.PayoutDetail, error) {
	var out []*ledger_models.PayoutDetail
	for _, d := range t.s.details {
		if d.BatchID == batchID {
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].ProviderID.String() < out[j].ProviderID.String()
	})
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (t *tx) BatchExportRows(ctx context.Context, batchID uuid.UUID) ([]*ledger_models.BatchExportRow, error) {
	details, err := t.ListDetails(ctx, batchID)
	if err != nil {
		return nil, err
	}
	out := make([]*ledger_models.BatchExportRow, 0, len(details))
	for _, d := range details {
		row := &ledger_models.BatchExportRow{
			ProviderID:    d.ProviderID,
			Amount:        d.Amount,
			EarningsCount: d.EarningsCount,
			Status:        d.Status,
		}
		if u, ok := t.s.users[d.ProviderID]; ok {
			row.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
			row.Email = u.Email
		}
		if d.BankAccountID != nil {
			if a, ok := t.s.bankAccounts[*d.BankAccountID]; ok {
				row.AccountHolderName = a.AccountHolderName
				row.AccountNumber = deref(a.AccountNumber)
				row.IFSC = deref(a.IFSC)
				row.BankName = deref(a.BankName)
				row.UPIID = deref(a.UPIID)
			}
		}
		out = append(out, row)
	}
	return out, nil
}
