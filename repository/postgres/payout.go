package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
)

const batchColumns = `id, batch_reference, total_amount, total_providers, status, created_by, notes,
	processed_at, completed_at, created_at, updated_at`

const detailColumns = `id, batch_id, provider_id, amount, earnings_count, period_start, period_end,
	bank_account_id, status, transfer_reference, failure_reason, paid_at, created_at, updated_at`

func scanBatch(row pgx.Row) (*ledger_models.PayoutBatch, error) {
	b := &ledger_models.PayoutBatch{}
	err := row.Scan(&b.ID, &b.BatchReference, &b.TotalAmount, &b.TotalProviders, &b.Status, &b.CreatedBy,
		&b.Notes, &b.ProcessedAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanDetail(row pgx.Row) (*ledger_models.PayoutDetail, error) {
	d := &ledger_models.PayoutDetail{}
	err := row.Scan(&d.ID, &d.BatchID, &d.ProviderID, &d.Amount, &d.EarningsCount, &d.PeriodStart,
		&d.PeriodEnd, &d.BankAccountID, &d.Status, &d.TransferReference, &d.FailureReason, &d.PaidAt,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func collectBatches(rows pgx.Rows) ([]*ledger_models.PayoutBatch, error) {
	defer rows.Close()
	var out []*ledger_models.PayoutBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (t *tx) InsertBatch(ctx context.Context, b *ledger_models.PayoutBatch) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payout_batches (
			id, batch_reference, total_amount, total_providers, status, created_by, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.BatchReference, b.TotalAmount, b.TotalProviders, b.Status, b.CreatedBy, b.Notes,
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payout batch: %w", err)
	}
	return nil
}

func (t *tx) GetBatch(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error) {
	b, err := scanBatch(t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM payout_batches WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "payout batch")
	}
	return b, nil
}

func (t *tx) LockBatch(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error) {
	b, err := scanBatch(t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM payout_batches WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "payout batch")
	}
	return b, nil
}

func (t *tx) UpdateBatch(ctx context.Context, b *ledger_models.PayoutBatch) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE payout_batches
		 SET status = $2, processed_at = $3, completed_at = $4, updated_at = $5
		 WHERE id = $1`,
		b.ID, b.Status, b.ProcessedAt, b.CompletedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payout batch %s: %w", b.ID, err)
	}
	return nil
}

func (t *tx) ListBatches(ctx context.Context, status ledger_models.BatchStatus, limit, offset int) ([]*ledger_models.PayoutBatch, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+batchColumns+` FROM payout_batches
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(status), limitOrDefault(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list payout batches: %w", err)
	}
	return collectBatches(rows)
}

func (t *tx) ListProcessingBatchesBefore(ctx context.Context, before time.Time) ([]*ledger_models.PayoutBatch, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+batchColumns+` FROM payout_batches
		 WHERE status = 'processing' AND processed_at < $1
		 ORDER BY processed_at`,
		before)
	if err != nil {
		return nil, fmt.Errorf("list stuck payout batches: %w", err)
	}
	return collectBatches(rows)
}

func (t *tx) InsertDetail(ctx context.Context, d *ledger_models.PayoutDetail) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payout_details (
			id, batch_id, provider_id, amount, earnings_count, period_start, period_end,
			bank_account_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.BatchID, d.ProviderID, d.Amount, d.EarningsCount, d.PeriodStart, d.PeriodEnd,
		d.BankAccountID, d.Status, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payout detail: %w", err)
	}
	return nil
}

func (t *tx) LockDetail(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutDetail, error) {
	d, err := scanDetail(t.tx.QueryRow(ctx, `SELECT `+detailColumns+` FROM payout_details WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "payout detail")
	}
	return d, nil
}

func (t *tx) UpdateDetail(ctx context.Context, d *ledger_models.PayoutDetail) error {
	d.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE payout_details
		 SET status = $2, transfer_reference = $3, failure_reason = $4, paid_at = $5, updated_at = $6
		 WHERE id = $1`,
		d.ID, d.Status, d.TransferReference, d.FailureReason, d.PaidAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payout detail %s: %w", d.ID, err)
	}
	return nil
}

func (t *tx) ListDetails(ctx context.Context, batchID uuid.UUID) ([]*ledger_models.PayoutDetail, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+detailColumns+` FROM payout_details WHERE batch_id = $1 ORDER BY amount DESC, provider_id`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("list payout details: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.PayoutDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *tx) BatchExportRows(ctx context.Context, batchID uuid.UUID) ([]*ledger_models.BatchExportRow, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT d.provider_id,
		        TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')),
		        COALESCE(u.email, ''),
		        d.amount, d.earnings_count, d.status,
		        COALESCE(b.account_holder_name, ''), COALESCE(b.account_number, ''),
		        COALESCE(b.ifsc, ''), COALESCE(b.bank_name, ''), COALESCE(b.upi_id, '')
		 FROM payout_details d
		 LEFT JOIN users u ON u.id = d.provider_id
		 LEFT JOIN bank_accounts b ON b.id = d.bank_account_id
		 WHERE d.batch_id = $1
		 ORDER BY d.amount DESC, d.provider_id`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch export rows: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.BatchExportRow
	for rows.Next() {
		r := &ledger_models.BatchExportRow{}
		if err := rows.Scan(&r.ProviderID, &r.Name, &r.Email, &r.Amount, &r.EarningsCount, &r.Status,
			&r.AccountHolderName, &r.AccountNumber, &r.IFSC, &r.BankName, &r.UPIID); err != nil {
			return nil, fmt.Errorf("scan batch export row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
