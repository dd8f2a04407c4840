package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

const withdrawalColumns = `id, worker_id, wallet_id, amount, withdrawal_charges, net_amount, destination_id,
	status, admin_notes, failure_reason, processed_by, processed_at, payment_reference, created_at, updated_at`

func scanWithdrawal(row pgx.Row) (*ledger_models.WithdrawalRequest, error) {
	w := &ledger_models.WithdrawalRequest{}
	err := row.Scan(&w.ID, &w.WorkerID, &w.WalletID, &w.Amount, &w.WithdrawalCharges, &w.NetAmount,
		&w.DestinationID, &w.Status, &w.AdminNotes, &w.FailureReason, &w.ProcessedBy, &w.ProcessedAt,
		&w.PaymentReference, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (t *tx) InsertWithdrawal(ctx context.Context, w *ledger_models.WithdrawalRequest) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO withdrawal_requests (
			id, worker_id, wallet_id, amount, withdrawal_charges, net_amount, destination_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		w.ID, w.WorkerID, w.WalletID, w.Amount, w.WithdrawalCharges, w.NetAmount, w.DestinationID,
		w.Status, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

func (t *tx) LockWithdrawal(ctx context.Context, id uuid.UUID) (*ledger_models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.tx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "withdrawal request")
	}
	return w, nil
}

func (t *tx) UpdateWithdrawal(ctx context.Context, w *ledger_models.WithdrawalRequest) error {
	w.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE withdrawal_requests
		 SET status = $2, admin_notes = $3, failure_reason = $4, processed_by = $5,
		     processed_at = $6, payment_reference = $7, updated_at = $8
		 WHERE id = $1`,
		w.ID, w.Status, w.AdminNotes, w.FailureReason, w.ProcessedBy, w.ProcessedAt,
		w.PaymentReference, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update withdrawal request %s: %w", w.ID, err)
	}
	return nil
}

func (t *tx) ListWithdrawals(ctx context.Context, f repository.WithdrawalFilter) ([]*ledger_models.WithdrawalRequest, error) {
	var (
		where []string
		args  []any
	)
	if f.WorkerID != nil {
		args = append(args, *f.WorkerID)
		where = append(where, fmt.Sprintf("worker_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limitOrDefault(f.Limit), f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *tx) PendingWithdrawalTotal(ctx context.Context, workerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE worker_id = $1 AND status = 'pending'`,
		workerID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum pending withdrawals: %w", err)
	}
	return total, nil
}
