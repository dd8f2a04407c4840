package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
)

const settlementColumns = `id, worker_id, wallet_id, settlement_date, gross_amount, fee_amount, total_amount,
	transaction_count, destination_id, status, failure_reason, created_at, updated_at`

func scanSettlement(row pgx.Row) (*ledger_models.DailySettlement, error) {
	s := &ledger_models.DailySettlement{}
	err := row.Scan(&s.ID, &s.WorkerID, &s.WalletID, &s.SettlementDate, &s.GrossAmount, &s.FeeAmount,
		&s.TotalAmount, &s.TransactionCount, &s.DestinationID, &s.Status, &s.FailureReason,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (t *tx) InsertSettlement(ctx context.Context, s *ledger_models.DailySettlement) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO daily_settlements (
			id, worker_id, wallet_id, settlement_date, gross_amount, fee_amount, total_amount,
			transaction_count, destination_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.WorkerID, s.WalletID, s.SettlementDate, s.GrossAmount, s.FeeAmount, s.TotalAmount,
		s.TransactionCount, s.DestinationID, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert daily settlement: %w", err)
	}
	return nil
}

func (t *tx) LockSettlement(ctx context.Context, id uuid.UUID) (*ledger_models.DailySettlement, error) {
	s, err := scanSettlement(t.tx.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM daily_settlements WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "settlement")
	}
	return s, nil
}

func (t *tx) UpdateSettlement(ctx context.Context, s *ledger_models.DailySettlement) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE daily_settlements SET status = $2, failure_reason = $3, updated_at = $4 WHERE id = $1`,
		s.ID, s.Status, s.FailureReason, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update settlement %s: %w", s.ID, err)
	}
	return nil
}

func (t *tx) ListSettlements(ctx context.Context, workerID *uuid.UUID, limit, offset int) ([]*ledger_models.DailySettlement, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+settlementColumns+` FROM daily_settlements
		 WHERE ($1::uuid IS NULL OR worker_id = $1)
		 ORDER BY settlement_date DESC, created_at DESC
		 LIMIT $2 OFFSET $3`,
		workerID, limitOrDefault(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.DailySettlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
