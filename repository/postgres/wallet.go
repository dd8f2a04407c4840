package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
)

const walletColumns = `id, owner_type, owner_id, current_balance, total_credited, total_debited,
	total_settled, total_refunded, is_active, created_at, updated_at`

func scanWallet(row pgx.Row) (*ledger_models.Wallet, error) {
	w := &ledger_models.Wallet{}
	err := row.Scan(&w.ID, &w.OwnerType, &w.OwnerID, &w.CurrentBalance, &w.TotalCredited,
		&w.TotalDebited, &w.TotalSettled, &w.TotalRefunded, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (t *tx) LockWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	fresh, err := ledger_models.NewWallet(ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet id: %w", err)
	}

	// A concurrent creator wins the unique constraint; both then lock the same row.
	_, err = t.tx.Exec(ctx,
		`INSERT INTO wallets (id, owner_type, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (owner_type, owner_id) DO NOTHING`,
		fresh.ID, ownerType, ownerID, fresh.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}

	w, err := scanWallet(t.tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_type = $1 AND owner_id = $2 FOR UPDATE`,
		ownerType, ownerID))
	if err != nil {
		return nil, notFound(err, "wallet")
	}
	return w, nil
}

func (t *tx) GetWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	w, err := scanWallet(t.tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_type = $1 AND owner_id = $2`,
		ownerType, ownerID))
	if err != nil {
		return nil, notFound(err, "wallet")
	}
	return w, nil
}

func (t *tx) UpdateWallet(ctx context.Context, w *ledger_models.Wallet) error {
	w.UpdatedAt = time.Now().UTC()
	tag, err := t.tx.Exec(ctx,
		`UPDATE wallets
		 SET current_balance = $2, total_credited = $3, total_debited = $4,
		     total_settled = $5, total_refunded = $6, is_active = $7, updated_at = $8
		 WHERE id = $1`,
		w.ID, w.CurrentBalance, w.TotalCredited, w.TotalDebited, w.TotalSettled,
		w.TotalRefunded, w.IsActive, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update wallet %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s: %w", w.ID, ledger_models.ErrNotFound)
	}
	return nil
}

func (t *tx) InsertTransaction(ctx context.Context, tr *ledger_models.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO wallet_transactions (
			id, wallet_id, type, category, amount, balance_before, balance_after,
			description, booking_id, reference_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tr.ID, tr.WalletID, tr.Type, tr.Category, tr.Amount, tr.BalanceBefore, tr.BalanceAfter,
		tr.Description, tr.BookingID, tr.ReferenceID, tr.Status, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

func (t *tx) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*ledger_models.Transaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, wallet_id, type, category, amount, balance_before, balance_after,
		        description, booking_id, reference_id, status, created_at
		 FROM wallet_transactions
		 WHERE wallet_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		walletID, limitOrDefault(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.Transaction
	for rows.Next() {
		tr := &ledger_models.Transaction{}
		if err := rows.Scan(&tr.ID, &tr.WalletID, &tr.Type, &tr.Category, &tr.Amount,
			&tr.BalanceBefore, &tr.BalanceAfter, &tr.Description, &tr.BookingID,
			&tr.ReferenceID, &tr.Status, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (t *tx) CountCreditsSinceSettlement(ctx context.Context, walletID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_transactions
		 WHERE wallet_id = $1 AND type = 'credit'
		   AND created_at > COALESCE(
		       (SELECT MAX(created_at) FROM wallet_transactions WHERE wallet_id = $1 AND type = 'settlement'),
		       '-infinity'::timestamptz)`,
		walletID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unsettled credits: %w", err)
	}
	return n, nil
}

func (t *tx) ListWalletsWithBalance(ctx context.Context, ownerType ledger_models.OwnerType) ([]*ledger_models.Wallet, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets
		 WHERE owner_type = $1 AND is_active AND current_balance > 0
		 ORDER BY owner_id`,
		ownerType)
	if err != nil {
		return nil, fmt.Errorf("list wallets with balance: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *tx) InsertEarning(ctx context.Context, e *ledger_models.WorkerEarning) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO worker_earnings (id, worker_id, booking_id, amount, payout_status, earned_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.WorkerID, e.BookingID, e.Amount, e.PayoutStatus, e.EarnedAt)
	if err != nil {
		return fmt.Errorf("insert worker earning: %w", err)
	}
	return nil
}

const earningColumns = `id, worker_id, booking_id, amount, payout_status, payout_batch_id,
	payout_detail_id, payout_date, consumed_by, earned_at`

func scanEarnings(rows pgx.Rows) ([]*ledger_models.WorkerEarning, error) {
	defer rows.Close()
	var out []*ledger_models.WorkerEarning
	for rows.Next() {
		e := &ledger_models.WorkerEarning{}
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.BookingID, &e.Amount, &e.PayoutStatus,
			&e.PayoutBatchID, &e.PayoutDetailID, &e.PayoutDate, &e.ConsumedBy, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan worker earning: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *tx) LockPendingEarnings(ctx context.Context, providerIDs []uuid.UUID) ([]*ledger_models.WorkerEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM worker_earnings WHERE payout_status = 'pending'`
	args := []any{}
	if len(providerIDs) > 0 {
		query += ` AND worker_id = ANY($1)`
		args = append(args, providerIDs)
	}
	query += ` ORDER BY worker_id, earned_at FOR UPDATE`

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock pending earnings: %w", err)
	}
	return scanEarnings(rows)
}

func (t *tx) PendingEarners(ctx context.Context, providerIDs []uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT worker_id FROM worker_earnings WHERE payout_status = 'pending'`
	args := []any{}
	if len(providerIDs) > 0 {
		query += ` AND worker_id = ANY($1)`
		args = append(args, providerIDs)
	}
	query += ` ORDER BY worker_id`

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending earners: %w", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending earner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *tx) ConsumeEarnings(ctx context.Context, earningIDs []uuid.UUID, consumedBy uuid.UUID, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE worker_earnings
		 SET payout_status = 'settled', consumed_by = $2, payout_date = $3
		 WHERE id = ANY($1) AND payout_status = 'pending'`,
		earningIDs, consumedBy, at)
	if err != nil {
		return fmt.Errorf("consume earnings for %s: %w", consumedBy, err)
	}
	if tag.RowsAffected() != int64(len(earningIDs)) {
		return fmt.Errorf("consume earnings for %s: %w: %d of %d earnings still pending",
			consumedBy, ledger_models.ErrInvalidState, tag.RowsAffected(), len(earningIDs))
	}
	return nil
}

func (t *tx) ReleaseEarnings(ctx context.Context, consumedBy uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE worker_earnings
		 SET payout_status = 'pending', consumed_by = NULL, payout_date = NULL
		 WHERE consumed_by = $1 AND payout_status = 'settled'`,
		consumedBy)
	if err != nil {
		return 0, fmt.Errorf("release earnings of %s: %w", consumedBy, err)
	}
	return tag.RowsAffected(), nil
}

func (t *tx) LinkEarnings(ctx context.Context, earningIDs []uuid.UUID, batchID, detailID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE worker_earnings
		 SET payout_status = 'batched', payout_batch_id = $2, payout_detail_id = $3
		 WHERE id = ANY($1) AND payout_status = 'pending'`,
		earningIDs, batchID, detailID)
	if err != nil {
		return fmt.Errorf("link earnings to detail %s: %w", detailID, err)
	}
	if tag.RowsAffected() != int64(len(earningIDs)) {
		return fmt.Errorf("link earnings to detail %s: %w: %d of %d earnings still pending",
			detailID, ledger_models.ErrInvalidState, tag.RowsAffected(), len(earningIDs))
	}
	return nil
}

func (t *tx) MarkEarningsPaid(ctx context.Context, detailID uuid.UUID, paidAt time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE worker_earnings SET payout_status = 'paid', payout_date = $2
		 WHERE payout_detail_id = $1 AND payout_status = 'batched'`,
		detailID, paidAt)
	if err != nil {
		return 0, fmt.Errorf("mark earnings paid for detail %s: %w", detailID, err)
	}
	return tag.RowsAffected(), nil
}

func (t *tx) ListEarningsByDetail(ctx context.Context, detailID uuid.UUID) ([]*ledger_models.WorkerEarning, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+earningColumns+` FROM worker_earnings WHERE payout_detail_id = $1 ORDER BY earned_at`,
		detailID)
	if err != nil {
		return nil, fmt.Errorf("list earnings for detail %s: %w", detailID, err)
	}
	return scanEarnings(rows)
}

func (t *tx) InsertAuditLog(ctx context.Context, a *ledger_models.AuditLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO admin_audit_logs (id, admin_id, action, entity_type, entity_id, subject_id, amount, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.AdminID, a.Action, a.EntityType, a.EntityID, a.SubjectID, a.Amount, a.Notes, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
