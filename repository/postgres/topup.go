package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
)

const topupColumns = `id, customer_id, wallet_id, amount, method, status, gateway_order_id,
	gateway_payment_id, refunded_amount, completed_at, created_at, updated_at`

func scanTopup(row pgx.Row) (*ledger_models.TopupRequest, error) {
	r := &ledger_models.TopupRequest{}
	err := row.Scan(&r.ID, &r.CustomerID, &r.WalletID, &r.Amount, &r.Method, &r.Status, &r.GatewayOrderID,
		&r.GatewayPaymentID, &r.RefundedAmount, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (t *tx) InsertTopup(ctx context.Context, r *ledger_models.TopupRequest) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO topup_requests (
			id, customer_id, wallet_id, amount, method, status, gateway_order_id, refunded_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.CustomerID, r.WalletID, r.Amount, r.Method, r.Status, r.GatewayOrderID, r.RefundedAmount,
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert top-up request: %w", err)
	}
	return nil
}

func (t *tx) LockTopup(ctx context.Context, id uuid.UUID) (*ledger_models.TopupRequest, error) {
	r, err := scanTopup(t.tx.QueryRow(ctx, `SELECT `+topupColumns+` FROM topup_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "top-up request")
	}
	return r, nil
}

func (t *tx) LockTopupByOrder(ctx context.Context, gatewayOrderID string) (*ledger_models.TopupRequest, error) {
	r, err := scanTopup(t.tx.QueryRow(ctx,
		`SELECT `+topupColumns+` FROM topup_requests WHERE gateway_order_id = $1 FOR UPDATE`, gatewayOrderID))
	if err != nil {
		return nil, notFound(err, "top-up request")
	}
	return r, nil
}

func (t *tx) UpdateTopup(ctx context.Context, r *ledger_models.TopupRequest) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(ctx,
		`UPDATE topup_requests
		 SET status = $2, gateway_order_id = $3, gateway_payment_id = $4, refunded_amount = $5,
		     completed_at = $6, updated_at = $7
		 WHERE id = $1`,
		r.ID, r.Status, r.GatewayOrderID, r.GatewayPaymentID, r.RefundedAmount, r.CompletedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update top-up request %s: %w", r.ID, err)
	}
	return nil
}

func (t *tx) InsertRefund(ctx context.Context, r *ledger_models.WalletRefund) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO wallet_refunds (id, customer_id, wallet_id, booking_id, amount, reason, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.CustomerID, r.WalletID, r.BookingID, r.Amount, r.Reason, r.TransactionID, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger_models.ErrDuplicateRefund
		}
		return fmt.Errorf("insert wallet refund: %w", err)
	}
	return nil
}

func (t *tx) RefundExists(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wallet_refunds WHERE booking_id = $1)`, bookingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wallet refund: %w", err)
	}
	return exists, nil
}
