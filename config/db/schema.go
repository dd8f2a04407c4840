package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/ledger/logger"
)

// schema is applied statement by statement at start-up. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		first_name TEXT,
		last_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id UUID PRIMARY KEY,
		owner_type TEXT NOT NULL CHECK (owner_type IN ('worker', 'customer')),
		owner_id UUID NOT NULL,
		current_balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (current_balance >= 0),
		total_credited NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_debited NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_settled NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_refunded NUMERIC(14,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_type, owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id UUID PRIMARY KEY,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		type TEXT NOT NULL CHECK (type IN ('credit', 'debit', 'settlement')),
		category TEXT NOT NULL,
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		balance_before NUMERIC(14,2) NOT NULL,
		balance_after NUMERIC(14,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		booking_id UUID,
		reference_id TEXT,
		status TEXT NOT NULL DEFAULT 'completed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet ON wallet_transactions (wallet_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS worker_earnings (
		id UUID PRIMARY KEY,
		worker_id UUID NOT NULL,
		booking_id UUID,
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		payout_status TEXT NOT NULL DEFAULT 'pending',
		payout_batch_id UUID,
		payout_detail_id UUID,
		payout_date TIMESTAMPTZ,
		consumed_by UUID,
		earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE worker_earnings ADD COLUMN IF NOT EXISTS consumed_by UUID`,
	`CREATE INDEX IF NOT EXISTS idx_worker_earnings_pending ON worker_earnings (worker_id) WHERE payout_status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_worker_earnings_detail ON worker_earnings (payout_detail_id)`,
	`CREATE INDEX IF NOT EXISTS idx_worker_earnings_consumed ON worker_earnings (consumed_by) WHERE consumed_by IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS charge_configurations (
		id UUID PRIMARY KEY,
		charge_type TEXT NOT NULL,
		charge_percentage NUMERIC(7,4) NOT NULL DEFAULT 0,
		fixed_charge NUMERIC(14,2) NOT NULL DEFAULT 0,
		minimum_charge NUMERIC(14,2),
		maximum_charge NUMERIC(14,2),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		effective_from TIMESTAMPTZ NOT NULL,
		effective_to TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_settings (
		id BIGSERIAL PRIMARY KEY,
		key TEXT NOT NULL,
		value NUMERIC(14,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		effective_from TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		effective_to TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id UUID PRIMARY KEY,
		worker_id UUID NOT NULL,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		withdrawal_charges NUMERIC(14,2) NOT NULL DEFAULT 0,
		net_amount NUMERIC(14,2) NOT NULL CHECK (net_amount > 0),
		destination_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT,
		failure_reason TEXT,
		processed_by UUID,
		processed_at TIMESTAMPTZ,
		payment_reference TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS daily_settlements (
		id UUID PRIMARY KEY,
		worker_id UUID NOT NULL,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		settlement_date DATE NOT NULL,
		gross_amount NUMERIC(14,2) NOT NULL,
		fee_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(14,2) NOT NULL,
		transaction_count INTEGER NOT NULL DEFAULT 0,
		destination_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		failure_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS payout_batches (
		id UUID PRIMARY KEY,
		batch_reference TEXT UNIQUE NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		total_providers INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'created',
		created_by UUID NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		processed_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS payout_details (
		id UUID PRIMARY KEY,
		batch_id UUID NOT NULL REFERENCES payout_batches(id),
		provider_id UUID NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		earnings_count INTEGER NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		bank_account_id UUID,
		status TEXT NOT NULL DEFAULT 'created',
		transfer_reference TEXT,
		failure_reason TEXT,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (batch_id, provider_id)
	)`,
	`CREATE TABLE IF NOT EXISTS topup_requests (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		method TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		gateway_order_id TEXT UNIQUE,
		gateway_payment_id TEXT,
		refunded_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_refunds (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		booking_id UUID UNIQUE NOT NULL,
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		reason TEXT NOT NULL DEFAULT '',
		transaction_id UUID NOT NULL REFERENCES wallet_transactions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bank_accounts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		account_holder_name TEXT NOT NULL,
		account_number TEXT,
		ifsc TEXT,
		bank_name TEXT,
		upi_id TEXT,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS admin_audit_logs (
		id UUID PRIMARY KEY,
		admin_id UUID NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		subject_id UUID,
		amount NUMERIC(14,2),
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
		id BIGSERIAL PRIMARY KEY,
		source TEXT NOT NULL,
		event_type TEXT NOT NULL,
		raw_payload TEXT NOT NULL,
		received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates any missing ledger tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.ErrorLogger.Errorf("schema statement %d failed: %v", i, err)
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	logger.InfoLogger.Info("Ledger schema ensured.")
	return nil
}
