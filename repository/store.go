// Package repository defines the transactional storage contract used by the ledger.
//
// Every ledger operation runs inside Store.WithTx. Lock* methods take an exclusive
// row lock that is held until the transaction ends, so two transactions that lock
// the same wallet are serialised while transactions on different wallets are not.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/shopspring/decimal"
)

type Store interface {
	// WithTx runs fn in a single transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type WithdrawalFilter struct {
	WorkerID *uuid.UUID
	Status   ledger_models.WithdrawalStatus
	Limit    int
	Offset   int
}

type Tx interface {
	WalletTx
	EarningTx
	ChargeTx
	WithdrawalTx
	SettlementTx
	PayoutTx
	TopupTx
	BankAccountTx

	InsertAuditLog(ctx context.Context, entry *ledger_models.AuditLog) error
}

type WalletTx interface {
	// LockWallet returns the owner's wallet, creating a zero-balance one if missing,
	// and locks it for the rest of the transaction.
	LockWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error)
	GetWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error)
	UpdateWallet(ctx context.Context, w *ledger_models.Wallet) error
	InsertTransaction(ctx context.Context, t *ledger_models.Transaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*ledger_models.Transaction, error)
	// CountCreditsSinceSettlement counts credit lines after the wallet's latest settlement line.
	CountCreditsSinceSettlement(ctx context.Context, walletID uuid.UUID) (int, error)
	ListWalletsWithBalance(ctx context.Context, ownerType ledger_models.OwnerType) ([]*ledger_models.Wallet, error)
}

type EarningTx interface {
	InsertEarning(ctx context.Context, e *ledger_models.WorkerEarning) error
	// LockPendingEarnings locks every pending earning of the given providers, or of
	// all providers when providerIDs is empty.
	LockPendingEarnings(ctx context.Context, providerIDs []uuid.UUID) ([]*ledger_models.WorkerEarning, error)
	// PendingEarners returns, in id order, the providers among providerIDs (all when empty)
	// that have pending earnings. Nothing is locked.
	PendingEarners(ctx context.Context, providerIDs []uuid.UUID) ([]uuid.UUID, error)
	LinkEarnings(ctx context.Context, earningIDs []uuid.UUID, batchID, detailID uuid.UUID) error
	// ConsumeEarnings marks pending earnings settled by a settlement or withdrawal.
	ConsumeEarnings(ctx context.Context, earningIDs []uuid.UUID, consumedBy uuid.UUID, at time.Time) error
	// ReleaseEarnings returns the earnings consumed by consumedBy to pending.
	ReleaseEarnings(ctx context.Context, consumedBy uuid.UUID) (int64, error)
	// MarkEarningsPaid marks the earnings linked to detailID as paid and returns how many changed.
	MarkEarningsPaid(ctx context.Context, detailID uuid.UUID, paidAt time.Time) (int64, error)
	ListEarningsByDetail(ctx context.Context, detailID uuid.UUID) ([]*ledger_models.WorkerEarning, error)
}

type ChargeTx interface {
	ChargeConfigs(ctx context.Context, chargeType ledger_models.ChargeType) ([]*ledger_models.ChargeConfiguration, error)
	InsertChargeConfig(ctx context.Context, c *ledger_models.ChargeConfiguration) error
	WalletSettings(ctx context.Context, key string) ([]*ledger_models.WalletSetting, error)
}

type WithdrawalTx interface {
	InsertWithdrawal(ctx context.Context, w *ledger_models.WithdrawalRequest) error
	LockWithdrawal(ctx context.Context, id uuid.UUID) (*ledger_models.WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w *ledger_models.WithdrawalRequest) error
	ListWithdrawals(ctx context.Context, f WithdrawalFilter) ([]*ledger_models.WithdrawalRequest, error)
	// PendingWithdrawalTotal sums the amounts of the worker's pending requests.
	PendingWithdrawalTotal(ctx context.Context, workerID uuid.UUID) (decimal.Decimal, error)
}

type SettlementTx interface {
	InsertSettlement(ctx context.Context, s *ledger_models.DailySettlement) error
	LockSettlement(ctx context.Context, id uuid.UUID) (*ledger_models.DailySettlement, error)
	UpdateSettlement(ctx context.Context, s *ledger_models.DailySettlement) error
	ListSettlements(ctx context.Context, workerID *uuid.UUID, limit, offset int) ([]*ledger_models.DailySettlement, error)
}

type PayoutTx interface {
	InsertBatch(ctx context.Context, b *ledger_models.PayoutBatch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error)
	LockBatch(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutBatch, error)
	UpdateBatch(ctx context.Context, b *ledger_models.PayoutBatch) error
	ListBatches(ctx context.Context, status ledger_models.BatchStatus, limit, offset int) ([]*ledger_models.PayoutBatch, error)
	// ListProcessingBatchesBefore returns batches still processing that were processed before t.
	ListProcessingBatchesBefore(ctx context.Context, t time.Time) ([]*ledger_models.PayoutBatch, error)

	InsertDetail(ctx context.Context, d *ledger_models.PayoutDetail) error
	LockDetail(ctx context.Context, id uuid.UUID) (*ledger_models.PayoutDetail, error)
	UpdateDetail(ctx context.Context, d *ledger_models.PayoutDetail) error
	ListDetails(ctx context.Context, batchID uuid.UUID) ([]*ledger_models.PayoutDetail, error)
	BatchExportRows(ctx context.Context, batchID uuid.UUID) ([]*ledger_models.BatchExportRow, error)
}

type TopupTx interface {
	InsertTopup(ctx context.Context, t *ledger_models.TopupRequest) error
	LockTopup(ctx context.Context, id uuid.UUID) (*ledger_models.TopupRequest, error)
	LockTopupByOrder(ctx context.Context, gatewayOrderID string) (*ledger_models.TopupRequest, error)
	UpdateTopup(ctx context.Context, t *ledger_models.TopupRequest) error
	InsertRefund(ctx context.Context, r *ledger_models.WalletRefund) error
	RefundExists(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type BankAccountTx interface {
	InsertBankAccount(ctx context.Context, a *ledger_models.BankAccount) error
	GetBankAccount(ctx context.Context, userID, id uuid.UUID) (*ledger_models.BankAccount, error)
	ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]*ledger_models.BankAccount, error)
	// SetPrimaryBankAccount makes id the user's only primary account.
	SetPrimaryBankAccount(ctx context.Context, userID, id uuid.UUID) error
	SetBankAccountVerified(ctx context.Context, id uuid.UUID, verified bool) error
	DeleteBankAccount(ctx context.Context, userID, id uuid.UUID) error
	// PrimaryDestination returns the user's primary verified account or nil.
	PrimaryDestination(ctx context.Context, userID uuid.UUID) (*ledger_models.BankAccount, error)
}
