// Package ledger_service holds the wallet ledger workflows: postings, withdrawals,
// settlements, payout batches and the customer wallet. Every public operation runs in
// exactly one repository transaction unless documented otherwise.
package ledger_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

// posting describes one ledger line before it is applied to a locked wallet.
type posting struct {
	Type        ledger_models.TransactionType
	Category    ledger_models.TransactionCategory
	Amount      decimal.Decimal
	Description string
	BookingID   *uuid.UUID
	ReferenceID *string
}

// post applies p to the locked wallet w, persists the wallet and appends the transaction.
// Credits grow TotalCredited, debits grow TotalDebited; settlement totals are kept by the caller.
// Payout reversals and failed source refunds undo the TotalDebited of the debit they return.
func post(ctx context.Context, tx repository.WalletTx, w *ledger_models.Wallet, p posting) (*ledger_models.Transaction, error) {
	if !w.IsActive && !p.Category.IsReversal() {
		return nil, ledger_models.ErrWalletInactive
	}
	before := w.CurrentBalance
	switch p.Type {
	case ledger_models.TxCredit:
		w.CurrentBalance = before.Add(p.Amount)
		switch p.Category {
		case ledger_models.CategorySettlementReversal:
		case ledger_models.CategoryPayoutReversal, ledger_models.CategoryTopupRefundFailed:
			w.TotalDebited = w.TotalDebited.Sub(p.Amount)
		case ledger_models.CategoryRefund:
			w.TotalCredited = w.TotalCredited.Add(p.Amount)
			w.TotalRefunded = w.TotalRefunded.Add(p.Amount)
		default:
			w.TotalCredited = w.TotalCredited.Add(p.Amount)
		}
	case ledger_models.TxDebit, ledger_models.TxSettlement:
		if p.Amount.GreaterThan(before) {
			return nil, fmt.Errorf("%w: balance %s, requested %s", ledger_models.ErrInsufficientBalance,
				before.StringFixed(2), p.Amount.StringFixed(2))
		}
		w.CurrentBalance = before.Sub(p.Amount)
		if p.Type == ledger_models.TxDebit {
			w.TotalDebited = w.TotalDebited.Add(p.Amount)
		}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", p.Type)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	t := &ledger_models.Transaction{
		ID:            id,
		WalletID:      w.ID,
		Type:          p.Type,
		Category:      p.Category,
		Amount:        p.Amount,
		BalanceBefore: before,
		BalanceAfter:  w.CurrentBalance,
		Description:   p.Description,
		BookingID:     p.BookingID,
		ReferenceID:   p.ReferenceID,
		Status:        ledger_models.TransactionStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.UpdateWallet(ctx, w); err != nil {
		return nil, err
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func audit(ctx context.Context, tx repository.Tx, adminID uuid.UUID, action, entityType string, entityID uuid.UUID, subjectID *uuid.UUID, amount *decimal.Decimal, notes string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate audit id: %w", err)
	}
	return tx.InsertAuditLog(ctx, &ledger_models.AuditLog{
		ID:         id,
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		SubjectID:  subjectID,
		Amount:     amount,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// WalletService is the balance store shared by worker and customer wallets.
type WalletService struct {
	store repository.Store
}

func NewWalletService(store repository.Store) *WalletService {
	return &WalletService{store: store}
}

func (s *WalletService) GetOrCreateWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	if !ownerType.Valid() || ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner type and id are required", ledger_models.ErrInvalidInput)
	}
	var w *ledger_models.Wallet
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.LockWallet(ctx, ownerType, ownerID)
		return err
	})
	return w, err
}

// GetWallet reads a wallet without creating it.
func (s *WalletService) GetWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID) (*ledger_models.Wallet, error) {
	var w *ledger_models.Wallet
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.GetWallet(ctx, ownerType, ownerID)
		return err
	})
	return w, err
}

func (s *WalletService) Credit(ctx context.Context, in ledger_models.CreditInput) (*ledger_models.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *ledger_models.Transaction
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, in.OwnerType, in.OwnerID)
		if err != nil {
			return err
		}
		out, err = post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    in.Category,
			Amount:      in.Amount,
			Description: in.Description,
			BookingID:   in.BookingID,
			ReferenceID: in.ReferenceID,
		})
		return err
	})
	if err != nil {
		logger.ErrorLogger.Errorf("credit %s wallet %s failed: %v", in.OwnerType, in.OwnerID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Credited %s to %s wallet %s (%s)", in.Amount.StringFixed(2), in.OwnerType, in.OwnerID, in.Category)
	return out, nil
}

func (s *WalletService) Debit(ctx context.Context, in ledger_models.DebitInput) (*ledger_models.DebitResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *ledger_models.DebitResult
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, in.OwnerType, in.OwnerID)
		if err != nil {
			return err
		}
		t, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxDebit,
			Category:    in.Category,
			Amount:      in.Amount,
			Description: in.Description,
			BookingID:   in.BookingID,
			ReferenceID: in.ReferenceID,
		})
		if err != nil {
			return err
		}
		out = &ledger_models.DebitResult{NewBalance: t.BalanceAfter, TransactionID: t.ID}
		return nil
	})
	if err != nil {
		logger.WarnLogger.Warnf("debit %s wallet %s failed: %v", in.OwnerType, in.OwnerID, err)
		return nil, err
	}
	return out, nil
}

// RecordEarning stores a worker earning and credits the worker wallet with it.
func (s *WalletService) RecordEarning(ctx context.Context, workerID uuid.UUID, amount decimal.Decimal, bookingID *uuid.UUID, description string) (*ledger_models.WorkerEarning, error) {
	if workerID == uuid.Nil {
		return nil, fmt.Errorf("%w: worker id is required", ledger_models.ErrInvalidInput)
	}
	if err := ledger_models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate earning id: %w", err)
	}
	earning := &ledger_models.WorkerEarning{
		ID:           id,
		WorkerID:     workerID,
		BookingID:    bookingID,
		Amount:       amount,
		PayoutStatus: ledger_models.EarningPending,
		EarnedAt:     time.Now().UTC(),
	}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, workerID)
		if err != nil {
			return err
		}
		if err := tx.InsertEarning(ctx, earning); err != nil {
			return err
		}
		ref := earning.ID.String()
		_, err = post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategoryEarning,
			Amount:      amount,
			Description: description,
			BookingID:   bookingID,
			ReferenceID: &ref,
		})
		return err
	})
	if err != nil {
		logger.ErrorLogger.Errorf("record earning for worker %s failed: %v", workerID, err)
		return nil, err
	}
	return earning, nil
}

// takeEarnings returns the oldest earnings whose running total fits within budget, and that
// total. It stops at the first earning that does not fit so earnings are paid in order.
func takeEarnings(earnings []*ledger_models.WorkerEarning, budget decimal.Decimal) ([]*ledger_models.WorkerEarning, decimal.Decimal) {
	sum := decimal.Zero
	for i, e := range earnings {
		next := sum.Add(e.Amount)
		if next.GreaterThan(budget) {
			return earnings[:i], sum
		}
		sum = next
	}
	return earnings, sum
}

// consumeEarnings marks the worker's oldest pending earnings covered by amount as settled
// by ref, so no payout batch can claim money that already left the wallet.
// The caller holds the worker's wallet lock.
func consumeEarnings(ctx context.Context, tx repository.EarningTx, workerID uuid.UUID, amount decimal.Decimal, ref uuid.UUID, at time.Time) error {
	pending, err := tx.LockPendingEarnings(ctx, []uuid.UUID{workerID})
	if err != nil {
		return err
	}
	taken, _ := takeEarnings(pending, amount)
	if len(taken) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(taken))
	for i, e := range taken {
		ids[i] = e.ID
	}
	return tx.ConsumeEarnings(ctx, ids, ref, at)
}

// ListTransactions pages a wallet's history, newest first. A missing wallet yields an empty page.
func (s *WalletService) ListTransactions(ctx context.Context, ownerType ledger_models.OwnerType, ownerID uuid.UUID, limit, offset int) ([]*ledger_models.Transaction, error) {
	var out []*ledger_models.Transaction
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.GetWallet(ctx, ownerType, ownerID)
		if err != nil {
			return err
		}
		out, err = tx.ListTransactions(ctx, w.ID, limit, offset)
		return err
	})
	if errors.Is(err, ledger_models.ErrNotFound) {
		return []*ledger_models.Transaction{}, nil
	}
	return out, err
}

// DeactivateWallet freezes a wallet so that no further postings are accepted.
func (s *WalletService) DeactivateWallet(ctx context.Context, ownerType ledger_models.OwnerType, ownerID, adminID uuid.UUID, notes string) (*ledger_models.Wallet, error) {
	var w *ledger_models.Wallet
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.LockWallet(ctx, ownerType, ownerID)
		if err != nil {
			return err
		}
		if !w.IsActive {
			return ledger_models.ErrWalletInactive
		}
		w.IsActive = false
		if err := tx.UpdateWallet(ctx, w); err != nil {
			return err
		}
		return audit(ctx, tx, adminID, "wallet_deactivated", "wallet", w.ID, &ownerID, nil, notes)
	})
	if err != nil {
		return nil, err
	}
	logger.WarnLogger.Warnf("Wallet %s (%s %s) deactivated by admin %s", w.ID, ownerType, ownerID, adminID)
	return w, nil
}
