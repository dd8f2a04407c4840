package ledger_service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
)

// WithdrawalService runs the worker cash-out workflow: request, admin decision, payment.
type WithdrawalService struct {
	store    repository.Store
	notifier Notifier
}

func NewWithdrawalService(store repository.Store, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{store: store, notifier: orNop(notifier)}
}

// CreateWithdrawalRequest records a pending request priced with the withdrawal fee in force.
// The balance is only reserved against other pending requests; nothing is debited yet.
func (s *WithdrawalService) CreateWithdrawalRequest(ctx context.Context, in ledger_models.CreateWithdrawalInput) (*ledger_models.WithdrawalRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate withdrawal id: %w", err)
	}

	var req *ledger_models.WithdrawalRequest
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, in.WorkerID)
		if err != nil {
			return err
		}
		if !w.IsActive {
			return ledger_models.ErrWalletInactive
		}
		reserved, err := tx.PendingWithdrawalTotal(ctx, in.WorkerID)
		if err != nil {
			return err
		}
		available := w.CurrentBalance.Sub(reserved)
		if in.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: available %s, requested %s", ledger_models.ErrInsufficientBalance,
				available.StringFixed(2), in.Amount.StringFixed(2))
		}

		now := time.Now().UTC()
		fee, err := ResolveFeeTx(ctx, tx, ledger_models.ChargeWithdrawalFee, in.Amount, now)
		if err != nil {
			return err
		}
		req = &ledger_models.WithdrawalRequest{
			ID:                id,
			WorkerID:          in.WorkerID,
			WalletID:          w.ID,
			Amount:            in.Amount,
			WithdrawalCharges: fee.Fee,
			NetAmount:         fee.NetAmount,
			DestinationID:     strings.TrimSpace(in.DestinationID),
			Status:            ledger_models.WithdrawalPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.InsertWithdrawal(ctx, req)
	})
	if err != nil {
		logger.WarnLogger.Warnf("withdrawal request for worker %s rejected: %v", in.WorkerID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Withdrawal %s created for worker %s: amount=%s fee=%s",
		req.ID, req.WorkerID, req.Amount.StringFixed(2), req.WithdrawalCharges.StringFixed(2))
	return req, nil
}

// decide locks a pending request and hands it to fn for the transition.
func (s *WithdrawalService) decide(ctx context.Context, requestID uuid.UUID, from ledger_models.WithdrawalStatus, fn func(tx repository.Tx, req *ledger_models.WithdrawalRequest, now time.Time) error) (*ledger_models.WithdrawalRequest, error) {
	var req *ledger_models.WithdrawalRequest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = tx.LockWithdrawal(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != from {
			return fmt.Errorf("%w: withdrawal %s is %s", ledger_models.ErrInvalidState, req.ID, req.Status)
		}
		if err := fn(tx, req, time.Now().UTC()); err != nil {
			return err
		}
		return tx.UpdateWithdrawal(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.WithdrawalDecided(ctx, req); err != nil {
		logger.WarnLogger.Warnf("withdrawal %s notification failed: %v", req.ID, err)
	}
	return req, nil
}

// Approve debits the gross amount and moves the request to approved. An insufficient
// balance leaves the request pending.
func (s *WithdrawalService) Approve(ctx context.Context, requestID, adminID uuid.UUID, notes string) (*ledger_models.WithdrawalRequest, error) {
	req, err := s.decide(ctx, requestID, ledger_models.WithdrawalPending, func(tx repository.Tx, req *ledger_models.WithdrawalRequest, now time.Time) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, req.WorkerID)
		if err != nil {
			return err
		}
		ref := req.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxDebit,
			Category:    ledger_models.CategoryWithdrawal,
			Amount:      req.Amount,
			Description: fmt.Sprintf("Withdrawal to %s", req.DestinationID),
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := consumeEarnings(ctx, tx, req.WorkerID, req.Amount, req.ID, now); err != nil {
			return err
		}
		req.Status = ledger_models.WithdrawalApproved
		req.AdminNotes = strPtr(notes)
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		return audit(ctx, tx, adminID, "withdrawal_approved", "withdrawal_request", req.ID, &req.WorkerID, &req.Amount, notes)
	})
	if err != nil {
		logger.WarnLogger.Warnf("approve withdrawal %s failed: %v", requestID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Withdrawal %s approved by %s", req.ID, adminID)
	return req, nil
}

func (s *WithdrawalService) Reject(ctx context.Context, requestID, adminID uuid.UUID, notes, reason string) (*ledger_models.WithdrawalRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ledger_models.ErrInvalidInput)
	}
	req, err := s.decide(ctx, requestID, ledger_models.WithdrawalPending, func(tx repository.Tx, req *ledger_models.WithdrawalRequest, now time.Time) error {
		req.Status = ledger_models.WithdrawalRejected
		req.AdminNotes = strPtr(notes)
		req.FailureReason = &reason
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		return audit(ctx, tx, adminID, "withdrawal_rejected", "withdrawal_request", req.ID, &req.WorkerID, &req.Amount, reason)
	})
	if err != nil {
		logger.WarnLogger.Warnf("reject withdrawal %s failed: %v", requestID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Withdrawal %s rejected by %s", req.ID, adminID)
	return req, nil
}

// MarkPaid records the external payment reference of an approved withdrawal.
func (s *WithdrawalService) MarkPaid(ctx context.Context, requestID, adminID uuid.UUID, paymentReference string) (*ledger_models.WithdrawalRequest, error) {
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ledger_models.ErrInvalidInput)
	}
	req, err := s.decide(ctx, requestID, ledger_models.WithdrawalApproved, func(tx repository.Tx, req *ledger_models.WithdrawalRequest, now time.Time) error {
		req.Status = ledger_models.WithdrawalPaid
		req.PaymentReference = &paymentReference
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		return audit(ctx, tx, adminID, "withdrawal_paid", "withdrawal_request", req.ID, &req.WorkerID, &req.NetAmount, paymentReference)
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Withdrawal %s paid, reference %s", req.ID, paymentReference)
	return req, nil
}

func (s *WithdrawalService) ListByWorker(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]*ledger_models.WithdrawalRequest, error) {
	return s.list(ctx, repository.WithdrawalFilter{WorkerID: &workerID, Limit: limit, Offset: offset})
}

func (s *WithdrawalService) ListByStatus(ctx context.Context, status ledger_models.WithdrawalStatus, limit, offset int) ([]*ledger_models.WithdrawalRequest, error) {
	return s.list(ctx, repository.WithdrawalFilter{Status: status, Limit: limit, Offset: offset})
}

func (s *WithdrawalService) list(ctx context.Context, f repository.WithdrawalFilter) ([]*ledger_models.WithdrawalRequest, error) {
	var out []*ledger_models.WithdrawalRequest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListWithdrawals(ctx, f)
		return err
	})
	if out == nil && err == nil {
		out = []*ledger_models.WithdrawalRequest{}
	}
	return out, err
}
