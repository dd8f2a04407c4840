package ledger_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
)

// SettlementService sweeps a worker's whole balance into a daily settlement.
type SettlementService struct {
	store repository.Store
}

func NewSettlementService(store repository.Store) *SettlementService {
	return &SettlementService{store: store}
}

func (s *SettlementService) ProcessDailySettlement(ctx context.Context, workerID uuid.UUID, destinationID string) (*ledger_models.DailySettlement, error) {
	return s.settle(ctx, workerID, destinationID, time.Now().UTC())
}

func (s *SettlementService) settle(ctx context.Context, workerID uuid.UUID, destinationID string, asOf time.Time) (*ledger_models.DailySettlement, error) {
	destinationID = strings.TrimSpace(destinationID)
	if workerID == uuid.Nil {
		return nil, fmt.Errorf("%w: worker id is required", ledger_models.ErrInvalidInput)
	}
	if destinationID == "" {
		return nil, fmt.Errorf("%w: destination is required", ledger_models.ErrInvalidInput)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate settlement id: %w", err)
	}

	var out *ledger_models.DailySettlement
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, workerID)
		if err != nil {
			return err
		}
		if !w.CurrentBalance.IsPositive() {
			return ledger_models.ErrNoBalance
		}
		gross := w.CurrentBalance

		count, err := tx.CountCreditsSinceSettlement(ctx, w.ID)
		if err != nil {
			return err
		}
		fee, err := ResolveFeeTx(ctx, tx, ledger_models.ChargeSettlementFee, gross, asOf)
		if err != nil {
			return err
		}

		w.TotalSettled = w.TotalSettled.Add(fee.NetAmount)
		ref := id.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxSettlement,
			Category:    ledger_models.CategorySettlement,
			Amount:      gross,
			Description: fmt.Sprintf("Daily settlement to %s", destinationID),
			ReferenceID: &ref,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := consumeEarnings(ctx, tx, workerID, gross, id, now); err != nil {
			return err
		}
		out = &ledger_models.DailySettlement{
			ID:               id,
			WorkerID:         workerID,
			WalletID:         w.ID,
			SettlementDate:   asOf.Truncate(24 * time.Hour),
			GrossAmount:      gross,
			FeeAmount:        fee.Fee,
			TotalAmount:      fee.NetAmount,
			TransactionCount: count,
			DestinationID:    destinationID,
			Status:           ledger_models.SettlementPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.InsertSettlement(ctx, out)
	})
	if err != nil {
		if !errors.Is(err, ledger_models.ErrNoBalance) {
			logger.ErrorLogger.Errorf("settlement for worker %s failed: %v", workerID, err)
		}
		return nil, err
	}
	logger.InfoLogger.Infof("Settlement %s for worker %s: gross=%s fee=%s net=%s",
		out.ID, workerID, out.GrossAmount.StringFixed(2), out.FeeAmount.StringFixed(2), out.TotalAmount.StringFixed(2))
	return out, nil
}

func (s *SettlementService) transition(ctx context.Context, id, adminID uuid.UUID, next ledger_models.SettlementStatus, notes string, fn func(tx repository.Tx, st *ledger_models.DailySettlement) error) (*ledger_models.DailySettlement, error) {
	var st *ledger_models.DailySettlement
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		st, err = tx.LockSettlement(ctx, id)
		if err != nil {
			return err
		}
		if !st.Status.CanMoveTo(next) {
			return fmt.Errorf("%w: settlement %s is %s", ledger_models.ErrInvalidState, st.ID, st.Status)
		}
		if fn != nil {
			if err := fn(tx, st); err != nil {
				return err
			}
		}
		st.Status = next
		if err := tx.UpdateSettlement(ctx, st); err != nil {
			return err
		}
		return audit(ctx, tx, adminID, "settlement_"+string(next), "daily_settlement", st.ID, &st.WorkerID, &st.TotalAmount, notes)
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Settlement %s moved to %s", st.ID, next)
	return st, nil
}

func (s *SettlementService) MarkProcessing(ctx context.Context, id, adminID uuid.UUID) (*ledger_models.DailySettlement, error) {
	return s.transition(ctx, id, adminID, ledger_models.SettlementProcessing, "", nil)
}

func (s *SettlementService) Complete(ctx context.Context, id, adminID uuid.UUID) (*ledger_models.DailySettlement, error) {
	return s.transition(ctx, id, adminID, ledger_models.SettlementCompleted, "", nil)
}

// Fail returns the gross amount to the worker wallet, backs the net out of TotalSettled and
// puts the earnings it swept back to pending.
func (s *SettlementService) Fail(ctx context.Context, id, adminID uuid.UUID, reason string) (*ledger_models.DailySettlement, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: failure reason is required", ledger_models.ErrInvalidInput)
	}
	return s.transition(ctx, id, adminID, ledger_models.SettlementFailed, reason, func(tx repository.Tx, st *ledger_models.DailySettlement) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, st.WorkerID)
		if err != nil {
			return err
		}
		w.TotalSettled = w.TotalSettled.Sub(st.TotalAmount)
		ref := st.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategorySettlementReversal,
			Amount:      st.GrossAmount,
			Description: "Settlement reversal: " + reason,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if _, err := tx.ReleaseEarnings(ctx, st.ID); err != nil {
			return err
		}
		st.FailureReason = &reason
		return nil
	})
}

// ListByWorker pages settlements newest first. A nil worker lists every worker.
func (s *SettlementService) ListByWorker(ctx context.Context, workerID *uuid.UUID, limit, offset int) ([]*ledger_models.DailySettlement, error) {
	out := []*ledger_models.DailySettlement{}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListSettlements(ctx, workerID, limit, offset)
		if err != nil {
			return err
		}
		out = append(out, list...)
		return nil
	})
	return out, err
}

// SettleAllResult summarises one sweep.
type SettleAllResult struct {
	Settled []*ledger_models.DailySettlement `json:"settled"`
	Skipped int                              `json:"skipped"`
	Failed  int                              `json:"failed"`
}

// SettleAll settles every worker with a positive balance and a verified primary destination.
// Each worker is settled in its own transaction; one failure does not stop the sweep.
func (s *SettlementService) SettleAll(ctx context.Context, asOf time.Time) (*SettleAllResult, error) {
	type candidate struct {
		workerID    uuid.UUID
		destination string
	}
	var candidates []candidate
	result := &SettleAllResult{Settled: []*ledger_models.DailySettlement{}}

	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		wallets, err := tx.ListWalletsWithBalance(ctx, ledger_models.OwnerWorker)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			acct, err := tx.PrimaryDestination(ctx, w.OwnerID)
			if err != nil {
				return err
			}
			dest := destinationOf(acct)
			if acct == nil || !acct.IsVerified || dest == "" {
				result.Skipped++
				continue
			}
			candidates = append(candidates, candidate{workerID: w.OwnerID, destination: dest})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		st, err := s.settle(ctx, c.workerID, c.destination, asOf)
		switch {
		case errors.Is(err, ledger_models.ErrNoBalance):
			result.Skipped++
		case err != nil:
			result.Failed++
		default:
			result.Settled = append(result.Settled, st)
		}
	}
	logger.InfoLogger.Infof("Settlement sweep done: settled=%d skipped=%d failed=%d",
		len(result.Settled), result.Skipped, result.Failed)
	return result, nil
}

func destinationOf(a *ledger_models.BankAccount) string {
	if a == nil {
		return ""
	}
	return a.Destination()
}
