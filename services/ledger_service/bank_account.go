package ledger_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
)

// BankAccountService manages payout destinations. Only verified accounts are
// used by settlements and payout batches.
type BankAccountService struct {
	store repository.Store
}

func NewBankAccountService(store repository.Store) *BankAccountService {
	return &BankAccountService{store: store}
}

// Add stores a new unverified destination. The user's first account becomes primary.
func (s *BankAccountService) Add(ctx context.Context, in ledger_models.BankAccountInput) (*ledger_models.BankAccount, error) {
	in.Normalise()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bank account id: %w", err)
	}

	now := time.Now().UTC()
	a := &ledger_models.BankAccount{
		ID:                id,
		UserID:            in.UserID,
		AccountHolderName: in.AccountHolderName,
		AccountNumber:     strPtr(in.AccountNumber),
		IFSC:              strPtr(in.IFSC),
		BankName:          strPtr(in.BankName),
		UPIID:             strPtr(in.UPIID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		existing, err := tx.ListBankAccounts(ctx, in.UserID)
		if err != nil {
			return err
		}
		if err := tx.InsertBankAccount(ctx, a); err != nil {
			return err
		}
		if in.IsPrimary || len(existing) == 0 {
			a.IsPrimary = true
			return tx.SetPrimaryBankAccount(ctx, in.UserID, a.ID)
		}
		return nil
	})
	if err != nil {
		logger.ErrorLogger.Errorf("failed to add bank account for %s: %v", in.UserID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Bank account %s added for user %s", a.ID, a.UserID)
	return a, nil
}

func (s *BankAccountService) List(ctx context.Context, userID uuid.UUID) ([]*ledger_models.BankAccount, error) {
	out := []*ledger_models.BankAccount{}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListBankAccounts(ctx, userID)
		out = append(out, list...)
		return err
	})
	return out, err
}

func (s *BankAccountService) Get(ctx context.Context, userID, id uuid.UUID) (*ledger_models.BankAccount, error) {
	var a *ledger_models.BankAccount
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.GetBankAccount(ctx, userID, id)
		return err
	})
	return a, err
}

func (s *BankAccountService) SetPrimary(ctx context.Context, userID, id uuid.UUID) (*ledger_models.BankAccount, error) {
	var a *ledger_models.BankAccount
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.SetPrimaryBankAccount(ctx, userID, id); err != nil {
			return err
		}
		var err error
		a, err = tx.GetBankAccount(ctx, userID, id)
		return err
	})
	return a, err
}

// Delete removes a destination. Deleting the primary account promotes the next one.
func (s *BankAccountService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		a, err := tx.GetBankAccount(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteBankAccount(ctx, userID, id); err != nil {
			return err
		}
		if !a.IsPrimary {
			return nil
		}
		rest, err := tx.ListBankAccounts(ctx, userID)
		if err != nil || len(rest) == 0 {
			return err
		}
		return tx.SetPrimaryBankAccount(ctx, userID, rest[0].ID)
	})
}

// Verify records an administrator's verification decision on a destination.
func (s *BankAccountService) Verify(ctx context.Context, adminID, userID, id uuid.UUID, verified bool) (*ledger_models.BankAccount, error) {
	var a *ledger_models.BankAccount
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if a, err = tx.GetBankAccount(ctx, userID, id); err != nil {
			return err
		}
		if err := tx.SetBankAccountVerified(ctx, id, verified); err != nil {
			return err
		}
		a.IsVerified = verified
		action := "bank_account_verified"
		if !verified {
			action = "bank_account_unverified"
		}
		return audit(ctx, tx, adminID, action, "bank_account", id, &userID, nil, "")
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Bank account %s verification set to %t by %s", id, verified, adminID)
	return a, nil
}
