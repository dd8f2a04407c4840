package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
)

func (t *tx) InsertBankAccount(_ context.Context, a *ledger_models.BankAccount) error {
	t.s.bankAccounts[a.ID] = *a
	return nil
}

func (t *tx) GetBankAccount(_ context.Context, userID, id uuid.UUID) (*ledger_models.BankAccount, error) {
	a, ok := t.s.bankAccounts[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("bank account: %w", ledger_models.ErrNotFound)
	}
	return &a, nil
}

func (t *tx) userAccounts(userID uuid.UUID) []*ledger_models.BankAccount {
	var out []*ledger_models.BankAccount
	for _, a := range t.s.bankAccounts {
		if a.UserID == userID {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		if out[i].IsVerified != out[j].IsVerified {
			return out[i].IsVerified
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (t *tx) ListBankAccounts(_ context.Context, userID uuid.UUID) ([]*ledger_models.BankAccount, error) {
	return t.userAccounts(userID), nil
}

func (t *tx) SetPrimaryBankAccount(_ context.Context, userID, id uuid.UUID) error {
	target, ok := t.s.bankAccounts[id]
	if !ok || target.UserID != userID {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	now := time.Now().UTC()
	for aid, a := range t.s.bankAccounts {
		if a.UserID == userID && a.IsPrimary {
			a.IsPrimary = false
			a.UpdatedAt = now
			t.s.bankAccounts[aid] = a
		}
	}
	target = t.s.bankAccounts[id]
	target.IsPrimary = true
	target.UpdatedAt = now
	t.s.bankAccounts[id] = target
	return nil
}

func (t *tx) SetBankAccountVerified(_ context.Context, id uuid.UUID, verified bool) error {
	a, ok := t.s.bankAccounts[id]
	if !ok {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	a.IsVerified = verified
	a.UpdatedAt = time.Now().UTC()
	t.s.bankAccounts[id] = a
	return nil
}

func (t *tx) DeleteBankAccount(_ context.Context, userID, id uuid.UUID) error {
	a, ok := t.s.bankAccounts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	delete(t.s.bankAccounts, id)
	return nil
}

func (t *tx) PrimaryDestination(_ context.Context, userID uuid.UUID) (*ledger_models.BankAccount, error) {
	accounts := t.userAccounts(userID)
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}
