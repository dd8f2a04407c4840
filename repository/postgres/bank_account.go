package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/ledger/models/ledger_models"
)

const bankAccountColumns = `id, user_id, account_holder_name, account_number, ifsc, bank_name, upi_id,
	is_primary, is_verified, created_at, updated_at`

func scanBankAccount(row pgx.Row) (*ledger_models.BankAccount, error) {
	a := &ledger_models.BankAccount{}
	err := row.Scan(&a.ID, &a.UserID, &a.AccountHolderName, &a.AccountNumber, &a.IFSC, &a.BankName,
		&a.UPIID, &a.IsPrimary, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (t *tx) InsertBankAccount(ctx context.Context, a *ledger_models.BankAccount) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO bank_accounts (
			id, user_id, account_holder_name, account_number, ifsc, bank_name, upi_id,
			is_primary, is_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.UserID, a.AccountHolderName, a.AccountNumber, a.IFSC, a.BankName, a.UPIID,
		a.IsPrimary, a.IsVerified, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

func (t *tx) GetBankAccount(ctx context.Context, userID, id uuid.UUID) (*ledger_models.BankAccount, error) {
	a, err := scanBankAccount(t.tx.QueryRow(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err, "bank account")
	}
	return a, nil
}

func (t *tx) ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]*ledger_models.BankAccount, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE user_id = $1
		 ORDER BY is_primary DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.BankAccount
	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *tx) SetPrimaryBankAccount(ctx context.Context, userID, id uuid.UUID) error {
	now := time.Now().UTC()
	if _, err := t.tx.Exec(ctx,
		`UPDATE bank_accounts SET is_primary = FALSE, updated_at = $2 WHERE user_id = $1 AND is_primary`,
		userID, now); err != nil {
		return fmt.Errorf("clear primary bank account: %w", err)
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE bank_accounts SET is_primary = TRUE, updated_at = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, now)
	if err != nil {
		return fmt.Errorf("set primary bank account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	return nil
}

func (t *tx) SetBankAccountVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE bank_accounts SET is_verified = $2, updated_at = $3 WHERE id = $1`,
		id, verified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update bank account verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	return nil
}

func (t *tx) DeleteBankAccount(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM bank_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bank account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank account %s: %w", id, ledger_models.ErrNotFound)
	}
	return nil
}

// PrimaryDestination returns the user's primary account, or nil when none is on file.
func (t *tx) PrimaryDestination(ctx context.Context, userID uuid.UUID) (*ledger_models.BankAccount, error) {
	a, err := scanBankAccount(t.tx.QueryRow(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts
		 WHERE user_id = $1
		 ORDER BY is_primary DESC, is_verified DESC, created_at
		 LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup primary bank account: %w", err)
	}
	return a, nil
}
