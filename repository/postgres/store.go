// Package postgres implements repository.Store on PostgreSQL through pgx.
//
// Wallet, request and batch rows are locked with SELECT ... FOR UPDATE so that
// concurrent mutations of the same row serialise on the database while unrelated
// rows proceed in parallel.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		logger.ErrorLogger.Errorf("[TX_BEGIN_FAIL] %v", err)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(&tx{tx: pgTx}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("[TX_COMMIT_FAIL] %v", err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	tx pgx.Tx
}

var _ repository.Tx = (*tx)(nil)

// notFound converts pgx.ErrNoRows into the ledger's not-found kind.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ledger_models.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
