// Package memory is an in-process repository.Store used by tests and local runs
// without a database.
//
// Transactions are serialised on a single mutex. Each transaction works on the
// live maps and the previous state is restored when the callback fails, which
// gives the same all-or-nothing behaviour as a database rollback.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
}

type state struct {
	wallets      map[uuid.UUID]ledger_models.Wallet
	transactions []ledger_models.Transaction
	earnings     map[uuid.UUID]ledger_models.WorkerEarning
	charges      []ledger_models.ChargeConfiguration
	settings     []ledger_models.WalletSetting
	withdrawals  map[uuid.UUID]ledger_models.WithdrawalRequest
	settlements  map[uuid.UUID]ledger_models.DailySettlement
	batches      map[uuid.UUID]ledger_models.PayoutBatch
	details      map[uuid.UUID]ledger_models.PayoutDetail
	topups       map[uuid.UUID]ledger_models.TopupRequest
	refunds      map[uuid.UUID]ledger_models.WalletRefund
	bankAccounts map[uuid.UUID]ledger_models.BankAccount
	audit        []ledger_models.AuditLog
	users        map[uuid.UUID]User
}

func newState() *state {
	return &state{
		wallets:      map[uuid.UUID]ledger_models.Wallet{},
		earnings:     map[uuid.UUID]ledger_models.WorkerEarning{},
		withdrawals:  map[uuid.UUID]ledger_models.WithdrawalRequest{},
		settlements:  map[uuid.UUID]ledger_models.DailySettlement{},
		batches:      map[uuid.UUID]ledger_models.PayoutBatch{},
		details:      map[uuid.UUID]ledger_models.PayoutDetail{},
		topups:       map[uuid.UUID]ledger_models.TopupRequest{},
		refunds:      map[uuid.UUID]ledger_models.WalletRefund{},
		bankAccounts: map[uuid.UUID]ledger_models.BankAccount{},
		users:        map[uuid.UUID]User{},
	}
}

func (s *state) clone() *state {
	return &state{
		wallets:      maps.Clone(s.wallets),
		transactions: append([]ledger_models.Transaction(nil), s.transactions...),
		earnings:     maps.Clone(s.earnings),
		charges:      append([]ledger_models.ChargeConfiguration(nil), s.charges...),
		settings:     append([]ledger_models.WalletSetting(nil), s.settings...),
		withdrawals:  maps.Clone(s.withdrawals),
		settlements:  maps.Clone(s.settlements),
		batches:      maps.Clone(s.batches),
		details:      maps.Clone(s.details),
		topups:       maps.Clone(s.topups),
		refunds:      maps.Clone(s.refunds),
		bankAccounts: maps.Clone(s.bankAccounts),
		audit:        append([]ledger_models.AuditLog(nil), s.audit...),
		users:        maps.Clone(s.users),
	}
}

type Store struct {
	mu       sync.Mutex
	state    *state
	webhooks []WebhookEvent
}

func NewStore() *Store {
	return &Store{state: newState()}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&tx{s: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// AddUser registers a user row for export joins.
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

// PutSetting stores a wallet setting effective from the given time.
func (s *Store) PutSetting(key string, value decimal.Decimal, from time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.settings = append(s.state.settings, ledger_models.WalletSetting{
		Key: key, Value: value, IsActive: true, EffectiveFrom: from,
	})
}

// AuditLogs returns a copy of every audit entry in insertion order.
func (s *Store) AuditLogs() []ledger_models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger_models.AuditLog(nil), s.state.audit...)
}

// Earnings returns a copy of every worker earning.
func (s *Store) Earnings() []ledger_models.WorkerEarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger_models.WorkerEarning, 0, len(s.state.earnings))
	for _, e := range s.state.earnings {
		out = append(out, e)
	}
	return out
}

// EmailOf returns the email registered with AddUser.
func (s *Store) EmailOf(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[userID]
	if !ok || u.Email == "" {
		return "", fmt.Errorf("user %s: %w", userID, ledger_models.ErrNotFound)
	}
	return u.Email, nil
}

type WebhookEvent struct {
	Source    string
	EventType string
	Payload   string
}

func (s *Store) RecordWebhookEvent(_ context.Context, source, eventType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, WebhookEvent{Source: source, EventType: eventType, Payload: string(payload)})
	return nil
}

func (s *Store) WebhookEvents() []WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WebhookEvent(nil), s.webhooks...)
}

type tx struct {
	s *state
}

var _ repository.Tx = (*tx)(nil)

func (t *tx) InsertAuditLog(_ context.Context, a *ledger_models.AuditLog) error {
	t.s.audit = append(t.s.audit, *a)
	return nil
}

func clampPage(n, limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}
