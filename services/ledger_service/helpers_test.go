package ledger_service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/joy095/ledger/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func seedCharge(t *testing.T, store repository.Store, cfg ledger_models.ChargeConfiguration) {
	t.Helper()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.EffectiveFrom.IsZero() {
		cfg.EffectiveFrom = time.Now().Add(-24 * time.Hour)
	}
	cfg.IsActive = true
	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertChargeConfig(context.Background(), &cfg)
	})
	require.NoError(t, err)
}

func seedBankAccount(t *testing.T, store repository.Store, userID uuid.UUID, upi string, verified bool) *ledger_models.BankAccount {
	t.Helper()
	a := &ledger_models.BankAccount{
		ID:                uuid.New(),
		UserID:            userID,
		AccountHolderName: "Test Worker",
		UPIID:             &upi,
		IsPrimary:         true,
		IsVerified:        verified,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertBankAccount(context.Background(), a)
	})
	require.NoError(t, err)
	return a
}

func credit(t *testing.T, svc interface {
	Credit(context.Context, ledger_models.CreditInput) (*ledger_models.Transaction, error)
}, ownerType ledger_models.OwnerType, ownerID uuid.UUID, amount string) {
	t.Helper()
	_, err := svc.Credit(context.Background(), ledger_models.CreditInput{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Amount:    dec(amount),
		Category:  ledger_models.CategoryAdjustment,
	})
	require.NoError(t, err)
}

// requireConserved checks that the wallet balance equals the sum of its transaction deltas.
func requireConserved(t *testing.T, store *memory.Store, ownerType ledger_models.OwnerType, ownerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.GetWallet(ctx, ownerType, ownerID)
		if err != nil {
			return err
		}
		txs, err := tx.ListTransactions(ctx, w.ID, 500, 0)
		if err != nil {
			return err
		}
		sum := decimal.Zero
		for _, tr := range txs {
			sum = sum.Add(tr.Delta())
			require.True(t, tr.BalanceAfter.Equal(tr.BalanceBefore.Add(tr.Delta())), "transaction %s", tr.ID)
		}
		require.True(t, sum.Equal(w.CurrentBalance), "balance %s, sum of deltas %s", w.CurrentBalance, sum)
		require.False(t, w.CurrentBalance.IsNegative())
		return nil
	})
	require.NoError(t, err)
}

type fakeGateway struct {
	mu        sync.Mutex
	orderErr  error
	refundErr error
	orders    int
	refunds   []decimal.Decimal
}

var _ clients.PaymentGateway = (*fakeGateway)(nil)

func (g *fakeGateway) CreateOrder(_ context.Context, _ decimal.Decimal, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderErr != nil {
		return "", g.orderErr
	}
	g.orders++
	return "order_" + uuid.NewString()[:8], nil
}

func (g *fakeGateway) Refund(_ context.Context, _ string, amount decimal.Decimal, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, amount)
	return "rfnd_1", nil
}

func (g *fakeGateway) VerifyWebhookSignature([]byte, string) bool { return true }

type fakeTransfers struct {
	mu     sync.Mutex
	reject map[uuid.UUID]bool
	calls  []clients.TransferRequest
}

var _ clients.TransferInitiator = (*fakeTransfers)(nil)

func (f *fakeTransfers) InitiateTransfer(_ context.Context, req clients.TransferRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.reject[req.ProviderID] {
		return "", assertErr("beneficiary rejected")
	}
	return "cf_" + req.TransferID[:8], nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
