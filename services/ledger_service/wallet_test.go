package ledger_service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository/memory"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletCreditAndDebit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewWalletService(store)
	worker := uuid.New()

	w, err := svc.GetOrCreateWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.IsZero())
	assert.True(t, w.IsActive)

	again, err := svc.GetOrCreateWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)

	tr, err := svc.Credit(ctx, ledger_models.CreditInput{
		OwnerType: ledger_models.OwnerWorker,
		OwnerID:   worker,
		Amount:    dec("150.25"),
		Category:  ledger_models.CategoryEarning,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.TxCredit, tr.Type)
	assert.True(t, tr.BalanceBefore.IsZero())
	assert.True(t, tr.BalanceAfter.Equal(dec("150.25")))

	res, err := svc.Debit(ctx, ledger_models.DebitInput{
		OwnerType: ledger_models.OwnerWorker,
		OwnerID:   worker,
		Amount:    dec("50.25"),
		Category:  ledger_models.CategoryAdjustment,
	})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("100")))

	w, err = svc.GetWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.TotalCredited.Equal(dec("150.25")))
	assert.True(t, w.TotalDebited.Equal(dec("50.25")))

	txs, err := svc.ListTransactions(ctx, ledger_models.OwnerWorker, worker, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, res.TransactionID, txs[0].ID, "newest first")

	requireConserved(t, store, ledger_models.OwnerWorker, worker)
}

func TestDebitRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewWalletService(store)
	customer := uuid.New()
	credit(t, svc, ledger_models.OwnerCustomer, customer, "40")

	_, err := svc.Debit(ctx, ledger_models.DebitInput{
		OwnerType: ledger_models.OwnerCustomer,
		OwnerID:   customer,
		Amount:    dec("40.01"),
		Category:  ledger_models.CategoryBookingPayment,
	})
	require.ErrorIs(t, err, ledger_models.ErrInsufficientBalance)
	assert.Equal(t, ledger_models.KindInsufficientBalance, ledger_models.Kind(err))

	w, err := svc.GetWallet(ctx, ledger_models.OwnerCustomer, customer)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("40")))
	assert.True(t, w.TotalDebited.IsZero())

	txs, err := svc.ListTransactions(ctx, ledger_models.OwnerCustomer, customer, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewWalletService(store)
	worker := uuid.New()
	credit(t, svc, ledger_models.OwnerWorker, worker, "100")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(ctx, ledger_models.DebitInput{
				OwnerType: ledger_models.OwnerWorker,
				OwnerID:   worker,
				Amount:    dec("60"),
				Category:  ledger_models.CategoryWithdrawal,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ledger_models.ErrInsufficientBalance)

	w, err := svc.GetWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("40")))
	requireConserved(t, store, ledger_models.OwnerWorker, worker)
}

func TestPostingInputValidation(t *testing.T) {
	ctx := context.Background()
	svc := ledger_service.NewWalletService(memory.NewStore())
	owner := uuid.New()

	cases := map[string]ledger_models.CreditInput{
		"zero amount":    {OwnerType: ledger_models.OwnerWorker, OwnerID: owner, Amount: dec("0"), Category: ledger_models.CategoryEarning},
		"negative":       {OwnerType: ledger_models.OwnerWorker, OwnerID: owner, Amount: dec("-5"), Category: ledger_models.CategoryEarning},
		"three decimals": {OwnerType: ledger_models.OwnerWorker, OwnerID: owner, Amount: dec("1.005"), Category: ledger_models.CategoryEarning},
		"nil owner":      {OwnerType: ledger_models.OwnerWorker, Amount: dec("1"), Category: ledger_models.CategoryEarning},
		"bad owner type": {OwnerType: "merchant", OwnerID: owner, Amount: dec("1"), Category: ledger_models.CategoryEarning},
		"no category":    {OwnerType: ledger_models.OwnerWorker, OwnerID: owner, Amount: dec("1")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Credit(ctx, in)
			assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)
		})
	}

	_, err := svc.GetWallet(ctx, ledger_models.OwnerWorker, owner)
	assert.ErrorIs(t, err, ledger_models.ErrNotFound, "rejected input must not create a wallet")
}

func TestRecordEarningCreditsWallet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewWalletService(store)
	worker := uuid.New()
	booking := uuid.New()

	earning, err := svc.RecordEarning(ctx, worker, dec("275"), &booking, "Cleaning job")
	require.NoError(t, err)
	assert.Equal(t, ledger_models.EarningPending, earning.PayoutStatus)

	w, err := svc.GetWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("275")))

	txs, err := svc.ListTransactions(ctx, ledger_models.OwnerWorker, worker, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger_models.CategoryEarning, txs[0].Category)
	require.NotNil(t, txs[0].BookingID)
	assert.Equal(t, booking, *txs[0].BookingID)
	assert.Len(t, store.Earnings(), 1)
}

func TestDeactivatedWalletRejectsPostings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewWalletService(store)
	worker := uuid.New()
	admin := uuid.New()
	credit(t, svc, ledger_models.OwnerWorker, worker, "10")

	w, err := svc.DeactivateWallet(ctx, ledger_models.OwnerWorker, worker, admin, "fraud review")
	require.NoError(t, err)
	assert.False(t, w.IsActive)

	_, err = svc.Credit(ctx, ledger_models.CreditInput{
		OwnerType: ledger_models.OwnerWorker,
		OwnerID:   worker,
		Amount:    dec("5"),
		Category:  ledger_models.CategoryEarning,
	})
	assert.ErrorIs(t, err, ledger_models.ErrWalletInactive)
	assert.Equal(t, ledger_models.KindInvalidState, ledger_models.Kind(err))

	_, err = svc.DeactivateWallet(ctx, ledger_models.OwnerWorker, worker, admin, "")
	assert.ErrorIs(t, err, ledger_models.ErrInvalidState)

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "wallet_deactivated", logs[0].Action)
}

func TestListTransactionsForUnknownWalletIsEmpty(t *testing.T) {
	svc := ledger_service.NewWalletService(memory.NewStore())
	txs, err := svc.ListTransactions(context.Background(), ledger_models.OwnerCustomer, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
