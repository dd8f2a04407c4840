package ledger_service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository/memory"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSettlementFee(t *testing.T, store *memory.Store) {
	seedCharge(t, store, ledger_models.ChargeConfiguration{
		ChargeType:       ledger_models.ChargeSettlementFee,
		ChargePercentage: dec("1"),
		FixedCharge:      dec("5"),
	})
}

func TestProcessDailySettlement(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSettlementFee(t, store)
	wallets := ledger_service.NewWalletService(store)
	svc := ledger_service.NewSettlementService(store)
	worker := uuid.New()

	for _, amt := range []string{"400", "350", "250"} {
		_, err := wallets.RecordEarning(ctx, worker, dec(amt), nil, "job")
		require.NoError(t, err)
	}

	st, err := svc.ProcessDailySettlement(ctx, worker, "worker@okhdfc")
	require.NoError(t, err)
	assert.True(t, st.GrossAmount.Equal(dec("1000")))
	assert.True(t, st.FeeAmount.Equal(dec("10")), "fee %s", st.FeeAmount)
	assert.True(t, st.TotalAmount.Equal(dec("990")), "total %s", st.TotalAmount)
	assert.Equal(t, 3, st.TransactionCount)
	assert.Equal(t, ledger_models.SettlementPending, st.Status)

	w, err := wallets.GetWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.IsZero())
	assert.True(t, w.TotalSettled.Equal(dec("990")))
	requireConserved(t, store, ledger_models.OwnerWorker, worker)

	txs, err := wallets.ListTransactions(ctx, ledger_models.OwnerWorker, worker, 1, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger_models.TxSettlement, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(dec("1000")))

	_, err = svc.ProcessDailySettlement(ctx, worker, "worker@okhdfc")
	assert.ErrorIs(t, err, ledger_models.ErrNoBalance)

	_, err = wallets.RecordEarning(ctx, worker, dec("100"), nil, "job")
	require.NoError(t, err)
	second, err := svc.ProcessDailySettlement(ctx, worker, "worker@okhdfc")
	require.NoError(t, err)
	assert.Equal(t, 1, second.TransactionCount, "only credits since the previous settlement count")
}

func TestSettlementFeeAboveBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSettlementFee(t, store)
	wallets := ledger_service.NewWalletService(store)
	svc := ledger_service.NewSettlementService(store)
	worker := uuid.New()
	credit(t, wallets, ledger_models.OwnerWorker, worker, "4")

	_, err := svc.ProcessDailySettlement(ctx, worker, "worker@okhdfc")
	require.ErrorIs(t, err, ledger_models.ErrChargeConfigInvalid)

	w, err := wallets.GetWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("4")))
	assert.True(t, w.TotalSettled.IsZero())

	list, err := svc.ListByWorker(ctx, &worker, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettlementLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSettlementFee(t, store)
	wallets := ledger_service.NewWalletService(store)
	svc := ledger_service.NewSettlementService(store)
	admin := uuid.New()

	t.Run("Complete", func(t *testing.T) {
		worker := uuid.New()
		credit(t, wallets, ledger_models.OwnerWorker, worker, "500")
		st, err := svc.ProcessDailySettlement(ctx, worker, "w@ybl")
		require.NoError(t, err)

		st, err = svc.MarkProcessing(ctx, st.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, ledger_models.SettlementProcessing, st.Status)

		st, err = svc.Complete(ctx, st.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, ledger_models.SettlementCompleted, st.Status)

		_, err = svc.Fail(ctx, st.ID, admin, "bank bounced")
		assert.ErrorIs(t, err, ledger_models.ErrInvalidState)
		_, err = svc.MarkProcessing(ctx, st.ID, admin)
		assert.ErrorIs(t, err, ledger_models.ErrInvalidState)
	})

	t.Run("FailReturnsGrossAmount", func(t *testing.T) {
		worker := uuid.New()
		credit(t, wallets, ledger_models.OwnerWorker, worker, "1000")
		st, err := svc.ProcessDailySettlement(ctx, worker, "w@ybl")
		require.NoError(t, err)

		failed, err := svc.Fail(ctx, st.ID, admin, "account closed")
		require.NoError(t, err)
		assert.Equal(t, ledger_models.SettlementFailed, failed.Status)
		require.NotNil(t, failed.FailureReason)

		w, err := wallets.GetWallet(ctx, ledger_models.OwnerWorker, worker)
		require.NoError(t, err)
		assert.True(t, w.CurrentBalance.Equal(dec("1000")))
		assert.True(t, w.TotalSettled.IsZero())
		requireConserved(t, store, ledger_models.OwnerWorker, worker)
	})

	_, err := svc.Complete(ctx, uuid.New(), admin)
	assert.ErrorIs(t, err, ledger_models.ErrNotFound)
}

func TestSettleAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	wallets := ledger_service.NewWalletService(store)
	svc := ledger_service.NewSettlementService(store)

	ready := uuid.New()
	unverified := uuid.New()
	noAccount := uuid.New()
	empty := uuid.New()
	credit(t, wallets, ledger_models.OwnerWorker, ready, "120")
	credit(t, wallets, ledger_models.OwnerWorker, unverified, "80")
	credit(t, wallets, ledger_models.OwnerWorker, noAccount, "60")
	_, err := wallets.GetOrCreateWallet(ctx, ledger_models.OwnerWorker, empty)
	require.NoError(t, err)
	seedBankAccount(t, store, ready, "ready@okicici", true)
	seedBankAccount(t, store, unverified, "maybe@okicici", false)
	seedBankAccount(t, store, empty, "empty@okicici", true)

	res, err := svc.SettleAll(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, res.Settled, 1)
	assert.Equal(t, ready, res.Settled[0].WorkerID)
	assert.Equal(t, "ready@okicici", res.Settled[0].DestinationID)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Failed)

	w, err := wallets.GetWallet(ctx, ledger_models.OwnerWorker, unverified)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("80")))
}
