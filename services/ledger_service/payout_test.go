package ledger_service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository/memory"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payoutFixture struct {
	store    *memory.Store
	wallets  *ledger_service.WalletService
	payouts  *ledger_service.PayoutOrchestrator
	notifier *recordingNotifier
	admin    uuid.UUID
	alice    uuid.UUID
	bob      uuid.UUID
}

func newPayoutFixture(t *testing.T, transfers clients.TransferInitiator) *payoutFixture {
	t.Helper()
	ctx := context.Background()
	f := &payoutFixture{
		store:    memory.NewStore(),
		notifier: &recordingNotifier{},
		admin:    uuid.New(),
		alice:    uuid.New(),
		bob:      uuid.New(),
	}
	f.wallets = ledger_service.NewWalletService(f.store)
	f.payouts = ledger_service.NewPayoutOrchestrator(f.store, transfers, 4, f.notifier)

	for _, e := range []struct {
		worker uuid.UUID
		amount string
	}{{f.alice, "100"}, {f.alice, "250.50"}, {f.bob, "80"}} {
		_, err := f.wallets.RecordEarning(ctx, e.worker, dec(e.amount), nil, "job")
		require.NoError(t, err)
	}
	f.store.AddUser(memory.User{ID: f.alice, FirstName: "Alice", LastName: "Rao", Email: "alice@example.com"})
	seedBankAccount(t, f.store, f.alice, "alice@okaxis", true)
	seedBankAccount(t, f.store, f.bob, "bob@okaxis", true)
	return f
}

func earningsByStatus(store *memory.Store) map[ledger_models.PayoutStatus]int {
	out := map[ledger_models.PayoutStatus]int{}
	for _, e := range store.Earnings() {
		out[e.PayoutStatus]++
	}
	return out
}

func detailFor(t *testing.T, b *ledger_models.PayoutBatch, provider uuid.UUID) *ledger_models.PayoutDetail {
	t.Helper()
	for _, d := range b.Details {
		if d.ProviderID == provider {
			return d
		}
	}
	t.Fatalf("no detail for provider %s", provider)
	return nil
}

func TestCreateBatchClaimsPendingEarnings(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, Notes: "weekly"})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCreated, batch.Status)
	assert.Equal(t, 2, batch.TotalProviders)
	assert.True(t, batch.TotalAmount.Equal(dec("430.50")))
	assert.Regexp(t, `^PB-\d{8}-[0-9a-f]{8}$`, batch.BatchReference)
	require.Len(t, batch.Details, 2)

	alice := detailFor(t, batch, f.alice)
	assert.Equal(t, 2, alice.EarningsCount)
	assert.True(t, alice.Amount.Equal(dec("350.50")))
	assert.NotNil(t, alice.BankAccountID)
	assert.False(t, alice.PeriodEnd.Before(alice.PeriodStart))

	assert.Equal(t, 3, earningsByStatus(f.store)[ledger_models.EarningBatched])

	_, err = f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	assert.ErrorIs(t, err, ledger_models.ErrNothingToPay, "earnings cannot join two batches")
	assert.Equal(t, ledger_models.KindNothingToPay, ledger_models.Kind(err))
}

func TestCreateBatchForSelectedProviders(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.bob}})
	require.NoError(t, err)
	require.Len(t, batch.Details, 1)
	assert.Equal(t, f.bob, batch.Details[0].ProviderID)

	counts := earningsByStatus(f.store)
	assert.Equal(t, 1, counts[ledger_models.EarningBatched])
	assert.Equal(t, 2, counts[ledger_models.EarningPending])

	_, err = f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, ledger_models.ErrNothingToPay)
}

func TestBatchConfirmationSettlesEveryLine(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)

	_, err = f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{})
	assert.ErrorIs(t, err, ledger_models.ErrInvalidState, "created batches cannot be confirmed")

	processing, err := f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchProcessing, processing.Status)
	assert.NotNil(t, processing.ProcessedAt)
	for _, d := range processing.Details {
		assert.Equal(t, ledger_models.DetailProcessing, d.Status)
	}

	_, err = f.payouts.Process(ctx, batch.ID, f.admin)
	assert.ErrorIs(t, err, ledger_models.ErrInvalidState)

	// an earning recorded after the batch stays outside it
	_, err = f.wallets.RecordEarning(ctx, f.alice, dec("40"), nil, "late job")
	require.NoError(t, err)

	bobLine := detailFor(t, batch, f.bob)
	aliceLine := detailFor(t, batch, f.alice)
	done, err := f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{
		Failures:   []ledger_models.DetailFailure{{DetailID: bobLine.ID, Reason: "invalid VPA"}},
		References: map[uuid.UUID]string{aliceLine.ID: "UTR-A1"},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCompletedWithExceptions, done.Status)
	assert.NotNil(t, done.CompletedAt)

	paidAlice := detailFor(t, done, f.alice)
	assert.Equal(t, ledger_models.DetailPaid, paidAlice.Status)
	require.NotNil(t, paidAlice.TransferReference)
	assert.Equal(t, "UTR-A1", *paidAlice.TransferReference)
	assert.Equal(t, ledger_models.DetailFailed, detailFor(t, done, f.bob).Status)

	for _, e := range f.store.Earnings() {
		switch {
		case e.WorkerID == f.alice && e.PayoutDetailID != nil:
			assert.Equal(t, ledger_models.EarningPaid, e.PayoutStatus)
			assert.NotNil(t, e.PayoutDate)
		case e.WorkerID == f.alice:
			assert.Equal(t, ledger_models.EarningPending, e.PayoutStatus)
		case e.WorkerID == f.bob:
			assert.Equal(t, ledger_models.EarningBatched, e.PayoutStatus, "failed lines keep their earnings")
		}
	}

	aliceWallet, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, f.alice)
	require.NoError(t, err)
	assert.True(t, aliceWallet.CurrentBalance.Equal(dec("40")))
	bobWallet, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, f.bob)
	require.NoError(t, err)
	assert.True(t, bobWallet.CurrentBalance.Equal(dec("80")))
	requireConserved(t, f.store, ledger_models.OwnerWorker, f.alice)

	again, err := f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCompletedWithExceptions, again.Status)
	assert.Equal(t, []ledger_models.BatchStatus{ledger_models.BatchCompletedWithExceptions}, f.notifier.batches)

	t.Run("RedriveFailedLine", func(t *testing.T) {
		d, err := f.payouts.RedriveDetail(ctx, bobLine.ID, f.admin)
		require.NoError(t, err)
		assert.Equal(t, ledger_models.DetailProcessing, d.Status)

		reopened, err := f.payouts.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger_models.BatchProcessing, reopened.Status)

		_, err = f.payouts.RedriveDetail(ctx, aliceLine.ID, f.admin)
		assert.ErrorIs(t, err, ledger_models.ErrInvalidState)

		d, err = f.payouts.ConfirmDetail(ctx, bobLine.ID, true, "UTR-B2", "")
		require.NoError(t, err)
		assert.Equal(t, ledger_models.DetailPaid, d.Status)

		final, err := f.payouts.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger_models.BatchCompleted, final.Status)
		assert.Equal(t, 0, earningsByStatus(f.store)[ledger_models.EarningBatched])
	})
}

func TestConfirmCompletionRequiresDestinations(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	carol := uuid.New()
	_, err := f.wallets.RecordEarning(ctx, carol, dec("25"), nil, "job")
	require.NoError(t, err)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)
	carolLine := detailFor(t, batch, carol)
	assert.Nil(t, carolLine.BankAccountID)

	_, err = f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)

	_, err = f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{})
	require.ErrorIs(t, err, ledger_models.ErrMissingDestination)

	unchanged, err := f.payouts.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchProcessing, unchanged.Status)
	for _, d := range unchanged.Details {
		assert.Equal(t, ledger_models.DetailProcessing, d.Status)
	}

	_, err = f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{
		Failures: []ledger_models.DetailFailure{{DetailID: uuid.New(), Reason: "x"}},
	})
	assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)

	done, err := f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{
		Failures: []ledger_models.DetailFailure{{DetailID: carolLine.ID, Reason: "no bank account"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCompletedWithExceptions, done.Status)
}

func TestCreateBatchReservesWalletFunds(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	settlements := ledger_service.NewSettlementService(f.store)
	withdrawals := ledger_service.NewWithdrawalService(f.store, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)
	for _, worker := range []uuid.UUID{f.alice, f.bob} {
		w, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, worker)
		require.NoError(t, err)
		assert.True(t, w.CurrentBalance.IsZero(), "batched funds leave the wallet, got %s", w.CurrentBalance)
	}

	_, err = settlements.ProcessDailySettlement(ctx, f.bob, "bob@okaxis")
	assert.ErrorIs(t, err, ledger_models.ErrNoBalance)
	_, err = withdrawals.CreateWithdrawalRequest(ctx, ledger_models.CreateWithdrawalInput{
		WorkerID: f.bob, Amount: dec("10"), DestinationID: "bob@okaxis",
	})
	assert.ErrorIs(t, err, ledger_models.ErrInsufficientBalance)

	_, err = f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)
	done, err := f.payouts.ConfirmCompletion(ctx, batch.ID, ledger_models.ConfirmInput{
		Failures: []ledger_models.DetailFailure{{DetailID: detailFor(t, batch, f.bob).ID, Reason: "invalid VPA"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger_models.DetailPaid, detailFor(t, done, f.alice).Status)
	assert.Equal(t, ledger_models.DetailFailed, detailFor(t, done, f.bob).Status)

	alice, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, f.alice)
	require.NoError(t, err)
	assert.True(t, alice.CurrentBalance.IsZero(), "a paid line is not debited twice")
	assert.True(t, alice.TotalDebited.Equal(dec("350.50")))

	bob, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, f.bob)
	require.NoError(t, err)
	assert.True(t, bob.CurrentBalance.Equal(dec("80")), "a failed line returns its reservation")
	assert.True(t, bob.TotalDebited.IsZero())
	requireConserved(t, f.store, ledger_models.OwnerWorker, f.alice)
	requireConserved(t, f.store, ledger_models.OwnerWorker, f.bob)

	txs, err := f.wallets.ListTransactions(ctx, ledger_models.OwnerWorker, f.bob, 1, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger_models.CategoryPayoutReversal, txs[0].Category)
}

func TestSettledEarningsAreNotBatched(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	settlements := ledger_service.NewSettlementService(f.store)

	st, err := settlements.ProcessDailySettlement(ctx, f.bob, "bob@okaxis")
	require.NoError(t, err)
	for _, e := range f.store.Earnings() {
		if e.WorkerID == f.bob {
			assert.Equal(t, ledger_models.EarningSettled, e.PayoutStatus)
			require.NotNil(t, e.ConsumedBy)
			assert.Equal(t, st.ID, *e.ConsumedBy)
		}
	}

	_, err = f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.bob}})
	assert.ErrorIs(t, err, ledger_models.ErrNothingToPay, "settled earnings cannot be paid again")

	t.Run("FailedSettlementReleasesEarnings", func(t *testing.T) {
		_, err := settlements.Fail(ctx, st.ID, f.admin, "bank rejected")
		require.NoError(t, err)
		for _, e := range f.store.Earnings() {
			if e.WorkerID == f.bob {
				assert.Equal(t, ledger_models.EarningPending, e.PayoutStatus)
				assert.Nil(t, e.ConsumedBy)
			}
		}

		batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.bob}})
		require.NoError(t, err)
		assert.True(t, batch.TotalAmount.Equal(dec("80")))
		requireConserved(t, f.store, ledger_models.OwnerWorker, f.bob)
	})
}

func TestApprovedWithdrawalConsumesOldestEarnings(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	withdrawals := ledger_service.NewWithdrawalService(f.store, nil)

	req, err := withdrawals.CreateWithdrawalRequest(ctx, ledger_models.CreateWithdrawalInput{
		WorkerID: f.alice, Amount: dec("100"), DestinationID: "alice@okaxis",
	})
	require.NoError(t, err)
	_, err = withdrawals.Approve(ctx, req.ID, f.admin, "")
	require.NoError(t, err)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.alice}})
	require.NoError(t, err)
	line := detailFor(t, batch, f.alice)
	assert.Equal(t, 1, line.EarningsCount)
	assert.True(t, line.Amount.Equal(dec("250.50")), "amount %s", line.Amount)

	counts := earningsByStatus(f.store)
	assert.Equal(t, 1, counts[ledger_models.EarningSettled])
	assert.Equal(t, 1, counts[ledger_models.EarningBatched])

	w, err := f.wallets.GetWallet(ctx, ledger_models.OwnerWorker, f.alice)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.IsZero())
	requireConserved(t, f.store, ledger_models.OwnerWorker, f.alice)
}

func TestPendingWithdrawalHoldsBackEarnings(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	withdrawals := ledger_service.NewWithdrawalService(f.store, nil)

	_, err := withdrawals.CreateWithdrawalRequest(ctx, ledger_models.CreateWithdrawalInput{
		WorkerID: f.bob, Amount: dec("50"), DestinationID: "bob@okaxis",
	})
	require.NoError(t, err)

	_, err = f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.bob}})
	assert.ErrorIs(t, err, ledger_models.ErrNothingToPay, "only 30 is free for an 80 earning")

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)
	require.Len(t, batch.Details, 1)
	assert.Equal(t, f.alice, batch.Details[0].ProviderID)
	assert.Equal(t, 1, earningsByStatus(f.store)[ledger_models.EarningPending])
}

func TestCreateBatchSkipsInactiveWallets(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	_, err := f.wallets.DeactivateWallet(ctx, ledger_models.OwnerWorker, f.bob, f.admin, "left the platform")
	require.NoError(t, err)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)
	require.Len(t, batch.Details, 1)
	assert.Equal(t, f.alice, batch.Details[0].ProviderID)
}

func TestRedriveNeedsWalletFunds(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)
	settlements := ledger_service.NewSettlementService(f.store)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin, ProviderIDs: []uuid.UUID{f.bob}})
	require.NoError(t, err)
	_, err = f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)
	line := batch.Details[0]
	_, err = f.payouts.ConfirmDetail(ctx, line.ID, false, "", "invalid VPA")
	require.NoError(t, err)

	// the returned reservation is swept before anyone re-drives the line
	_, err = settlements.ProcessDailySettlement(ctx, f.bob, "bob@okaxis")
	require.NoError(t, err)

	_, err = f.payouts.RedriveDetail(ctx, line.ID, f.admin)
	assert.ErrorIs(t, err, ledger_models.ErrInsufficientBalance)

	got, err := f.payouts.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.DetailFailed, got.Details[0].Status)
	requireConserved(t, f.store, ledger_models.OwnerWorker, f.bob)
}

func TestProcessInitiatesTransfers(t *testing.T) {
	ctx := context.Background()
	transfers := &fakeTransfers{reject: map[uuid.UUID]bool{}}
	f := newPayoutFixture(t, transfers)
	transfers.reject[f.bob] = true

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)

	processed, err := f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)
	assert.Len(t, transfers.calls, 2)
	assert.Equal(t, ledger_models.BatchProcessing, processed.Status)

	alice := detailFor(t, processed, f.alice)
	assert.Equal(t, ledger_models.DetailProcessing, alice.Status)
	require.NotNil(t, alice.TransferReference)

	bob := detailFor(t, processed, f.bob)
	assert.Equal(t, ledger_models.DetailFailed, bob.Status)
	require.NotNil(t, bob.FailureReason)
	assert.Contains(t, *bob.FailureReason, "beneficiary rejected")

	for _, call := range transfers.calls {
		assert.Equal(t, batch.BatchReference, call.Remarks)
		assert.NotEmpty(t, call.UPIID)
	}

	d, err := f.payouts.ConfirmDetail(ctx, alice.ID, true, "", "")
	require.NoError(t, err)
	assert.Equal(t, ledger_models.DetailPaid, d.Status)

	final, err := f.payouts.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCompletedWithExceptions, final.Status)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.payouts.ExportCSV(ctx, batch.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"provider_id", "name", "email", "amount", "earnings_count", "status",
		"account_holder", "account_number", "ifsc", "bank_name", "upi_id",
	}, records[0])
	assert.Equal(t, f.alice.String(), records[1][0], "largest amount first")
	assert.Equal(t, "Alice Rao", records[1][1])
	assert.Equal(t, "350.50", records[1][3])
	assert.Equal(t, "2", records[1][4])
	assert.Equal(t, "alice@okaxis", records[1][10])
	assert.Equal(t, "", records[2][1], "providers without a user row export blank names")

	assert.ErrorIs(t, f.payouts.ExportCSV(ctx, uuid.New(), &buf), ledger_models.ErrNotFound)
}

func TestListAndStuckBatches(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t, nil)

	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: f.admin})
	require.NoError(t, err)

	stuck, err := f.payouts.StuckBatches(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, stuck)

	_, err = f.payouts.Process(ctx, batch.ID, f.admin)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	stuck, err = f.payouts.StuckBatches(ctx, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, batch.ID, stuck[0].ID)

	stuck, err = f.payouts.StuckBatches(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, stuck)

	list, err := f.payouts.ListBatches(ctx, ledger_models.BatchProcessing, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = f.payouts.ListBatches(ctx, ledger_models.BatchCompleted, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAggregateEarnings(t *testing.T) {
	p := uuid.New()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	groups := ledger_service.AggregateEarnings([]*ledger_models.WorkerEarning{
		{ID: uuid.New(), WorkerID: p, Amount: dec("10.10"), EarnedAt: start.Add(48 * time.Hour)},
		{ID: uuid.New(), WorkerID: p, Amount: dec("0.90"), EarnedAt: start},
	})
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Amount.Equal(dec("11")))
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, start, groups[0].PeriodStart)
	assert.Equal(t, start.Add(48*time.Hour), groups[0].PeriodEnd)
	assert.Empty(t, ledger_service.AggregateEarnings(nil))
}
