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

func TestCreateTopupRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultMinimum", func(t *testing.T) {
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), &fakeGateway{})
		minimum, err := svc.MinimumTopup(ctx)
		require.NoError(t, err)
		assert.True(t, minimum.Equal(dec("10")))

		_, err = svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("9.99"), Method: ledger_models.TopupUPI})
		assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)
	})

	t.Run("ConfiguredMinimum", func(t *testing.T) {
		store := memory.NewStore()
		store.PutSetting(ledger_models.SettingMinTopupAmount, dec("100"), time.Now().Add(-time.Hour))
		store.PutSetting(ledger_models.SettingMinTopupAmount, dec("500"), time.Now().Add(time.Hour))
		svc := ledger_service.NewCustomerWalletService(store, &fakeGateway{})

		minimum, err := svc.MinimumTopup(ctx)
		require.NoError(t, err)
		assert.True(t, minimum.Equal(dec("100")), "future settings are not in force yet")

		_, err = svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("50"), Method: ledger_models.TopupCash})
		assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)
	})

	t.Run("GatewayMethodOpensOrder", func(t *testing.T) {
		gw := &fakeGateway{}
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), gw)
		req, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("250"), Method: ledger_models.TopupCard})
		require.NoError(t, err)
		assert.Equal(t, ledger_models.TopupPending, req.Status)
		require.NotNil(t, req.GatewayOrderID)
		assert.Equal(t, 1, gw.orders)
	})

	t.Run("CashSkipsGateway", func(t *testing.T) {
		gw := &fakeGateway{}
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), gw)
		req, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("50"), Method: ledger_models.TopupCash})
		require.NoError(t, err)
		assert.Nil(t, req.GatewayOrderID)
		assert.Zero(t, gw.orders)
	})

	t.Run("GatewayFailureStoresNothing", func(t *testing.T) {
		customer := uuid.New()
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), &fakeGateway{orderErr: assertErr("timeout")})
		_, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: customer, Amount: dec("250"), Method: ledger_models.TopupUPI})
		require.ErrorIs(t, err, ledger_models.ErrGatewayFailure)
		assert.Equal(t, ledger_models.KindGatewayFailure, ledger_models.Kind(err))
		assert.NotContains(t, err.Error(), "timeout")
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), nil)
		_, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("50"), Method: "cheque"})
		assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)
	})
}

func TestConfirmTopupCreditsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewCustomerWalletService(store, &fakeGateway{})
	customer := uuid.New()

	req, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: customer, Amount: dec("300"), Method: ledger_models.TopupUPI})
	require.NoError(t, err)

	_, err = svc.ConfirmTopup(ctx, req.ID, "  ")
	assert.ErrorIs(t, err, ledger_models.ErrInvalidInput, "gateway top-ups need a payment id")

	done, err := svc.ConfirmTopup(ctx, req.ID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, ledger_models.TopupCompleted, done.Status)
	require.NotNil(t, done.GatewayPaymentID)
	assert.Equal(t, "pay_123", *done.GatewayPaymentID)
	assert.NotNil(t, done.CompletedAt)

	_, err = svc.ConfirmTopup(ctx, req.ID, "pay_123")
	assert.ErrorIs(t, err, ledger_models.ErrAlreadyProcessed)
	_, err = svc.ConfirmTopupByOrder(ctx, *req.GatewayOrderID, "pay_123")
	assert.ErrorIs(t, err, ledger_models.ErrAlreadyProcessed)

	w, err := svc.Wallet(ctx, customer)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("300")))
	assert.True(t, w.TotalCredited.Equal(dec("300")))

	txs, err := svc.Transactions(ctx, customer, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger_models.CategoryTopup, txs[0].Category)
	requireConserved(t, store, ledger_models.OwnerCustomer, customer)
}

func TestTopupByOrder(t *testing.T) {
	ctx := context.Background()
	svc := ledger_service.NewCustomerWalletService(memory.NewStore(), &fakeGateway{})
	customer := uuid.New()

	first, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: customer, Amount: dec("120"), Method: ledger_models.TopupNetbanking})
	require.NoError(t, err)
	second, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: customer, Amount: dec("80"), Method: ledger_models.TopupUPI})
	require.NoError(t, err)

	done, err := svc.ConfirmTopupByOrder(ctx, *first.GatewayOrderID, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, done.ID)

	failed, err := svc.FailTopupByOrder(ctx, *second.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.TopupFailed, failed.Status)

	_, err = svc.ConfirmTopupByOrder(ctx, *second.GatewayOrderID, "pay_2")
	assert.ErrorIs(t, err, ledger_models.ErrInvalidState)
	_, err = svc.FailTopupByOrder(ctx, *first.GatewayOrderID)
	assert.ErrorIs(t, err, ledger_models.ErrInvalidState, "completed top-ups cannot fail")
	_, err = svc.ConfirmTopupByOrder(ctx, "order_missing", "pay_3")
	assert.ErrorIs(t, err, ledger_models.ErrNotFound)

	w, err := svc.Wallet(ctx, customer)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("120")))
}

func TestBookingRefund(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewCustomerWalletService(store, nil)
	customer, booking := uuid.New(), uuid.New()

	refund, err := svc.Refund(ctx, ledger_models.RefundInput{CustomerID: customer, Amount: dec("75"), BookingID: booking, Reason: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, booking, refund.BookingID)
	assert.NotEqual(t, uuid.Nil, refund.TransactionID)

	_, err = svc.Refund(ctx, ledger_models.RefundInput{CustomerID: customer, Amount: dec("75"), BookingID: booking, Reason: "again"})
	require.ErrorIs(t, err, ledger_models.ErrDuplicateRefund)
	assert.Equal(t, ledger_models.KindInvalidState, ledger_models.Kind(err))

	w, err := svc.Wallet(ctx, customer)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("75")))
	assert.True(t, w.TotalRefunded.Equal(dec("75")))
	requireConserved(t, store, ledger_models.OwnerCustomer, customer)
}

func TestPayForBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := ledger_service.NewCustomerWalletService(store, nil)
	customer := uuid.New()
	credit(t, ledger_service.NewWalletService(store), ledger_models.OwnerCustomer, customer, "200")

	res, err := svc.PayForBooking(ctx, customer, dec("150"), uuid.New())
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("50")))

	_, err = svc.PayForBooking(ctx, customer, dec("60"), uuid.New())
	assert.ErrorIs(t, err, ledger_models.ErrInsufficientBalance)

	_, err = svc.PayForBooking(ctx, customer, dec("10"), uuid.Nil)
	assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)

	w, err := svc.Wallet(ctx, customer)
	require.NoError(t, err)
	assert.True(t, w.CurrentBalance.Equal(dec("50")))
	assert.True(t, w.TotalDebited.Equal(dec("150")))
}

func TestRefundTopupToSource(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, gw *fakeGateway) (*memory.Store, *ledger_service.CustomerWalletService, *ledger_models.TopupRequest) {
		store := memory.NewStore()
		svc := ledger_service.NewCustomerWalletService(store, gw)
		req, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("500"), Method: ledger_models.TopupUPI})
		require.NoError(t, err)
		req, err = svc.ConfirmTopup(ctx, req.ID, "pay_src")
		require.NoError(t, err)
		return store, svc, req
	}

	t.Run("PartialRefunds", func(t *testing.T) {
		gw := &fakeGateway{}
		store, svc, req := setup(t, gw)

		out, err := svc.RefundTopupToSource(ctx, req.ID, dec("200"), "unused")
		require.NoError(t, err)
		assert.True(t, out.RefundedAmount.Equal(dec("200")))

		_, err = svc.RefundTopupToSource(ctx, req.ID, dec("301"), "too much")
		assert.ErrorIs(t, err, ledger_models.ErrInvalidInput)

		_, err = svc.RefundTopupToSource(ctx, req.ID, dec("300"), "rest")
		require.NoError(t, err)
		require.Len(t, gw.refunds, 2)

		w, err := svc.Wallet(ctx, req.CustomerID)
		require.NoError(t, err)
		assert.True(t, w.CurrentBalance.IsZero())
		requireConserved(t, store, ledger_models.OwnerCustomer, req.CustomerID)
	})

	t.Run("GatewayErrorIsCompensated", func(t *testing.T) {
		gw := &fakeGateway{refundErr: assertErr("refund declined: payment pay_src is disputed")}
		store, svc, req := setup(t, gw)

		_, err := svc.RefundTopupToSource(ctx, req.ID, dec("100"), "unused")
		require.ErrorIs(t, err, ledger_models.ErrGatewayFailure)
		assert.NotContains(t, err.Error(), "disputed", "upstream detail stays in the logs")

		w, err := svc.Wallet(ctx, req.CustomerID)
		require.NoError(t, err)
		assert.True(t, w.CurrentBalance.Equal(dec("500")))
		assert.True(t, w.TotalDebited.IsZero())
		requireConserved(t, store, ledger_models.OwnerCustomer, req.CustomerID)

		txs, err := svc.Transactions(ctx, req.CustomerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, ledger_models.CategoryTopupRefundFailed, txs[0].Category)
		assert.Equal(t, ledger_models.CategoryTopupReversal, txs[1].Category)

		// the returned amount is refundable again once the gateway recovers
		gw.refundErr = nil
		out, err := svc.RefundTopupToSource(ctx, req.ID, dec("500"), "unused")
		require.NoError(t, err)
		assert.True(t, out.RefundedAmount.Equal(dec("500")))
	})

	t.Run("SpentMoneyCannotBeRefunded", func(t *testing.T) {
		_, svc, req := setup(t, &fakeGateway{})
		_, err := svc.PayForBooking(ctx, req.CustomerID, dec("450"), uuid.New())
		require.NoError(t, err)

		_, err = svc.RefundTopupToSource(ctx, req.ID, dec("100"), "unused")
		assert.ErrorIs(t, err, ledger_models.ErrInsufficientBalance)
	})

	t.Run("CashTopupsHaveNoSource", func(t *testing.T) {
		svc := ledger_service.NewCustomerWalletService(memory.NewStore(), &fakeGateway{})
		req, err := svc.CreateTopupRequest(ctx, ledger_models.TopupInput{CustomerID: uuid.New(), Amount: dec("50"), Method: ledger_models.TopupCash})
		require.NoError(t, err)
		_, err = svc.ConfirmTopup(ctx, req.ID, "")
		require.NoError(t, err)

		_, err = svc.RefundTopupToSource(ctx, req.ID, dec("10"), "unused")
		assert.ErrorIs(t, err, ledger_models.ErrInvalidState)
	})
}
