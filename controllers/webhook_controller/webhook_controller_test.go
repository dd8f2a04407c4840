package webhook_controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/controllers/webhook_controller"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository/memory"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct{}

func (stubGateway) CreateOrder(context.Context, decimal.Decimal, string, string) (string, error) {
	return "order_" + uuid.NewString()[:8], nil
}

func (stubGateway) Refund(context.Context, string, decimal.Decimal, string) (string, error) {
	return "rfnd_1", nil
}

func (stubGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "good"
}

type stubPayout struct{}

func (stubPayout) VerifyWebhookSignature(_ []byte, timestamp, signature string) bool {
	return timestamp != "" && signature == "good"
}

type stubTransfers struct{}

func (stubTransfers) InitiateTransfer(_ context.Context, req clients.TransferRequest) (string, error) {
	return req.TransferID, nil
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) FirstSeen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type fixture struct {
	r       *gin.Engine
	topups  *ledger_service.CustomerWalletService
	payouts *ledger_service.PayoutOrchestrator
	store   *memory.Store
}

func setup(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	topups := ledger_service.NewCustomerWalletService(store, stubGateway{})
	payouts := ledger_service.NewPayoutOrchestrator(store, stubTransfers{}, 2, nil)
	ctrl, err := webhook_controller.NewWebhookController(topups, payouts, stubGateway{}, stubPayout{}, nil,
		&memDeduper{seen: map[string]bool{}})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/webhooks/razorpay", ctrl.HandleRazorpay)
	r.POST("/webhooks/payouts", ctrl.HandlePayout)
	return &fixture{r: r, topups: topups, payouts: payouts, store: store}
}

func (f *fixture) post(t *testing.T, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func status(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	s, _ := out["status"].(string)
	return s
}

func paymentEvent(event, orderID, paymentID string) gin.H {
	return gin.H{
		"event": event,
		"payload": gin.H{"payment": gin.H{"entity": gin.H{
			"id": paymentID, "order_id": orderID, "status": "captured",
		}}},
	}
}

func TestNewWebhookControllerRequiresServices(t *testing.T) {
	_, err := webhook_controller.NewWebhookController(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestHandleRazorpay(t *testing.T) {
	ctx := context.Background()

	t.Run("BadSignature", func(t *testing.T) {
		f := setup(t)
		w := f.post(t, "/webhooks/razorpay", paymentEvent("payment.captured", "order_x", "pay_x"),
			map[string]string{"X-Razorpay-Signature": "forged"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("CapturedCreditsWalletOnce", func(t *testing.T) {
		f := setup(t)
		customer := uuid.New()
		topup, err := f.topups.CreateTopupRequest(ctx, ledger_models.TopupInput{
			CustomerID: customer, Amount: decimal.NewFromInt(250), Method: ledger_models.TopupUPI,
		})
		require.NoError(t, err)
		require.NotNil(t, topup.GatewayOrderID)

		ev := paymentEvent("payment.captured", *topup.GatewayOrderID, "pay_123")
		headers := map[string]string{"X-Razorpay-Signature": "good", "X-Razorpay-Event-Id": "evt_1"}

		w := f.post(t, "/webhooks/razorpay", ev, headers)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "processed", status(t, w))

		w = f.post(t, "/webhooks/razorpay", ev, headers)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "duplicate", status(t, w))

		// A redelivery under a new event id reaches the service, which treats it as done.
		headers["X-Razorpay-Event-Id"] = "evt_2"
		w = f.post(t, "/webhooks/razorpay", ev, headers)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "processed", status(t, w))

		wallet, err := f.topups.Wallet(ctx, customer)
		require.NoError(t, err)
		assert.True(t, wallet.CurrentBalance.Equal(decimal.NewFromInt(250)), wallet.CurrentBalance.String())
	})

	t.Run("UnknownOrderIsAcknowledged", func(t *testing.T) {
		f := setup(t)
		w := f.post(t, "/webhooks/razorpay", paymentEvent("payment.captured", "order_missing", "pay_1"),
			map[string]string{"X-Razorpay-Signature": "good"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ignored", status(t, w))
	})

	t.Run("UnhandledEvent", func(t *testing.T) {
		f := setup(t)
		w := f.post(t, "/webhooks/razorpay", paymentEvent("refund.created", "order_1", "pay_1"),
			map[string]string{"X-Razorpay-Signature": "good"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ignored", status(t, w))
	})
}

func TestHandlePayout(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	worker := uuid.New()
	wallets := ledger_service.NewWalletService(f.store)
	_, err := wallets.RecordEarning(ctx, worker, decimal.NewFromInt(400), nil, "deep cleaning")
	require.NoError(t, err)

	accounts := ledger_service.NewBankAccountService(f.store)
	acct, err := accounts.Add(ctx, ledger_models.BankAccountInput{UserID: worker, AccountHolderName: "Asha Devi", UPIID: "asha@okicici"})
	require.NoError(t, err)
	_, err = accounts.Verify(ctx, uuid.New(), worker, acct.ID, true)
	require.NoError(t, err)

	admin := uuid.New()
	batch, err := f.payouts.CreateBatch(ctx, ledger_models.CreateBatchInput{AdminID: admin})
	require.NoError(t, err)
	batch, err = f.payouts.Process(ctx, batch.ID, admin)
	require.NoError(t, err)
	require.Len(t, batch.Details, 1)
	detailID := batch.Details[0].ID.String()

	transfer := func(eventType string) gin.H {
		return gin.H{"type": eventType, "data": gin.H{"transfer": gin.H{
			"transfer_id": detailID, "cf_transfer_id": "cf_99", "status": eventType,
		}}}
	}
	headers := map[string]string{"x-webhook-timestamp": "1700000000", "x-webhook-signature": "good"}

	w := f.post(t, "/webhooks/payouts", transfer("TRANSFER_SUCCESS"), map[string]string{"x-webhook-signature": "good"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.post(t, "/webhooks/payouts", gin.H{"type": "TRANSFER_SUCCESS", "data": gin.H{"transfer": gin.H{"transfer_id": "nope"}}}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "/webhooks/payouts", transfer("TRANSFER_SUCCESS"), headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processed", status(t, w))

	w = f.post(t, "/webhooks/payouts", transfer("TRANSFER_SUCCESS"), headers)
	assert.Equal(t, "duplicate", status(t, w))

	got, err := f.payouts.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger_models.BatchCompleted, got.Status)
	require.Len(t, got.Details, 1)
	assert.Equal(t, ledger_models.DetailPaid, got.Details[0].Status)

	wallet, err := wallets.GetOrCreateWallet(ctx, ledger_models.OwnerWorker, worker)
	require.NoError(t, err)
	assert.True(t, wallet.CurrentBalance.IsZero(), wallet.CurrentBalance.String())
}
