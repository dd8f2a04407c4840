package webhook_controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/redis/go-redis/v9"
)

const maxWebhookBody = 1 << 20

// EventRecorder keeps the raw payload of accepted events.
type EventRecorder interface {
	RecordWebhookEvent(ctx context.Context, source, eventType string, payload []byte) error
}

// Deduper reports whether an event key is seen for the first time. Release forgets a key
// whose processing failed so the provider's retry is handled.
type Deduper interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, "webhook:"+key, 1, d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, "webhook:"+key).Err()
}

type PaymentVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type PayoutVerifier interface {
	VerifyWebhookSignature(body []byte, timestamp, signature string) bool
}

type WebhookController struct {
	topups   *ledger_service.CustomerWalletService
	payouts  *ledger_service.PayoutOrchestrator
	payment  PaymentVerifier
	payout   PayoutVerifier
	recorder EventRecorder
	deduper  Deduper
}

// NewWebhookController wires the gateway callbacks. A nil verifier disables its route;
// recorder and deduper are optional.
func NewWebhookController(topups *ledger_service.CustomerWalletService, payouts *ledger_service.PayoutOrchestrator,
	payment PaymentVerifier, payout PayoutVerifier, recorder EventRecorder, deduper Deduper) (*WebhookController, error) {
	if topups == nil || payouts == nil {
		return nil, errors.New("customer wallet and payout services cannot be nil")
	}
	return &WebhookController{
		topups:   topups,
		payouts:  payouts,
		payment:  payment,
		payout:   payout,
		recorder: recorder,
		deduper:  deduper,
	}, nil
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return nil, false
	}
	return body, true
}

// accept records the event and reports whether it still needs processing.
func (ctrl *WebhookController) accept(ctx context.Context, source, eventType, key string, body []byte) bool {
	if ctrl.recorder != nil {
		if err := ctrl.recorder.RecordWebhookEvent(ctx, source, eventType, body); err != nil {
			logger.WarnLogger.Warnf("failed to record %s webhook %s: %v", source, eventType, err)
		}
	}
	if ctrl.deduper == nil || key == "" {
		return true
	}
	first, err := ctrl.deduper.FirstSeen(ctx, key)
	if err != nil {
		logger.WarnLogger.Warnf("webhook de-duplication unavailable: %v", err)
		return true
	}
	if !first {
		logger.InfoLogger.Infof("Duplicate %s webhook %s ignored", source, key)
	}
	return first
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleRazorpay - POST /webhooks/razorpay
func (ctrl *WebhookController) HandleRazorpay(c *gin.Context) {
	if ctrl.payment == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway is not configured"})
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	if !ctrl.payment.VerifyWebhookSignature(body, c.GetHeader("X-Razorpay-Signature")) {
		logger.ErrorLogger.Error("Razorpay webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var ev razorpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	payment := ev.Payload.Payment.Entity
	if payment.OrderID == "" {
		logger.InfoLogger.Infof("Ignoring Razorpay event %s without an order", ev.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	key := c.GetHeader("X-Razorpay-Event-Id")
	if key == "" {
		key = ev.Event + ":" + payment.ID
	}
	key = "razorpay:" + key
	if !ctrl.accept(ctx, "razorpay", ev.Event, key, body) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	var err error
	switch ev.Event {
	case "payment.captured", "order.paid":
		_, err = ctrl.topups.ConfirmTopupByOrder(ctx, payment.OrderID, payment.ID)
		if errors.Is(err, ledger_models.ErrAlreadyProcessed) {
			err = nil
		}
	case "payment.failed":
		_, err = ctrl.topups.FailTopupByOrder(ctx, payment.OrderID)
		if errors.Is(err, ledger_models.ErrInvalidState) {
			logger.InfoLogger.Infof("Payment failure for order %s ignored: %v", payment.OrderID, err)
			err = nil
		}
	default:
		logger.InfoLogger.Infof("Unhandled Razorpay event type: %s", ev.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	ctrl.finish(c, "razorpay", ev.Event, key, err)
}

type payoutEvent struct {
	Type string `json:"type"`
	Data struct {
		Transfer struct {
			TransferID        string `json:"transfer_id"`
			CFTransferID      string `json:"cf_transfer_id"`
			Status            string `json:"status"`
			StatusDescription string `json:"status_description"`
		} `json:"transfer"`
	} `json:"data"`
}

// HandlePayout - POST /webhooks/payouts
func (ctrl *WebhookController) HandlePayout(c *gin.Context) {
	if ctrl.payout == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payout provider is not configured"})
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	if !ctrl.payout.VerifyWebhookSignature(body, c.GetHeader("x-webhook-timestamp"), c.GetHeader("x-webhook-signature")) {
		logger.ErrorLogger.Error("Payout webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var ev payoutEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var success bool
	switch ev.Type {
	case "TRANSFER_SUCCESS":
		success = true
	case "TRANSFER_FAILED", "TRANSFER_REVERSED", "TRANSFER_REJECTED":
	default:
		logger.InfoLogger.Infof("Unhandled payout event type: %s", ev.Type)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	t := ev.Data.Transfer
	detailID, err := uuid.Parse(t.TransferID)
	if err != nil {
		logger.ErrorLogger.Errorf("Payout webhook carries unknown transfer id %q", t.TransferID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer_id"})
		return
	}

	ctx := c.Request.Context()
	key := "cashfree:" + ev.Type + ":" + t.TransferID
	if !ctrl.accept(ctx, "cashfree", ev.Type, key, body) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	_, err = ctrl.payouts.ConfirmDetail(ctx, detailID, success, t.CFTransferID, t.StatusDescription)
	ctrl.finish(c, "cashfree", ev.Type, key, err)
}

// finish answers the provider. Not-found events are acknowledged so they are not retried forever.
func (ctrl *WebhookController) finish(c *gin.Context, source, eventType, key string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "processed"})
	case errors.Is(err, ledger_models.ErrNotFound):
		logger.WarnLogger.Warnf("%s webhook %s references an unknown record: %v", source, eventType, err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		if ctrl.deduper != nil {
			if rerr := ctrl.deduper.Release(c.Request.Context(), key); rerr != nil {
				logger.WarnLogger.Warnf("failed to release webhook key %s: %v", key, rerr)
			}
		}
		controllers.RespondError(c, err)
	}
}
