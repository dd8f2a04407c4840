package clients

import (
	"context"
	"fmt"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the customer-side payment provider used for wallet top-ups.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (string, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

// RazorpayClient implements PaymentGateway using the Razorpay SDK.
type RazorpayClient struct {
	Client        *razorpay.Client
	webhookSecret string
}

func NewRazorpayClient(keyID, keySecret, webhookSecret string) *RazorpayClient {
	return &RazorpayClient{
		Client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
	}
}

var _ PaymentGateway = (*RazorpayClient)(nil)

// ToPaise converts a rupee amount to the integer minor units Razorpay expects.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreateOrder creates a Razorpay order and returns its id.
// The SDK has no context support, so ctx is only checked before the call.
func (r *RazorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	order, err := r.Client.Order.Create(map[string]interface{}{
		"amount":   ToPaise(amount),
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay create order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay create order: response missing id")
	}
	return id, nil
}

func (r *RazorpayClient) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	refund, err := r.Client.Payment.Refund(paymentID, int(ToPaise(amount)), map[string]interface{}{
		"notes": map[string]interface{}{"reason": reason},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay refund %s: %w", paymentID, err)
	}
	id, _ := refund["id"].(string)
	return id, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the raw body.
func (r *RazorpayClient) VerifyWebhookSignature(body []byte, signature string) bool {
	if r.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, r.webhookSecret)
}
