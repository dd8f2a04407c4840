package ledger_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TopupMethod string

const (
	TopupUPI        TopupMethod = "upi"
	TopupCard       TopupMethod = "card"
	TopupNetbanking TopupMethod = "netbanking"
	TopupCash       TopupMethod = "cash"
)

// External reports whether the method is settled through the payment gateway.
func (m TopupMethod) External() bool {
	return m == TopupUPI || m == TopupCard || m == TopupNetbanking
}

func (m TopupMethod) Valid() bool {
	return m.External() || m == TopupCash
}

type TopupStatus string

const (
	TopupPending   TopupStatus = "pending"
	TopupCompleted TopupStatus = "completed"
	TopupFailed    TopupStatus = "failed"
)

type TopupRequest struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	WalletID         uuid.UUID       `json:"wallet_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           TopupMethod     `json:"method"`
	Status           TopupStatus     `json:"status"`
	GatewayOrderID   *string         `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string         `json:"gateway_payment_id,omitempty"`
	RefundedAmount   decimal.Decimal `json:"refunded_amount"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type TopupInput struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Method     TopupMethod
}

func (in TopupInput) Validate() error {
	if in.CustomerID == uuid.Nil {
		return invalid("customer id is required")
	}
	if !in.Method.Valid() {
		return invalid("unsupported top-up method %q", in.Method)
	}
	return ValidateAmount("amount", in.Amount)
}

// WalletRefund credits a customer wallet for a booking. One per booking.
type WalletRefund struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	BookingID     uuid.UUID       `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

type RefundInput struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	BookingID  uuid.UUID
	Reason     string
}

func (in RefundInput) Validate() error {
	if in.CustomerID == uuid.Nil {
		return invalid("customer id is required")
	}
	if in.BookingID == uuid.Nil {
		return invalid("booking id is required")
	}
	return ValidateAmount("amount", in.Amount)
}
