package ledger_models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
	WithdrawalPaid     WithdrawalStatus = "paid"
)

type WithdrawalRequest struct {
	ID                uuid.UUID        `json:"id"`
	WorkerID          uuid.UUID        `json:"worker_id"`
	WalletID          uuid.UUID        `json:"wallet_id"`
	Amount            decimal.Decimal  `json:"amount"`
	WithdrawalCharges decimal.Decimal  `json:"withdrawal_charges"`
	NetAmount         decimal.Decimal  `json:"net_amount"`
	DestinationID     string           `json:"destination_id"`
	Status            WithdrawalStatus `json:"status"`
	AdminNotes        *string          `json:"admin_notes,omitempty"`
	FailureReason     *string          `json:"failure_reason,omitempty"`
	ProcessedBy       *uuid.UUID       `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
	PaymentReference  *string          `json:"payment_reference,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.\-_]*[a-zA-Z0-9])?@[a-zA-Z][a-zA-Z0-9]*$`)

// IsValidUPI reports whether s looks like a UPI virtual payment address.
func IsValidUPI(s string) bool {
	return upiPattern.MatchString(s)
}

type CreateWithdrawalInput struct {
	WorkerID      uuid.UUID
	Amount        decimal.Decimal
	DestinationID string
}

func (in CreateWithdrawalInput) Validate() error {
	if in.WorkerID == uuid.Nil {
		return invalid("worker id is required")
	}
	if !IsValidUPI(in.DestinationID) {
		return invalid("destination must be a valid UPI id")
	}
	return ValidateAmount("amount", in.Amount)
}
