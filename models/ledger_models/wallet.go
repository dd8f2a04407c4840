package ledger_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OwnerType string

const (
	OwnerWorker   OwnerType = "worker"
	OwnerCustomer OwnerType = "customer"
)

func (o OwnerType) Valid() bool {
	return o == OwnerWorker || o == OwnerCustomer
}

// Wallet is the running balance of one worker or one customer.
//
// TotalCredited is total_earned for workers and total_added for customers;
// TotalDebited is total_withdrawn for workers and total_spent for customers.
type Wallet struct {
	ID             uuid.UUID       `json:"id"`
	OwnerType      OwnerType       `json:"owner_type"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TotalCredited  decimal.Decimal `json:"total_credited"`
	TotalDebited   decimal.Decimal `json:"total_debited"`
	TotalSettled   decimal.Decimal `json:"total_settled"`
	TotalRefunded  decimal.Decimal `json:"total_refunded"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewWallet returns an active zero-balance wallet.
func NewWallet(ownerType OwnerType, ownerID uuid.UUID) (*Wallet, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Wallet{
		ID:             id,
		OwnerType:      ownerType,
		OwnerID:        ownerID,
		CurrentBalance: decimal.Zero,
		TotalCredited:  decimal.Zero,
		TotalDebited:   decimal.Zero,
		TotalSettled:   decimal.Zero,
		TotalRefunded:  decimal.Zero,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

type TransactionType string

const (
	TxCredit     TransactionType = "credit"
	TxDebit      TransactionType = "debit"
	TxSettlement TransactionType = "settlement"
)

// Sign returns +1 for balance-increasing types and -1 otherwise.
func (t TransactionType) Sign() int {
	if t == TxCredit {
		return 1
	}
	return -1
}

type TransactionCategory string

const (
	CategoryEarning            TransactionCategory = "earning"
	CategoryTopup              TransactionCategory = "topup"
	CategoryRefund             TransactionCategory = "refund"
	CategoryBookingPayment     TransactionCategory = "booking_payment"
	CategoryWithdrawal         TransactionCategory = "withdrawal"
	CategoryPayout             TransactionCategory = "payout"
	CategoryPayoutReversal     TransactionCategory = "payout_reversal"
	CategorySettlement         TransactionCategory = "settlement"
	CategorySettlementReversal TransactionCategory = "settlement_reversal"
	CategoryTopupReversal      TransactionCategory = "topup_reversal"
	CategoryTopupRefundFailed  TransactionCategory = "topup_refund_failed"
	CategoryAdjustment         TransactionCategory = "adjustment"
)

// IsReversal reports whether the category returns money taken by an earlier line.
// Reversals land even on deactivated wallets.
func (c TransactionCategory) IsReversal() bool {
	switch c {
	case CategorySettlementReversal, CategoryPayoutReversal, CategoryTopupRefundFailed:
		return true
	}
	return false
}

const TransactionStatusCompleted = "completed"

// Transaction is one immutable ledger line.
type Transaction struct {
	ID            uuid.UUID           `json:"id"`
	WalletID      uuid.UUID           `json:"wallet_id"`
	Type          TransactionType     `json:"type"`
	Category      TransactionCategory `json:"category"`
	Amount        decimal.Decimal     `json:"amount"`
	BalanceBefore decimal.Decimal     `json:"balance_before"`
	BalanceAfter  decimal.Decimal     `json:"balance_after"`
	Description   string              `json:"description"`
	BookingID     *uuid.UUID          `json:"booking_id,omitempty"`
	ReferenceID   *string             `json:"reference_id,omitempty"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Delta is the signed change this line applies to its wallet.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Type.Sign() > 0 {
		return t.Amount
	}
	return t.Amount.Neg()
}

// CreditInput is the validated request for Credit.
type CreditInput struct {
	OwnerType   OwnerType
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Category    TransactionCategory
	Description string
	BookingID   *uuid.UUID
	ReferenceID *string
}

func (in CreditInput) Validate() error {
	if !in.OwnerType.Valid() {
		return invalid("unknown owner type %q", in.OwnerType)
	}
	if in.OwnerID == uuid.Nil {
		return invalid("owner id is required")
	}
	if in.Category == "" {
		return invalid("credit category is required")
	}
	return ValidateAmount("amount", in.Amount)
}

// DebitInput is the validated request for Debit.
type DebitInput struct {
	OwnerType   OwnerType
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Category    TransactionCategory
	Description string
	BookingID   *uuid.UUID
	ReferenceID *string
}

func (in DebitInput) Validate() error {
	if !in.OwnerType.Valid() {
		return invalid("unknown owner type %q", in.OwnerType)
	}
	if in.OwnerID == uuid.Nil {
		return invalid("owner id is required")
	}
	if in.Category == "" {
		return invalid("debit category is required")
	}
	return ValidateAmount("amount", in.Amount)
}

type DebitResult struct {
	NewBalance    decimal.Decimal `json:"new_balance"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}

type PayoutStatus string

const (
	EarningPending PayoutStatus = "pending"
	EarningBatched PayoutStatus = "batched"
	EarningPaid    PayoutStatus = "paid"
	// EarningSettled marks earnings whose money left through a settlement or withdrawal.
	EarningSettled PayoutStatus = "settled"
)

// WorkerEarning is one booking's earning for a worker. It is paid by exactly one of a
// payout batch line, a daily settlement or an approved withdrawal (ConsumedBy).
type WorkerEarning struct {
	ID             uuid.UUID       `json:"id"`
	WorkerID       uuid.UUID       `json:"worker_id"`
	BookingID      *uuid.UUID      `json:"booking_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	PayoutStatus   PayoutStatus    `json:"payout_status"`
	PayoutBatchID  *uuid.UUID      `json:"payout_batch_id,omitempty"`
	PayoutDetailID *uuid.UUID      `json:"payout_detail_id,omitempty"`
	PayoutDate     *time.Time      `json:"payout_date,omitempty"`
	ConsumedBy     *uuid.UUID      `json:"consumed_by,omitempty"`
	EarnedAt       time.Time       `json:"earned_at"`
}

// AuditLog records an administrative action.
type AuditLog struct {
	ID         uuid.UUID        `json:"id"`
	AdminID    uuid.UUID        `json:"admin_id"`
	Action     string           `json:"action"`
	EntityType string           `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id"`
	SubjectID  *uuid.UUID       `json:"subject_id,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Notes      string           `json:"notes"`
	CreatedAt  time.Time        `json:"created_at"`
}

// BankAccount is a payout destination: a bank account, a UPI id, or both.
type BankAccount struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	AccountHolderName string    `json:"account_holder_name"`
	AccountNumber     *string   `json:"account_number,omitempty"`
	IFSC              *string   `json:"ifsc,omitempty"`
	BankName          *string   `json:"bank_name,omitempty"`
	UPIID             *string   `json:"upi_id,omitempty"`
	IsPrimary         bool      `json:"is_primary"`
	IsVerified        bool      `json:"is_verified"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
