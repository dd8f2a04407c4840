package ledger_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
	SettlementFailed     SettlementStatus = "failed"
)

// DailySettlement sweeps a worker wallet. TotalAmount is net of FeeAmount.
type DailySettlement struct {
	ID               uuid.UUID        `json:"id"`
	WorkerID         uuid.UUID        `json:"worker_id"`
	WalletID         uuid.UUID        `json:"wallet_id"`
	SettlementDate   time.Time        `json:"settlement_date"`
	GrossAmount      decimal.Decimal  `json:"gross_amount"`
	FeeAmount        decimal.Decimal  `json:"fee_amount"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	TransactionCount int              `json:"transaction_count"`
	DestinationID    string           `json:"destination_id"`
	Status           SettlementStatus `json:"status"`
	FailureReason    *string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

var settlementTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementPending:    {SettlementProcessing, SettlementCompleted, SettlementFailed},
	SettlementProcessing: {SettlementCompleted, SettlementFailed},
}

// CanMoveTo reports whether the forward transition from s to next is allowed.
func (s SettlementStatus) CanMoveTo(next SettlementStatus) bool {
	for _, allowed := range settlementTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
