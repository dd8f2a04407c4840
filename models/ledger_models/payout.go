package ledger_models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BatchStatus string

const (
	BatchCreated                 BatchStatus = "created"
	BatchProcessing              BatchStatus = "processing"
	BatchCompleted               BatchStatus = "completed"
	BatchCompletedWithExceptions BatchStatus = "completed_with_exceptions"
	BatchFailed                  BatchStatus = "failed"
)

// IsFinal reports whether confirmation has already resolved the batch.
func (s BatchStatus) IsFinal() bool {
	return s == BatchCompleted || s == BatchCompletedWithExceptions || s == BatchFailed
}

type DetailStatus string

const (
	DetailCreated    DetailStatus = "created"
	DetailProcessing DetailStatus = "processing"
	DetailPaid       DetailStatus = "paid"
	DetailFailed     DetailStatus = "failed"
)

type PayoutBatch struct {
	ID             uuid.UUID       `json:"id"`
	BatchReference string          `json:"batch_reference"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalProviders int             `json:"total_providers"`
	Status         BatchStatus     `json:"status"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	Notes          string          `json:"notes"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Details        []*PayoutDetail `json:"details,omitempty"`
}

type PayoutDetail struct {
	ID                uuid.UUID       `json:"id"`
	BatchID           uuid.UUID       `json:"batch_id"`
	ProviderID        uuid.UUID       `json:"provider_id"`
	Amount            decimal.Decimal `json:"amount"`
	EarningsCount     int             `json:"earnings_count"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	BankAccountID     *uuid.UUID      `json:"bank_account_id,omitempty"`
	Status            DetailStatus    `json:"status"`
	TransferReference *string         `json:"transfer_reference,omitempty"`
	FailureReason     *string         `json:"failure_reason,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewBatchReference builds a human readable reference such as PB-20260119-1a2b3c4d.
func NewBatchReference(now time.Time, id uuid.UUID) string {
	suffix := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("PB-%s-%s", now.UTC().Format("20060102"), suffix[len(suffix)-8:])
}

// ResolveBatchStatus derives the final batch status from its detail statuses.
// The second result is false while any detail is still unresolved.
func ResolveBatchStatus(details []*PayoutDetail) (BatchStatus, bool) {
	paid, failed := 0, 0
	for _, d := range details {
		switch d.Status {
		case DetailPaid:
			paid++
		case DetailFailed:
			failed++
		default:
			return BatchProcessing, false
		}
	}
	switch {
	case failed == 0:
		return BatchCompleted, true
	case paid == 0:
		return BatchFailed, true
	default:
		return BatchCompletedWithExceptions, true
	}
}

type CreateBatchInput struct {
	ProviderIDs []uuid.UUID
	Notes       string
	AdminID     uuid.UUID
}

func (in CreateBatchInput) Validate() error {
	if in.AdminID == uuid.Nil {
		return invalid("admin id is required")
	}
	for _, id := range in.ProviderIDs {
		if id == uuid.Nil {
			return invalid("provider ids must not be empty")
		}
	}
	return nil
}

// DetailFailure marks one provider's transfer as failed during confirmation.
type DetailFailure struct {
	DetailID uuid.UUID `json:"detail_id"`
	Reason   string    `json:"reason"`
}

type ConfirmInput struct {
	Failures []DetailFailure
	// References optionally carries the external transfer reference per detail.
	References map[uuid.UUID]string
}

// ProviderEarnings aggregates one provider's unpaid earnings.
type ProviderEarnings struct {
	ProviderID  uuid.UUID
	Amount      decimal.Decimal
	Count       int
	PeriodStart time.Time
	PeriodEnd   time.Time
	EarningIDs  []uuid.UUID
}

// BatchExportRow is one line of the batch CSV report.
type BatchExportRow struct {
	ProviderID        uuid.UUID
	Name              string
	Email             string
	Amount            decimal.Decimal
	EarningsCount     int
	Status            DetailStatus
	AccountHolderName string
	AccountNumber     string
	IFSC              string
	BankName          string
	UPIID             string
}
