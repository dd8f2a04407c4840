package ledger_service

import (
	"context"

	"github.com/joy095/ledger/models/ledger_models"
)

// Notifier is told about decisions after they commit. Failures are logged, never propagated.
type Notifier interface {
	WithdrawalDecided(ctx context.Context, w *ledger_models.WithdrawalRequest) error
	BatchFinalised(ctx context.Context, b *ledger_models.PayoutBatch) error
}

type nopNotifier struct{}

func (nopNotifier) WithdrawalDecided(context.Context, *ledger_models.WithdrawalRequest) error {
	return nil
}

func (nopNotifier) BatchFinalised(context.Context, *ledger_models.PayoutBatch) error {
	return nil
}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
