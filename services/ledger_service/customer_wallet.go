package ledger_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

var defaultMinTopup = decimal.NewFromInt(10)

const topupCurrency = "INR"

// CustomerWalletService is the customer-facing wallet: top-ups, booking payments and refunds.
type CustomerWalletService struct {
	store   repository.Store
	wallets *WalletService
	gateway clients.PaymentGateway
}

// NewCustomerWalletService wires the service. gateway may be nil, which limits top-ups to cash.
func NewCustomerWalletService(store repository.Store, gateway clients.PaymentGateway) *CustomerWalletService {
	return &CustomerWalletService{store: store, wallets: NewWalletService(store), gateway: gateway}
}

func (s *CustomerWalletService) Wallet(ctx context.Context, customerID uuid.UUID) (*ledger_models.Wallet, error) {
	return s.wallets.GetOrCreateWallet(ctx, ledger_models.OwnerCustomer, customerID)
}

func (s *CustomerWalletService) Transactions(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*ledger_models.Transaction, error) {
	return s.wallets.ListTransactions(ctx, ledger_models.OwnerCustomer, customerID, limit, offset)
}

// settingAt returns the value of the in-force setting for key, or def when none applies.
func settingAt(ctx context.Context, tx repository.ChargeTx, key string, asOf time.Time, def decimal.Decimal) (decimal.Decimal, error) {
	settings, err := tx.WalletSettings(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	var best *ledger_models.WalletSetting
	for _, st := range settings {
		if st.AppliesAt(asOf) && (best == nil || st.EffectiveFrom.After(best.EffectiveFrom)) {
			best = st
		}
	}
	if best == nil {
		return def, nil
	}
	return best.Value, nil
}

// MinimumTopup returns the smallest top-up accepted right now.
func (s *CustomerWalletService) MinimumTopup(ctx context.Context) (decimal.Decimal, error) {
	var minimum decimal.Decimal
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		minimum, err = settingAt(ctx, tx, ledger_models.SettingMinTopupAmount, time.Now().UTC(), defaultMinTopup)
		return err
	})
	return minimum, err
}

// CreateTopupRequest records a pending top-up. Gateway methods first open a gateway order;
// nothing is stored when that call fails.
func (s *CustomerWalletService) CreateTopupRequest(ctx context.Context, in ledger_models.TopupInput) (*ledger_models.TopupRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	minimum, err := s.MinimumTopup(ctx)
	if err != nil {
		return nil, err
	}
	if in.Amount.LessThan(minimum) {
		return nil, fmt.Errorf("%w: minimum top-up is %s", ledger_models.ErrInvalidInput, minimum.StringFixed(2))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate top-up id: %w", err)
	}

	var orderID *string
	if in.Method.External() {
		if s.gateway == nil {
			return nil, fmt.Errorf("%w: payment gateway is not configured", ledger_models.ErrGatewayFailure)
		}
		receipt := "tp_" + strings.ReplaceAll(id.String(), "-", "")
		oid, err := s.gateway.CreateOrder(ctx, in.Amount, topupCurrency, receipt)
		if err != nil {
			logger.ErrorLogger.Errorf("gateway order for top-up %s failed: %v", id, err)
			return nil, fmt.Errorf("%w: could not open a payment order", ledger_models.ErrGatewayFailure)
		}
		orderID = &oid
	}

	var req *ledger_models.TopupRequest
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		w, err := tx.LockWallet(ctx, ledger_models.OwnerCustomer, in.CustomerID)
		if err != nil {
			return err
		}
		if !w.IsActive {
			return ledger_models.ErrWalletInactive
		}
		now := time.Now().UTC()
		req = &ledger_models.TopupRequest{
			ID:             id,
			CustomerID:     in.CustomerID,
			WalletID:       w.ID,
			Amount:         in.Amount,
			Method:         in.Method,
			Status:         ledger_models.TopupPending,
			GatewayOrderID: orderID,
			RefundedAmount: decimal.Zero,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.InsertTopup(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Top-up %s created for customer %s: %s via %s", req.ID, req.CustomerID, req.Amount.StringFixed(2), req.Method)
	return req, nil
}

func (s *CustomerWalletService) ConfirmTopup(ctx context.Context, topupID uuid.UUID, paymentID string) (*ledger_models.TopupRequest, error) {
	return s.confirm(ctx, paymentID, func(tx repository.Tx) (*ledger_models.TopupRequest, error) {
		return tx.LockTopup(ctx, topupID)
	})
}

// ConfirmTopupByOrder confirms the top-up bound to a gateway order id.
func (s *CustomerWalletService) ConfirmTopupByOrder(ctx context.Context, orderID, paymentID string) (*ledger_models.TopupRequest, error) {
	return s.confirm(ctx, paymentID, func(tx repository.Tx) (*ledger_models.TopupRequest, error) {
		return tx.LockTopupByOrder(ctx, orderID)
	})
}

// confirm credits the wallet exactly once per top-up.
func (s *CustomerWalletService) confirm(ctx context.Context, paymentID string, lock func(tx repository.Tx) (*ledger_models.TopupRequest, error)) (*ledger_models.TopupRequest, error) {
	paymentID = strings.TrimSpace(paymentID)
	var req *ledger_models.TopupRequest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = lock(tx)
		if err != nil {
			return err
		}
		switch req.Status {
		case ledger_models.TopupCompleted:
			return ledger_models.ErrAlreadyProcessed
		case ledger_models.TopupFailed:
			return fmt.Errorf("%w: top-up %s has failed", ledger_models.ErrInvalidState, req.ID)
		}
		if req.Method.External() && paymentID == "" {
			return fmt.Errorf("%w: payment id is required", ledger_models.ErrInvalidInput)
		}

		w, err := tx.LockWallet(ctx, ledger_models.OwnerCustomer, req.CustomerID)
		if err != nil {
			return err
		}
		ref := req.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategoryTopup,
			Amount:      req.Amount,
			Description: fmt.Sprintf("Wallet top-up via %s", req.Method),
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		now := time.Now().UTC()
		req.Status = ledger_models.TopupCompleted
		req.GatewayPaymentID = strPtr(paymentID)
		req.CompletedAt = &now
		return tx.UpdateTopup(ctx, req)
	})
	if err != nil {
		if !errors.Is(err, ledger_models.ErrAlreadyProcessed) {
			logger.WarnLogger.Warnf("confirm top-up failed: %v", err)
		}
		return nil, err
	}
	logger.InfoLogger.Infof("Top-up %s confirmed, credited %s", req.ID, req.Amount.StringFixed(2))
	return req, nil
}

// FailTopupByOrder marks a pending gateway top-up failed. Completed top-ups are left alone.
func (s *CustomerWalletService) FailTopupByOrder(ctx context.Context, orderID string) (*ledger_models.TopupRequest, error) {
	var req *ledger_models.TopupRequest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = tx.LockTopupByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if req.Status != ledger_models.TopupPending {
			return fmt.Errorf("%w: top-up %s is %s", ledger_models.ErrInvalidState, req.ID, req.Status)
		}
		req.Status = ledger_models.TopupFailed
		return tx.UpdateTopup(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	logger.WarnLogger.Warnf("Top-up %s failed at gateway", req.ID)
	return req, nil
}

// Refund credits a booking refund to the customer wallet. A booking is refunded at most once.
func (s *CustomerWalletService) Refund(ctx context.Context, in ledger_models.RefundInput) (*ledger_models.WalletRefund, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refund id: %w", err)
	}

	var refund *ledger_models.WalletRefund
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		exists, err := tx.RefundExists(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if exists {
			return ledger_models.ErrDuplicateRefund
		}
		w, err := tx.LockWallet(ctx, ledger_models.OwnerCustomer, in.CustomerID)
		if err != nil {
			return err
		}
		bookingID := in.BookingID
		t, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategoryRefund,
			Amount:      in.Amount,
			Description: "Booking refund: " + in.Reason,
			BookingID:   &bookingID,
		})
		if err != nil {
			return err
		}
		refund = &ledger_models.WalletRefund{
			ID:            id,
			CustomerID:    in.CustomerID,
			WalletID:      w.ID,
			BookingID:     in.BookingID,
			Amount:        in.Amount,
			Reason:        in.Reason,
			TransactionID: t.ID,
			CreatedAt:     t.CreatedAt,
		}
		return tx.InsertRefund(ctx, refund)
	})
	if err != nil {
		logger.WarnLogger.Warnf("refund for booking %s failed: %v", in.BookingID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Refunded %s to customer %s for booking %s", in.Amount.StringFixed(2), in.CustomerID, in.BookingID)
	return refund, nil
}

// PayForBooking debits the customer wallet for a booking.
func (s *CustomerWalletService) PayForBooking(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, bookingID uuid.UUID) (*ledger_models.DebitResult, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("%w: booking id is required", ledger_models.ErrInvalidInput)
	}
	return s.wallets.Debit(ctx, ledger_models.DebitInput{
		OwnerType:   ledger_models.OwnerCustomer,
		OwnerID:     customerID,
		Amount:      amount,
		Category:    ledger_models.CategoryBookingPayment,
		Description: "Booking payment",
		BookingID:   &bookingID,
	})
}

// RefundTopupToSource returns unspent top-up money to the original payment method.
// The debit is committed before the gateway is called, so a refund the gateway accepted can
// never be rolled back; a gateway error is compensated by crediting the amount back.
func (s *CustomerWalletService) RefundTopupToSource(ctx context.Context, topupID uuid.UUID, amount decimal.Decimal, reason string) (*ledger_models.TopupRequest, error) {
	if err := ledger_models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway is not configured", ledger_models.ErrGatewayFailure)
	}

	var req *ledger_models.TopupRequest
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		req, err = tx.LockTopup(ctx, topupID)
		if err != nil {
			return err
		}
		if req.Status != ledger_models.TopupCompleted || !req.Method.External() || req.GatewayPaymentID == nil {
			return fmt.Errorf("%w: top-up %s cannot be refunded to source", ledger_models.ErrInvalidState, req.ID)
		}
		refundable := req.Amount.Sub(req.RefundedAmount)
		if amount.GreaterThan(refundable) {
			return fmt.Errorf("%w: at most %s can be refunded", ledger_models.ErrInvalidInput, refundable.StringFixed(2))
		}

		w, err := tx.LockWallet(ctx, ledger_models.OwnerCustomer, req.CustomerID)
		if err != nil {
			return err
		}
		ref := req.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxDebit,
			Category:    ledger_models.CategoryTopupReversal,
			Amount:      amount,
			Description: "Top-up refunded to source: " + reason,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		req.RefundedAmount = req.RefundedAmount.Add(amount)
		return tx.UpdateTopup(ctx, req)
	})
	if err != nil {
		logger.WarnLogger.Warnf("refund top-up %s to source failed: %v", topupID, err)
		return nil, err
	}

	refundID, gwErr := s.gateway.Refund(ctx, *req.GatewayPaymentID, amount, reason)
	if gwErr == nil {
		logger.InfoLogger.Infof("Gateway refund %s issued for top-up %s", refundID, req.ID)
		return req, nil
	}
	logger.ErrorLogger.Errorf("gateway refund of %s for top-up %s failed: %v", amount.StringFixed(2), req.ID, gwErr)
	if err := s.returnRefund(ctx, req.ID, amount); err != nil {
		// The wallet stays debited without a gateway refund until an admin credits it back.
		logger.ErrorLogger.Errorf("top-up %s: could not return %s after failed gateway refund: %v",
			req.ID, amount.StringFixed(2), err)
	}
	return nil, fmt.Errorf("%w: refund was not accepted by the payment gateway", ledger_models.ErrGatewayFailure)
}

// returnRefund credits back a source refund the gateway did not accept.
func (s *CustomerWalletService) returnRefund(ctx context.Context, topupID uuid.UUID, amount decimal.Decimal) error {
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		req, err := tx.LockTopup(ctx, topupID)
		if err != nil {
			return err
		}
		w, err := tx.LockWallet(ctx, ledger_models.OwnerCustomer, req.CustomerID)
		if err != nil {
			return err
		}
		ref := req.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategoryTopupRefundFailed,
			Amount:      amount,
			Description: "Refund to source not accepted by gateway",
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		req.RefundedAmount = req.RefundedAmount.Sub(amount)
		return tx.UpdateTopup(ctx, req)
	})
}
