package customer_wallet_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/shopspring/decimal"
)

type CustomerWalletController struct {
	wallets *ledger_service.CustomerWalletService
}

func NewCustomerWalletController(wallets *ledger_service.CustomerWalletService) (*CustomerWalletController, error) {
	if wallets == nil {
		return nil, errors.New("customer wallet service cannot be nil")
	}
	return &CustomerWalletController{wallets: wallets}, nil
}

// GetWallet - GET /customer-wallet
func (ctrl *CustomerWalletController) GetWallet(c *gin.Context) {
	customerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	w, err := ctrl.wallets.Wallet(c.Request.Context(), customerID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListTransactions - GET /customer-wallet/transactions
func (ctrl *CustomerWalletController) ListTransactions(c *gin.Context) {
	customerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	limit, offset := controllers.Page(c)
	txs, err := ctrl.wallets.Transactions(c.Request.Context(), customerID, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	if txs == nil {
		txs = []*ledger_models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "limit": limit, "offset": offset})
}

// MinimumTopup - GET /customer-wallet/min-topup
func (ctrl *CustomerWalletController) MinimumTopup(c *gin.Context) {
	minimum, err := ctrl.wallets.MinimumTopup(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"min_topup_amount": minimum})
}

type topupRequest struct {
	Amount decimal.Decimal           `json:"amount"`
	Method ledger_models.TopupMethod `json:"method" binding:"required"`
}

// CreateTopup - POST /customer-wallet/topups
func (ctrl *CustomerWalletController) CreateTopup(c *gin.Context) {
	customerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req topupRequest
	if !controllers.BindJSON(c, &req) {
		return
	}

	topup, err := ctrl.wallets.CreateTopupRequest(c.Request.Context(), ledger_models.TopupInput{
		CustomerID: customerID,
		Amount:     req.Amount,
		Method:     req.Method,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topup)
}

type payRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	BookingID uuid.UUID       `json:"booking_id" binding:"required"`
}

// PayForBooking - POST /customer-wallet/pay
func (ctrl *CustomerWalletController) PayForBooking(c *gin.Context) {
	customerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req payRequest
	if !controllers.BindJSON(c, &req) {
		return
	}

	res, err := ctrl.wallets.PayForBooking(c.Request.Context(), customerID, req.Amount, req.BookingID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ConfirmTopup - POST /admin/customer-wallet/topups/:id/confirm
// Used for cash top-ups and for gateway payments reconciled by hand.
func (ctrl *CustomerWalletController) ConfirmTopup(c *gin.Context) {
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentID string `json:"payment_id"`
	}
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &req) {
		return
	}

	topup, err := ctrl.wallets.ConfirmTopup(c.Request.Context(), id, req.PaymentID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topup)
}

type refundRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	BookingID  uuid.UUID       `json:"booking_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason" binding:"required"`
}

// RefundBooking - POST /admin/customer-wallet/refunds
func (ctrl *CustomerWalletController) RefundBooking(c *gin.Context) {
	var req refundRequest
	if !controllers.BindJSON(c, &req) {
		return
	}

	refund, err := ctrl.wallets.Refund(c.Request.Context(), ledger_models.RefundInput{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		BookingID:  req.BookingID,
		Reason:     req.Reason,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

// RefundTopupToSource - POST /admin/customer-wallet/topups/:id/refund
func (ctrl *CustomerWalletController) RefundTopupToSource(c *gin.Context) {
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason" binding:"required"`
	}
	if !controllers.BindJSON(c, &req) {
		return
	}

	topup, err := ctrl.wallets.RefundTopupToSource(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topup)
}
