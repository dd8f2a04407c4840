package wallet_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/joy095/ledger/utils"
	"github.com/shopspring/decimal"
)

type WalletController struct {
	wallets *ledger_service.WalletService
	charges *ledger_service.ChargeResolver
}

func NewWalletController(wallets *ledger_service.WalletService, charges *ledger_service.ChargeResolver) (*WalletController, error) {
	if wallets == nil || charges == nil {
		return nil, errors.New("wallet and charge services cannot be nil")
	}
	return &WalletController{wallets: wallets, charges: charges}, nil
}

func ownerTypeFor(role string) (ledger_models.OwnerType, bool) {
	switch role {
	case utils.RoleWorker:
		return ledger_models.OwnerWorker, true
	case utils.RoleCustomer:
		return ledger_models.OwnerCustomer, true
	}
	return "", false
}

// caller resolves the wallet owner behind the request.
func caller(c *gin.Context) (ledger_models.OwnerType, uuid.UUID, bool) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return "", uuid.Nil, false
	}
	ownerType, ok := ownerTypeFor(utils.GetRoleFromContext(c))
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "role has no wallet"})
		return "", uuid.Nil, false
	}
	return ownerType, userID, true
}

// GetWallet - GET /wallet
func (ctrl *WalletController) GetWallet(c *gin.Context) {
	ownerType, ownerID, ok := caller(c)
	if !ok {
		return
	}
	w, err := ctrl.wallets.GetOrCreateWallet(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListTransactions - GET /wallet/transactions
func (ctrl *WalletController) ListTransactions(c *gin.Context) {
	ownerType, ownerID, ok := caller(c)
	if !ok {
		return
	}
	limit, offset := controllers.Page(c)
	txs, err := ctrl.wallets.ListTransactions(c.Request.Context(), ownerType, ownerID, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	if txs == nil {
		txs = []*ledger_models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "limit": limit, "offset": offset})
}

// owner reads :owner_type and :owner_id from the path.
func owner(c *gin.Context) (ledger_models.OwnerType, uuid.UUID, bool) {
	ownerType := ledger_models.OwnerType(c.Param("owner_type"))
	if !ownerType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner_type"})
		return "", uuid.Nil, false
	}
	ownerID, ok := controllers.UUIDParam(c, "owner_id")
	if !ok {
		return "", uuid.Nil, false
	}
	return ownerType, ownerID, true
}

// AdminGetWallet - GET /admin/wallets/:owner_type/:owner_id
func (ctrl *WalletController) AdminGetWallet(c *gin.Context) {
	ownerType, ownerID, ok := owner(c)
	if !ok {
		return
	}
	w, err := ctrl.wallets.GetWallet(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// AdminListTransactions - GET /admin/wallets/:owner_type/:owner_id/transactions
func (ctrl *WalletController) AdminListTransactions(c *gin.Context) {
	ownerType, ownerID, ok := owner(c)
	if !ok {
		return
	}
	limit, offset := controllers.Page(c)
	txs, err := ctrl.wallets.ListTransactions(c.Request.Context(), ownerType, ownerID, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	if txs == nil {
		txs = []*ledger_models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "limit": limit, "offset": offset})
}

type adjustRequest struct {
	Direction   string          `json:"direction" binding:"required,oneof=credit debit"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required"`
	Reference   string          `json:"reference"`
}

// AdjustWallet - POST /admin/wallets/:owner_type/:owner_id/adjustments
func (ctrl *WalletController) AdjustWallet(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	ownerType, ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req adjustRequest
	if !controllers.BindJSON(c, &req) {
		return
	}
	var ref *string
	if req.Reference != "" {
		ref = &req.Reference
	}

	ctx := c.Request.Context()
	if req.Direction == "credit" {
		tx, err := ctrl.wallets.Credit(ctx, ledger_models.CreditInput{
			OwnerType: ownerType, OwnerID: ownerID, Amount: req.Amount,
			Category: ledger_models.CategoryAdjustment, Description: req.Description, ReferenceID: ref,
		})
		if err != nil {
			controllers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": tx, "adjusted_by": adminID})
		return
	}

	res, err := ctrl.wallets.Debit(ctx, ledger_models.DebitInput{
		OwnerType: ownerType, OwnerID: ownerID, Amount: req.Amount,
		Category: ledger_models.CategoryAdjustment, Description: req.Description, ReferenceID: ref,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debit": res, "adjusted_by": adminID})
}

// DeactivateWallet - POST /admin/wallets/:owner_type/:owner_id/deactivate
func (ctrl *WalletController) DeactivateWallet(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	ownerType, ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &req) {
		return
	}

	w, err := ctrl.wallets.DeactivateWallet(c.Request.Context(), ownerType, ownerID, adminID, req.Notes)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type earningRequest struct {
	WorkerID    uuid.UUID       `json:"worker_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	BookingID   *uuid.UUID      `json:"booking_id"`
	Description string          `json:"description"`
}

// RecordEarning - POST /admin/earnings
func (ctrl *WalletController) RecordEarning(c *gin.Context) {
	var req earningRequest
	if !controllers.BindJSON(c, &req) {
		return
	}
	earning, err := ctrl.wallets.RecordEarning(c.Request.Context(), req.WorkerID, req.Amount, req.BookingID, req.Description)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, earning)
}

type chargeRequest struct {
	ChargeType       ledger_models.ChargeType `json:"charge_type" binding:"required"`
	ChargePercentage decimal.Decimal          `json:"charge_percentage"`
	FixedCharge      decimal.Decimal          `json:"fixed_charge"`
	MinimumCharge    *decimal.Decimal         `json:"minimum_charge"`
	MaximumCharge    *decimal.Decimal         `json:"maximum_charge"`
	EffectiveFrom    *time.Time               `json:"effective_from"`
	EffectiveTo      *time.Time               `json:"effective_to"`
}

// AddChargeConfiguration - POST /admin/charges
func (ctrl *WalletController) AddChargeConfiguration(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req chargeRequest
	if !controllers.BindJSON(c, &req) {
		return
	}
	cfg := ledger_models.ChargeConfiguration{
		ChargeType:       req.ChargeType,
		ChargePercentage: req.ChargePercentage,
		FixedCharge:      req.FixedCharge,
		MinimumCharge:    req.MinimumCharge,
		MaximumCharge:    req.MaximumCharge,
		EffectiveTo:      req.EffectiveTo,
	}
	if req.EffectiveFrom != nil {
		cfg.EffectiveFrom = *req.EffectiveFrom
	}

	saved, err := ctrl.charges.AddConfiguration(c.Request.Context(), adminID, cfg)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// QuoteFee - GET /charges/:charge_type/quote?amount=
func (ctrl *WalletController) QuoteFee(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	fee, err := ctrl.charges.ResolveFee(c.Request.Context(), ledger_models.ChargeType(c.Param("charge_type")), amount, time.Now())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fee)
}
