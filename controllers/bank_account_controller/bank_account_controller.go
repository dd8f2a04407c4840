package bank_account_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
)

type BankAccountController struct {
	accounts *ledger_service.BankAccountService
}

func NewBankAccountController(accounts *ledger_service.BankAccountService) (*BankAccountController, error) {
	if accounts == nil {
		return nil, errors.New("bank account service cannot be nil")
	}
	return &BankAccountController{accounts: accounts}, nil
}

// CreateBankAccount - POST /bank-accounts
func (ctrl *BankAccountController) CreateBankAccount(c *gin.Context) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return
	}

	var req ledger_models.BankAccountInput
	if !controllers.BindJSON(c, &req) {
		return
	}
	req.UserID = userID

	account, err := ctrl.accounts.Add(c.Request.Context(), req)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// ListBankAccounts - GET /bank-accounts
func (ctrl *BankAccountController) ListBankAccounts(c *gin.Context) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return
	}

	accounts, err := ctrl.accounts.List(c.Request.Context(), userID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	if accounts == nil {
		accounts = []*ledger_models.BankAccount{}
	}
	c.JSON(http.StatusOK, gin.H{"bank_accounts": accounts})
}

// GetBankAccount - GET /bank-accounts/:bank_id
func (ctrl *BankAccountController) GetBankAccount(c *gin.Context) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	bankID, ok := controllers.UUIDParam(c, "bank_id")
	if !ok {
		return
	}

	account, err := ctrl.accounts.Get(c.Request.Context(), userID, bankID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// SetPrimaryBankAccount - PUT /bank-accounts/:bank_id/primary
func (ctrl *BankAccountController) SetPrimaryBankAccount(c *gin.Context) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	bankID, ok := controllers.UUIDParam(c, "bank_id")
	if !ok {
		return
	}

	account, err := ctrl.accounts.SetPrimary(c.Request.Context(), userID, bankID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// DeleteBankAccount - DELETE /bank-accounts/:bank_id
func (ctrl *BankAccountController) DeleteBankAccount(c *gin.Context) {
	userID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	bankID, ok := controllers.UUIDParam(c, "bank_id")
	if !ok {
		return
	}

	if err := ctrl.accounts.Delete(c.Request.Context(), userID, bankID); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_id": bankID, "status": "deleted"})
}

// VerifyBankAccount - PUT /admin/users/:user_id/bank-accounts/:bank_id/verify
func (ctrl *BankAccountController) VerifyBankAccount(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	userID, ok := controllers.UUIDParam(c, "user_id")
	if !ok {
		return
	}
	bankID, ok := controllers.UUIDParam(c, "bank_id")
	if !ok {
		return
	}

	var req struct {
		Verified *bool `json:"verified" binding:"required"`
	}
	if !controllers.BindJSON(c, &req) {
		return
	}

	account, err := ctrl.accounts.Verify(c.Request.Context(), adminID, userID, bankID, *req.Verified)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	logger.InfoLogger.Infof("Admin %s set bank account %s verified=%t", adminID, bankID, *req.Verified)
	c.JSON(http.StatusOK, account)
}
