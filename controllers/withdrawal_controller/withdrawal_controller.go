package withdrawal_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/shopspring/decimal"
)

type WithdrawalController struct {
	withdrawals *ledger_service.WithdrawalService
}

func NewWithdrawalController(withdrawals *ledger_service.WithdrawalService) (*WithdrawalController, error) {
	if withdrawals == nil {
		return nil, errors.New("withdrawal service cannot be nil")
	}
	return &WithdrawalController{withdrawals: withdrawals}, nil
}

type createWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	DestinationID string          `json:"destination_id" binding:"required"`
}

// CreateWithdrawal - POST /withdrawals
func (ctrl *WithdrawalController) CreateWithdrawal(c *gin.Context) {
	workerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req createWithdrawalRequest
	if !controllers.BindJSON(c, &req) {
		return
	}

	w, err := ctrl.withdrawals.CreateWithdrawalRequest(c.Request.Context(), ledger_models.CreateWithdrawalInput{
		WorkerID:      workerID,
		Amount:        req.Amount,
		DestinationID: req.DestinationID,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListWithdrawals - GET /withdrawals
func (ctrl *WithdrawalController) ListWithdrawals(c *gin.Context) {
	workerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	limit, offset := controllers.Page(c)
	list, err := ctrl.withdrawals.ListByWorker(c.Request.Context(), workerID, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	respondList(c, list, limit, offset)
}

// AdminListWithdrawals - GET /admin/withdrawals?status=pending
func (ctrl *WithdrawalController) AdminListWithdrawals(c *gin.Context) {
	status := ledger_models.WithdrawalStatus(c.DefaultQuery("status", string(ledger_models.WithdrawalPending)))
	limit, offset := controllers.Page(c)
	list, err := ctrl.withdrawals.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	respondList(c, list, limit, offset)
}

func respondList(c *gin.Context, list []*ledger_models.WithdrawalRequest, limit, offset int) {
	if list == nil {
		list = []*ledger_models.WithdrawalRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "limit": limit, "offset": offset})
}

type decisionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// ApproveWithdrawal - PUT /admin/withdrawals/:id/approve
func (ctrl *WithdrawalController) ApproveWithdrawal(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &req) {
		return
	}

	w, err := ctrl.withdrawals.Approve(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// RejectWithdrawal - PUT /admin/withdrawals/:id/reject
func (ctrl *WithdrawalController) RejectWithdrawal(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if !controllers.BindJSON(c, &req) {
		return
	}

	w, err := ctrl.withdrawals.Reject(c.Request.Context(), id, adminID, req.Notes, req.Reason)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// MarkWithdrawalPaid - PUT /admin/withdrawals/:id/paid
func (ctrl *WithdrawalController) MarkWithdrawalPaid(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentReference string `json:"payment_reference" binding:"required"`
	}
	if !controllers.BindJSON(c, &req) {
		return
	}

	w, err := ctrl.withdrawals.MarkPaid(c.Request.Context(), id, adminID, req.PaymentReference)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
