package settlement_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
)

type SettlementController struct {
	settlements *ledger_service.SettlementService
}

func NewSettlementController(settlements *ledger_service.SettlementService) (*SettlementController, error) {
	if settlements == nil {
		return nil, errors.New("settlement service cannot be nil")
	}
	return &SettlementController{settlements: settlements}, nil
}

// SettleWallet - POST /settlements
func (ctrl *SettlementController) SettleWallet(c *gin.Context) {
	workerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req struct {
		DestinationID string `json:"destination_id" binding:"required"`
	}
	if !controllers.BindJSON(c, &req) {
		return
	}

	st, err := ctrl.settlements.ProcessDailySettlement(c.Request.Context(), workerID, req.DestinationID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// ListSettlements - GET /settlements
func (ctrl *SettlementController) ListSettlements(c *gin.Context) {
	workerID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	ctrl.list(c, &workerID)
}

// AdminListSettlements - GET /admin/settlements?worker_id=
func (ctrl *SettlementController) AdminListSettlements(c *gin.Context) {
	var workerID *uuid.UUID
	if raw := c.Query("worker_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
			return
		}
		workerID = &id
	}
	ctrl.list(c, workerID)
}

func (ctrl *SettlementController) list(c *gin.Context, workerID *uuid.UUID) {
	limit, offset := controllers.Page(c)
	list, err := ctrl.settlements.ListByWorker(c.Request.Context(), workerID, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": list, "limit": limit, "offset": offset})
}

// MarkProcessing - PUT /admin/settlements/:id/processing
func (ctrl *SettlementController) MarkProcessing(c *gin.Context) {
	ctrl.transition(c, func(id, adminID uuid.UUID) (*ledger_models.DailySettlement, error) {
		return ctrl.settlements.MarkProcessing(c.Request.Context(), id, adminID)
	})
}

// CompleteSettlement - PUT /admin/settlements/:id/complete
func (ctrl *SettlementController) CompleteSettlement(c *gin.Context) {
	ctrl.transition(c, func(id, adminID uuid.UUID) (*ledger_models.DailySettlement, error) {
		return ctrl.settlements.Complete(c.Request.Context(), id, adminID)
	})
}

// FailSettlement - PUT /admin/settlements/:id/fail
func (ctrl *SettlementController) FailSettlement(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if !controllers.BindJSON(c, &req) {
		return
	}
	ctrl.transition(c, func(id, adminID uuid.UUID) (*ledger_models.DailySettlement, error) {
		return ctrl.settlements.Fail(c.Request.Context(), id, adminID, req.Reason)
	})
}

func (ctrl *SettlementController) transition(c *gin.Context, fn func(id, adminID uuid.UUID) (*ledger_models.DailySettlement, error)) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	st, err := fn(id, adminID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// RunSweep - POST /admin/settlements/run
func (ctrl *SettlementController) RunSweep(c *gin.Context) {
	res, err := ctrl.settlements.SettleAll(c.Request.Context(), time.Now().UTC())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
