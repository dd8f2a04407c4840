package payout_batch_controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/controllers"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
)

type PayoutBatchController struct {
	payouts    *ledger_service.PayoutOrchestrator
	stuckAfter time.Duration
}

func NewPayoutBatchController(payouts *ledger_service.PayoutOrchestrator, stuckAfter time.Duration) (*PayoutBatchController, error) {
	if payouts == nil {
		return nil, errors.New("payout orchestrator cannot be nil")
	}
	if stuckAfter <= 0 {
		stuckAfter = 24 * time.Hour
	}
	return &PayoutBatchController{payouts: payouts, stuckAfter: stuckAfter}, nil
}

type createBatchRequest struct {
	ProviderIDs []uuid.UUID `json:"provider_ids"`
	Notes       string      `json:"notes"`
}

// CreateBatch - POST /admin/payout-batches
func (ctrl *PayoutBatchController) CreateBatch(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	var req createBatchRequest
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &req) {
		return
	}

	batch, err := ctrl.payouts.CreateBatch(c.Request.Context(), ledger_models.CreateBatchInput{
		ProviderIDs: req.ProviderIDs,
		Notes:       req.Notes,
		AdminID:     adminID,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ListBatches - GET /admin/payout-batches?status=
func (ctrl *PayoutBatchController) ListBatches(c *gin.Context) {
	limit, offset := controllers.Page(c)
	status := ledger_models.BatchStatus(c.Query("status"))
	list, err := ctrl.payouts.ListBatches(c.Request.Context(), status, limit, offset)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": list, "limit": limit, "offset": offset})
}

// GetBatch - GET /admin/payout-batches/:id
func (ctrl *PayoutBatchController) GetBatch(c *gin.Context) {
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := ctrl.payouts.GetBatch(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// ProcessBatch - POST /admin/payout-batches/:id/process
func (ctrl *PayoutBatchController) ProcessBatch(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := ctrl.payouts.Process(c.Request.Context(), id, adminID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type confirmRequest struct {
	Failures   []ledger_models.DetailFailure `json:"failures"`
	References map[uuid.UUID]string          `json:"references"`
}

// ConfirmBatch - POST /admin/payout-batches/:id/confirm
func (ctrl *PayoutBatchController) ConfirmBatch(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req confirmRequest
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &req) {
		return
	}

	batch, err := ctrl.payouts.ConfirmCompletion(c.Request.Context(), id, ledger_models.ConfirmInput{
		Failures:   req.Failures,
		References: req.References,
	})
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	logger.InfoLogger.Infof("Admin %s confirmed payout batch %s: %s", adminID, batch.BatchReference, batch.Status)
	c.JSON(http.StatusOK, batch)
}

// ExportBatch - GET /admin/payout-batches/:id/export
func (ctrl *PayoutBatchController) ExportBatch(c *gin.Context) {
	id, ok := controllers.UUIDParam(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := ctrl.payouts.ExportCSV(c.Request.Context(), id, &buf); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="payout-batch-%s.csv"`, id))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// RedriveDetail - POST /admin/payout-batches/details/:detail_id/redrive
func (ctrl *PayoutBatchController) RedriveDetail(c *gin.Context) {
	adminID, ok := controllers.UserID(c)
	if !ok {
		return
	}
	detailID, ok := controllers.UUIDParam(c, "detail_id")
	if !ok {
		return
	}
	d, err := ctrl.payouts.RedriveDetail(c.Request.Context(), detailID, adminID)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// StuckBatches - GET /admin/payout-batches/stuck?older_than=24h
func (ctrl *PayoutBatchController) StuckBatches(c *gin.Context) {
	olderThan := ctrl.stuckAfter
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid older_than"})
			return
		}
		olderThan = d
	}
	list, err := ctrl.payouts.StuckBatches(c.Request.Context(), olderThan)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": list, "older_than": olderThan.String()})
}
