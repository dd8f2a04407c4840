package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/payout_batch_controller"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterPayoutBatchRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	payoutController, err := payout_batch_controller.NewPayoutBatchController(svc.Payouts, svc.StuckBatchAfter)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize payout batch controller: %v", err)
	}

	admin := r.Group("/admin/payout-batches")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.POST("", payoutController.CreateBatch)
		admin.GET("", payoutController.ListBatches)
		admin.GET("/stuck", payoutController.StuckBatches)
		admin.GET("/:id", payoutController.GetBatch)
		admin.GET("/:id/export", payoutController.ExportBatch)
		admin.POST("/:id/process", payoutController.ProcessBatch)
		admin.POST("/:id/confirm", payoutController.ConfirmBatch)
		admin.POST("/details/:detail_id/redrive", payoutController.RedriveDetail)
	}
}
