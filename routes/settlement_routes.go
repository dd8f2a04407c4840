package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/settlement_controller"
	"github.com/joy095/ledger/logger"
	middleware "github.com/joy095/ledger/middlewares"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterSettlementRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	settlementController, err := settlement_controller.NewSettlementController(svc.Settlements)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize settlement controller: %v", err)
	}

	api := r.Group("/settlements")
	api.Use(authMW, auth.RequireRole(utils.RoleWorker))
	{
		api.POST("", middleware.NewRateLimiter("3-1h", "settlements"), settlementController.SettleWallet)
		api.GET("", settlementController.ListSettlements)
	}

	admin := r.Group("/admin/settlements")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.GET("", settlementController.AdminListSettlements)
		admin.POST("/run", settlementController.RunSweep)
		admin.PUT("/:id/processing", settlementController.MarkProcessing)
		admin.PUT("/:id/complete", settlementController.CompleteSettlement)
		admin.PUT("/:id/fail", settlementController.FailSettlement)
	}
}
