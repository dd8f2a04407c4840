package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/withdrawal_controller"
	"github.com/joy095/ledger/logger"
	middleware "github.com/joy095/ledger/middlewares"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterWithdrawalRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	withdrawalController, err := withdrawal_controller.NewWithdrawalController(svc.Withdrawals)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize withdrawal controller: %v", err)
	}

	api := r.Group("/withdrawals")
	api.Use(authMW, auth.RequireRole(utils.RoleWorker))
	{
		api.POST("", middleware.CombinedRateLimiter("withdrawals", "5-1m", "20-24h"), withdrawalController.CreateWithdrawal)
		api.GET("", withdrawalController.ListWithdrawals)
	}

	admin := r.Group("/admin/withdrawals")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.GET("", withdrawalController.AdminListWithdrawals)
		admin.PUT("/:id/approve", withdrawalController.ApproveWithdrawal)
		admin.PUT("/:id/reject", withdrawalController.RejectWithdrawal)
		admin.PUT("/:id/paid", withdrawalController.MarkWithdrawalPaid)
	}
}
