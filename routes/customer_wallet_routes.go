package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/customer_wallet_controller"
	"github.com/joy095/ledger/logger"
	middleware "github.com/joy095/ledger/middlewares"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterCustomerWalletRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	customerWalletController, err := customer_wallet_controller.NewCustomerWalletController(svc.CustomerWallets)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize customer wallet controller: %v", err)
	}

	api := r.Group("/customer-wallet")
	api.Use(authMW, auth.RequireRole(utils.RoleCustomer))
	{
		api.GET("", customerWalletController.GetWallet)
		api.GET("/transactions", customerWalletController.ListTransactions)
		api.GET("/min-topup", customerWalletController.MinimumTopup)
		api.POST("/topups", middleware.CombinedRateLimiter("topups", "10-1m", "50-1h"), customerWalletController.CreateTopup)
		api.POST("/pay", middleware.NewRateLimiter("30-1m", "wallet-pay"), customerWalletController.PayForBooking)
	}

	admin := r.Group("/admin/customer-wallet")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.POST("/topups/:id/confirm", customerWalletController.ConfirmTopup)
		admin.POST("/topups/:id/refund", customerWalletController.RefundTopupToSource)
		admin.POST("/refunds", customerWalletController.RefundBooking)
	}
}
