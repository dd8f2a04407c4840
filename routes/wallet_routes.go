package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/wallet_controller"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterWalletRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	walletController, err := wallet_controller.NewWalletController(svc.Wallets, svc.Charges)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize wallet controller: %v", err)
	}

	api := r.Group("/wallet")
	api.Use(authMW, auth.RequireRole(utils.RoleWorker, utils.RoleCustomer))
	{
		api.GET("", walletController.GetWallet)
		api.GET("/transactions", walletController.ListTransactions)
	}

	r.GET("/charges/:charge_type/quote", authMW, walletController.QuoteFee)

	admin := r.Group("/admin")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.GET("/wallets/:owner_type/:owner_id", walletController.AdminGetWallet)
		admin.GET("/wallets/:owner_type/:owner_id/transactions", walletController.AdminListTransactions)
		admin.POST("/wallets/:owner_type/:owner_id/adjustments", walletController.AdjustWallet)
		admin.POST("/wallets/:owner_type/:owner_id/deactivate", walletController.DeactivateWallet)
		admin.POST("/earnings", walletController.RecordEarning)
		admin.POST("/charges", walletController.AddChargeConfiguration)
	}
}
