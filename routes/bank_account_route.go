package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/bank_account_controller"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/utils"
)

func RegisterBankAccountRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	bankAccountController, err := bank_account_controller.NewBankAccountController(svc.BankAccounts)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize bank account controller: %v", err)
	}

	api := r.Group("/bank-accounts")
	api.Use(authMW, auth.RequireRole(utils.RoleWorker))
	{
		api.POST("", bankAccountController.CreateBankAccount)
		api.GET("", bankAccountController.ListBankAccounts)
		api.GET("/:bank_id", bankAccountController.GetBankAccount)
		api.PUT("/:bank_id/primary", bankAccountController.SetPrimaryBankAccount)
		api.DELETE("/:bank_id", bankAccountController.DeleteBankAccount)
	}

	admin := r.Group("/admin/users/:user_id/bank-accounts")
	admin.Use(authMW, auth.RequireRole(utils.RoleAdmin))
	{
		admin.PUT("/:bank_id/verify", bankAccountController.VerifyBankAccount)
	}
}
