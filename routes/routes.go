package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/controllers/webhook_controller"
	"github.com/joy095/ledger/services/ledger_service"
)

// Services bundles what the HTTP layer is built on.
type Services struct {
	Wallets         *ledger_service.WalletService
	Charges         *ledger_service.ChargeResolver
	Withdrawals     *ledger_service.WithdrawalService
	Settlements     *ledger_service.SettlementService
	Payouts         *ledger_service.PayoutOrchestrator
	CustomerWallets *ledger_service.CustomerWalletService
	BankAccounts    *ledger_service.BankAccountService
	Webhooks        *webhook_controller.WebhookController
	StuckBatchAfter time.Duration
}

// RegisterRoutes mounts every ledger route. authMW authenticates the caller and must set
// the user id and role in the context.
func RegisterRoutes(r *gin.Engine, authMW gin.HandlerFunc, svc *Services) {
	RegisterWalletRoutes(r, authMW, svc)
	RegisterWithdrawalRoutes(r, authMW, svc)
	RegisterSettlementRoutes(r, authMW, svc)
	RegisterPayoutBatchRoutes(r, authMW, svc)
	RegisterCustomerWalletRoutes(r, authMW, svc)
	RegisterBankAccountRoutes(r, authMW, svc)
	RegisterWebhookRoutes(r, svc)
}
