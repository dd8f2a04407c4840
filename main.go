package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/config"
	"github.com/joy095/ledger/config/db"
	redisclient "github.com/joy095/ledger/config/redis"
	"github.com/joy095/ledger/controllers/webhook_controller"
	"github.com/joy095/ledger/logger"
	middleware "github.com/joy095/ledger/middlewares"
	"github.com/joy095/ledger/middlewares/auth"
	"github.com/joy095/ledger/middlewares/cors"
	"github.com/joy095/ledger/repository/postgres"
	"github.com/joy095/ledger/routes"
	"github.com/joy095/ledger/services/ledger_service"
	"github.com/joy095/ledger/utils"
	"github.com/joy095/ledger/utils/mail"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.ErrorLogger.Fatalf("Failed to ensure schema: %v", err)
	}

	if err := redisclient.Init(ctx, cfg.RedisURL); err != nil {
		logger.WarnLogger.Warnf("Running without Redis: %v", err)
	}
	defer redisclient.CloseRedis()

	store := postgres.NewStore(pool)

	var gateway clients.PaymentGateway
	var paymentVerifier webhook_controller.PaymentVerifier
	if cfg.Razorpay.KeyID != "" {
		rzp := clients.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret)
		gateway, paymentVerifier = rzp, rzp
	} else {
		logger.WarnLogger.Warn("RAZORPAY_KEY_ID not set; gateway top-ups are disabled")
	}

	var transfers clients.TransferInitiator
	var payoutVerifier webhook_controller.PayoutVerifier
	if cf, err := clients.NewCashfreePayoutClient(cfg.Cashfree.ClientID, cfg.Cashfree.ClientSecret, cfg.Cashfree.BaseURL, cfg.Cashfree.WebhookSecret); err == nil {
		transfers, payoutVerifier = cf, cf
	} else {
		logger.WarnLogger.Warnf("Automatic payouts disabled: %v", err)
	}

	var notifier ledger_service.Notifier
	if cfg.SMTP.Host != "" {
		notifier = mail.NewMailer(cfg.SMTP, cfg.AdminEmail, store)
	}

	var deduper webhook_controller.Deduper
	if rdb, err := redisclient.GetRedisClient(); err == nil {
		deduper = webhook_controller.NewRedisDeduper(rdb, 72*time.Hour)
	}

	svc := &routes.Services{
		Wallets:         ledger_service.NewWalletService(store),
		Charges:         ledger_service.NewChargeResolver(store),
		Withdrawals:     ledger_service.NewWithdrawalService(store, notifier),
		Settlements:     ledger_service.NewSettlementService(store),
		Payouts:         ledger_service.NewPayoutOrchestrator(store, transfers, cfg.PayoutWorkers, notifier),
		CustomerWallets: ledger_service.NewCustomerWalletService(store, gateway),
		BankAccounts:    ledger_service.NewBankAccountService(store),
		StuckBatchAfter: cfg.StuckBatchAfter,
	}
	svc.Webhooks, err = webhook_controller.NewWebhookController(svc.CustomerWallets, svc.Payouts,
		paymentVerifier, payoutVerifier, store, deduper)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize webhook controller: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinLogger())
	r.Use(cors.CorsMiddleware(cfg.CORSOrigins))

	routes.RegisterRoutes(r, auth.AuthMiddleware(utils.GetJWTSecret()), svc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok from ledger service"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.InfoLogger.Infof("Ledger service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.InfoLogger.Info("Server exiting")
}
