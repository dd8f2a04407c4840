package routes

import (
	"github.com/gin-gonic/gin"
	middleware "github.com/joy095/ledger/middlewares"
)

// RegisterWebhookRoutes mounts the provider callbacks. They authenticate by signature, not JWT.
func RegisterWebhookRoutes(r *gin.Engine, svc *Services) {
	if svc.Webhooks == nil {
		return
	}
	hooks := r.Group("/webhooks")
	hooks.Use(middleware.NewRateLimiter("300-1m", "webhooks"))
	{
		hooks.POST("/razorpay", svc.Webhooks.HandleRazorpay)
		hooks.POST("/payouts", svc.Webhooks.HandlePayout)
	}
}
