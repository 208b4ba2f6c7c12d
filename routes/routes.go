package routes

import (
	"net/http"
	"time"

	"lejio/handlers"
	"lejio/middleware"
	"lejio/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates the handlers the route registrars need.
type HandlerBundle struct {
	Billing   *handlers.BillingHandler
	Payment   *handlers.PaymentHandler
	Scheduler *handlers.SchedulerHandler
}

// RegisterBillingRoutes registers invoice generation and subscription
// registration endpoints.
func RegisterBillingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/billing")
	{
		api.POST("/bookings/:id/invoice", hb.Billing.CreateBookingInvoice)
		api.POST("/bookings/:id/settlement", hb.Billing.CreateSettlementInvoice)
		api.POST("/subscriptions", hb.Billing.RegisterSubscription)
	}
}

// RegisterWebhookRoutes registers the payment-gateway and scheduler
// webhooks. The scheduler trigger requires the CRON_SECRET bearer token.
func RegisterWebhookRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/webhooks")
	{
		api.POST("/stripe", hb.Payment.StripeWebhook)
		api.POST("/scheduler", middleware.CronAuthMiddleware(), hb.Scheduler.TriggerSweep)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// periodic dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      "Hi, I'm Lejio billing",
			"dependencies": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBillingRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterHealthRoute(r)
}
