// File: lejio/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lejio/config"
	"lejio/cron"
	"lejio/database"
	bookingRepo "lejio/database/repository/booking"
	invoiceRepo "lejio/database/repository/invoice"
	ledgerRepo "lejio/database/repository/ledger"
	reminderRepo "lejio/database/repository/reminder"
	subscriptionRepo "lejio/database/repository/subscription"
	"lejio/handlers"
	"lejio/routes"
	"lejio/services/billing"
	"lejio/services/dunning"
	"lejio/services/notification"
	"lejio/services/payment"
	"lejio/services/subscription"
	"lejio/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitBillingCache()
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetBillingCacheClient()},
		database.MongoClient,
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	invoices := invoiceRepo.NewMongoInvoiceRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	reminders := reminderRepo.NewMongoReminderRepo()
	subscriptions := subscriptionRepo.NewMongoSubscriptionRepo()
	ledger := ledgerRepo.NewMongoLedgerRepo()

	// services.
	sender := notification.NewSMTPSender()

	dunningService := dunning.NewDunningService(reminders, sender, logger)
	dunningService.Config = dunning.Config{
		DaysBeforeDue:        config.AppConfig.DaysBeforeDue,
		DaysAfterOverdue:     config.AppConfig.DaysAfterOverdue,
		FinalNoticeAfterDays: config.AppConfig.FinalNoticeAfterDays,
	}

	billingService := &billing.DefaultBillingService{
		Invoices:            invoices,
		Bookings:            bookings,
		Ledger:              ledger,
		Numbers:             &billing.RedisNumberSource{Client: utils.GetBillingCacheClient(), Logger: logger},
		Dunning:             dunningService,
		Sender:              sender,
		Logger:              logger,
		BookingDueDays:      config.AppConfig.BookingDueDays,
		SubscriptionDueDays: config.AppConfig.SubscriptionDueDays,
		VATRatePercent:      config.AppConfig.VATRatePercent,
	}

	subscriptionService := &subscription.DefaultSubscriptionService{
		Subscriptions: subscriptions,
		Billing:       billingService,
		Sender:        sender,
		Logger:        logger,
	}

	paymentService := &payment.DefaultPaymentService{
		Invoices: invoices,
		Dunning:  dunningService,
		Sender:   sender,
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &routes.HandlerBundle{
		Billing:   handlers.NewBillingHandler(billingService, subscriptionService, logger),
		Payment:   handlers.NewPaymentHandler(paymentService, logger),
		Scheduler: handlers.NewSchedulerHandler(dunningService, subscriptionService, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the background sweeps.
	cron.InitBillingWorker(dunningService, subscriptionService, logger)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
