package handlers

import (
	"io"
	"net/http"

	"lejio/config"
	"lejio/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler receives payment-gateway webhooks and applies them to
// invoices.
type PaymentHandler struct {
	Payments payment.Service
	Logger   *zap.Logger
}

func NewPaymentHandler(paymentSvc payment.Service, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: paymentSvc, Logger: logger}
}

// StripeWebhook verifies and applies a Stripe event. Unrecognized event
// types are acknowledged so Stripe stops retrying them.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	event, err := payment.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.Logger.Warn("rejected stripe webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if event.EventType == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.Payments.HandleEvent(c.Request.Context(), event); err != nil {
		h.Logger.Error("failed to apply payment event",
			zap.String("transaction_id", event.TransactionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
