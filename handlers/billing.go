package handlers

import (
	"errors"
	"net/http"

	"lejio/models"
	"lejio/services/billing"
	"lejio/services/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BillingHandler exposes invoice generation for completed bookings and
// rental settlements, plus subscription registration.
type BillingHandler struct {
	Billing       billing.Service
	Subscriptions subscription.Service
	Logger        *zap.Logger
}

func NewBillingHandler(billingSvc billing.Service, subscriptionSvc subscription.Service, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{Billing: billingSvc, Subscriptions: subscriptionSvc, Logger: logger}
}

// CreateBookingInvoice generates the rental invoice for a booking.
func (h *BillingHandler) CreateBookingInvoice(c *gin.Context) {
	bookingID := c.Param("id")
	var input struct {
		IncludeVAT *bool `json:"include_vat"`
	}
	// Body is optional; VAT defaults to on.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
	}
	includeVAT := input.IncludeVAT == nil || *input.IncludeVAT

	inv, err := h.Billing.GenerateBookingInvoice(c.Request.Context(), bookingID, includeVAT)
	if err != nil {
		h.writeBillingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// CreateSettlementInvoice computes and invoices the post-rental settlement.
func (h *BillingHandler) CreateSettlementInvoice(c *gin.Context) {
	bookingID := c.Param("id")
	var facts billing.RentalFacts
	if err := c.ShouldBindJSON(&facts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	settlement, err := billing.ComputeSettlement(facts)
	if err != nil {
		h.writeBillingError(c, err)
		return
	}

	inv, err := h.Billing.GenerateSettlementInvoice(c.Request.Context(), bookingID, settlement)
	if err != nil {
		h.writeBillingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": inv, "settlement": settlement})
}

// RegisterSubscription creates a recurring rental subscription.
func (h *BillingHandler) RegisterSubscription(c *gin.Context) {
	var sub models.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Subscriptions.Register(c.Request.Context(), &sub); err != nil {
		h.Logger.Error("failed to register subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *BillingHandler) writeBillingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrDuplicateInvoice):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidDateRange), errors.Is(err, billing.ErrNegativeAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("billing operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing operation failed"})
	}
}
