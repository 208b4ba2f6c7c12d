package handlers

import (
	"net/http"

	"lejio/models"
	"lejio/services/dunning"
	"lejio/services/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Scheduler event names accepted by the trigger endpoint.
const (
	EventProcessDunning             = "process_dunning"
	EventProcessSubscriptionBilling = "process_subscription_billing"
)

// SchedulerHandler exposes the periodic sweeps as a manually invokable
// endpoint, for external cron services and operator intervention. The
// asynq scheduler runs the same sweeps on its own cadence.
type SchedulerHandler struct {
	Dunning       dunning.Service
	Subscriptions subscription.Service
	Logger        *zap.Logger
}

func NewSchedulerHandler(dunningSvc dunning.Service, subscriptionSvc subscription.Service, logger *zap.Logger) *SchedulerHandler {
	return &SchedulerHandler{Dunning: dunningSvc, Subscriptions: subscriptionSvc, Logger: logger}
}

// TriggerSweep runs the requested sweep inline and reports its counts.
func (h *SchedulerHandler) TriggerSweep(c *gin.Context) {
	var payload models.SchedulerEvent
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	switch payload.Event {
	case EventProcessDunning:
		sent, failed, err := h.Dunning.Dispatch(c.Request.Context())
		if err != nil {
			h.Logger.Error("dunning sweep failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "dunning sweep failed"})
			return
		}
		c.JSON(http.StatusOK, models.SweepResult{RemindersSent: sent, RemindersFailed: failed})

	case EventProcessSubscriptionBilling:
		created, err := h.Subscriptions.Advance(c.Request.Context())
		if err != nil {
			h.Logger.Error("subscription billing sweep failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription billing sweep failed"})
			return
		}
		c.JSON(http.StatusOK, models.SweepResult{InvoicesCreated: created})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event", "event": payload.Event})
	}
}
