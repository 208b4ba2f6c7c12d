package subscription

import (
	"context"
	"errors"
	"strconv"
	"time"

	subscriptionRepo "lejio/database/repository/subscription"
	"lejio/models"
	"lejio/services/billing"
	"lejio/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages recurring rentals: registering new subscriptions and
// advancing billing cycles for the ones that are due.
type Service interface {
	Register(ctx context.Context, sub *models.Subscription) error
	Advance(ctx context.Context) (created int, err error)
}

// DefaultSubscriptionService is the production implementation.
type DefaultSubscriptionService struct {
	Subscriptions subscriptionRepo.SubscriptionRepository
	Billing       billing.Service
	Sender        notification.Sender
	Logger        *zap.Logger
}

// Register stores a new subscription and sends the welcome mail. A zero
// billing cycle defaults to 30 days.
func (s *DefaultSubscriptionService) Register(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.BillingCycleDays <= 0 {
		sub.BillingCycleDays = 30
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}

	if err := s.Subscriptions.Create(ctx, sub); err != nil {
		return err
	}
	s.sendWelcomeMail(ctx, sub)
	return nil
}

// Advance runs one billing sweep: every active subscription with a full
// elapsed cycle gets the next cycle's invoice, its accounting pair, and its
// cycle counter advanced. Each subscription is isolated, so one failure
// does not stop the sweep. Returns how many invoices were created.
func (s *DefaultSubscriptionService) Advance(ctx context.Context) (int, error) {
	today := time.Now().Truncate(24 * time.Hour)
	due, err := s.Subscriptions.DueForBilling(ctx, today)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range due {
		sub := &due[i]
		if s.advanceOne(ctx, sub, today) {
			created++
		}
	}

	if len(due) > 0 {
		s.Logger.Info("subscription billing sweep complete",
			zap.Int("due", len(due)), zap.Int("invoiced", created))
	}
	return created, nil
}

// advanceOne bills a single subscription's next cycle. The cycle counter is
// advanced with a conditional update keyed on the counter value it was read
// at, so two concurrent sweeps cannot bill the same cycle twice. When the
// cycle's invoice already exists the counter is still advanced, which heals
// a sweep that crashed between invoice creation and the advance.
func (s *DefaultSubscriptionService) advanceOne(ctx context.Context, sub *models.Subscription, today time.Time) bool {
	cycle := sub.CompletedBillingCycles + 1

	_, err := s.Billing.GenerateSubscriptionInvoice(ctx, sub, cycle)
	invoiced := err == nil
	if err != nil {
		if !errors.Is(err, billing.ErrDuplicateInvoice) {
			s.Logger.Error("failed to invoice subscription cycle",
				zap.String("subscription_id", sub.ID),
				zap.Int("cycle", cycle), zap.Error(err))
			return false
		}
		s.Logger.Debug("cycle already invoiced, advancing counter only",
			zap.String("subscription_id", sub.ID), zap.Int("cycle", cycle))
	}

	advanced, err := s.Subscriptions.AdvanceCycle(ctx, sub.ID, sub.CompletedBillingCycles, today)
	if err != nil {
		s.Logger.Error("failed to advance billing cycle",
			zap.String("subscription_id", sub.ID), zap.Error(err))
		return invoiced
	}
	if !advanced {
		s.Logger.Warn("billing cycle advanced concurrently",
			zap.String("subscription_id", sub.ID), zap.Int("cycle", cycle))
	}
	return invoiced
}

func (s *DefaultSubscriptionService) sendWelcomeMail(ctx context.Context, sub *models.Subscription) {
	if s.Sender == nil || sub.RenterEmail == "" {
		return
	}

	nextBilling := sub.CreatedAt.AddDate(0, 0, sub.BillingCycleDays)
	tpl, err := notification.Render(notification.TemplateSubscriptionCreated, map[string]string{
		"renter_name":       sub.RenterName,
		"vehicle_name":      sub.VehicleName,
		"subscription_type": strconv.Itoa(sub.BillingCycleDays) + " dages cyklus",
		"daily_rate":        models.Kroner(sub.DailyRate),
		"next_billing_date": nextBilling.Format("02-01-2006"),
		"subscription_link": "https://lejio.dk/subscriptions/" + sub.ID,
	})
	if err != nil {
		s.Logger.Error("failed to render subscription mail", zap.Error(err))
		return
	}
	if err := s.Sender.Send(ctx, sub.RenterEmail, tpl.Subject, tpl.HTML, tpl.Text); err != nil {
		s.Logger.Warn("subscription mail not delivered",
			zap.String("subscription_id", sub.ID), zap.Error(err))
	}
}
