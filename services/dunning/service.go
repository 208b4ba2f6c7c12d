package dunning

import (
	"context"

	reminderRepo "lejio/database/repository/reminder"
	"lejio/models"
	"lejio/services/notification"

	"go.uber.org/zap"
)

// Service owns the payment-reminder lifecycle: materializing the reminder
// sequence when an invoice is issued, delivering due reminders, and tearing
// the sequence down when the invoice is settled.
type Service interface {
	Schedule(ctx context.Context, inv *models.Invoice) error
	Cancel(ctx context.Context, invoiceID string) error
	Dispatch(ctx context.Context) (sent, failed int, err error)
}

// Config holds the reminder cadence, in days relative to the due date.
type Config struct {
	DaysBeforeDue        int
	DaysAfterOverdue     []int
	FinalNoticeAfterDays int
}

// DefaultConfig mirrors the standard Danish dunning ladder: a courtesy
// notice a week before due, three escalating reminders after, and a final
// notice before collections.
func DefaultConfig() Config {
	return Config{
		DaysBeforeDue:        7,
		DaysAfterOverdue:     []int{7, 14, 30},
		FinalNoticeAfterDays: 45,
	}
}

// DefaultDunningService is the production implementation.
type DefaultDunningService struct {
	Reminders reminderRepo.ReminderRepository
	Sender    notification.Sender
	Config    Config
	Logger    *zap.Logger
}

// NewDunningService wires a dunning service with the default cadence.
func NewDunningService(reminders reminderRepo.ReminderRepository, sender notification.Sender, logger *zap.Logger) *DefaultDunningService {
	return &DefaultDunningService{
		Reminders: reminders,
		Sender:    sender,
		Config:    DefaultConfig(),
		Logger:    logger,
	}
}
