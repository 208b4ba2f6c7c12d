package dunning

import (
	"context"
	"fmt"
	"time"

	"lejio/services/billing"

	"go.uber.org/zap"
)

// staleClaimAge is how long a sending claim may stand before a later sweep
// assumes its dispatcher died and takes the reminder back.
const staleClaimAge = 15 * time.Minute

// Dispatch delivers every reminder that is pending and due. Each reminder
// is claimed with a conditional pending-to-sending update before delivery,
// so concurrent sweeps never send the same reminder twice. A delivery
// failure marks that reminder failed and the sweep moves on.
func (s *DefaultDunningService) Dispatch(ctx context.Context) (int, int, error) {
	released, err := s.Reminders.ReleaseStale(ctx, time.Now().Add(-staleClaimAge))
	if err != nil {
		s.Logger.Warn("failed to release stale reminder claims", zap.Error(err))
	} else if released > 0 {
		s.Logger.Info("released stale reminder claims", zap.Int64("released", released))
	}

	due, err := s.Reminders.DuePending(ctx, time.Now())
	if err != nil {
		return 0, 0, err
	}

	var sent, failed int
	for _, reminder := range due {
		claimed, err := s.Reminders.Claim(ctx, reminder.ID)
		if err != nil {
			s.Logger.Error("failed to claim reminder",
				zap.String("reminder_id", reminder.ID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		if err := s.Sender.Send(ctx, reminder.RecipientEmail, reminder.EmailSubject, reminder.EmailBody, reminder.EmailBodyText); err != nil {
			s.Logger.Warn("reminder delivery failed",
				zap.String("reminder_id", reminder.ID),
				zap.String("invoice_id", reminder.InvoiceID),
				zap.String("type", string(reminder.ReminderType)),
				zap.Error(fmt.Errorf("%w: %v", billing.ErrDeliveryFailure, err)))
			if markErr := s.Reminders.MarkFailed(ctx, reminder.ID); markErr != nil {
				s.Logger.Error("failed to mark reminder failed",
					zap.String("reminder_id", reminder.ID), zap.Error(markErr))
			}
			failed++
			continue
		}

		if err := s.Reminders.MarkSent(ctx, reminder.ID, time.Now()); err != nil {
			s.Logger.Error("reminder sent but not recorded",
				zap.String("reminder_id", reminder.ID), zap.Error(err))
		}
		sent++
	}

	if sent > 0 || failed > 0 {
		s.Logger.Info("dunning sweep complete",
			zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent, failed, nil
}
