package dunning

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lejio/models"
	"lejio/services/billing"
	"lejio/services/notification"

	"go.uber.org/zap"
)

// Schedule materializes the full reminder sequence for an invoice, with
// subject and body rendered up front so the dispatcher only has to deliver.
// The unique (invoice_id, reminder_type) key makes re-scheduling a no-op.
func (s *DefaultDunningService) Schedule(ctx context.Context, inv *models.Invoice) error {
	if inv.RenterEmail == "" {
		return fmt.Errorf("%w: invoice %s has no recipient email", billing.ErrNotFound, inv.InvoiceNumber)
	}

	cfg := s.Config
	due := inv.DueDate

	var reminders []models.PaymentReminder
	number := 1
	add := func(typ models.ReminderType, scheduled time.Time, tpl notification.EmailTemplate) {
		reminders = append(reminders, models.PaymentReminder{
			InvoiceID:      inv.ID,
			ReminderNumber: number,
			ReminderType:   typ,
			ScheduledDate:  scheduled,
			Status:         models.ReminderStatusPending,
			EmailSubject:   tpl.Subject,
			EmailBody:      tpl.HTML,
			EmailBodyText:  tpl.Text,
			RecipientEmail: inv.RenterEmail,
		})
		number++
	}

	if cfg.DaysBeforeDue > 0 {
		tpl, err := s.renderUpcoming(inv)
		if err != nil {
			return err
		}
		add(models.ReminderTypeDueDate, due.AddDate(0, 0, -cfg.DaysBeforeDue), tpl)
	}

	for i, offset := range cfg.DaysAfterOverdue {
		tpl, err := s.renderOverdue(inv, offset)
		if err != nil {
			return err
		}
		add(overdueType(i+1), due.AddDate(0, 0, offset), tpl)
	}

	if cfg.FinalNoticeAfterDays > 0 {
		tpl, err := s.renderOverdue(inv, cfg.FinalNoticeAfterDays)
		if err != nil {
			return err
		}
		add(models.ReminderTypeFinalNotice, due.AddDate(0, 0, cfg.FinalNoticeAfterDays), tpl)
	}

	inserted, err := s.Reminders.CreateMany(ctx, reminders)
	if err != nil {
		return fmt.Errorf("%w: schedule reminders for %s: %v", billing.ErrPersistenceFailure, inv.InvoiceNumber, err)
	}
	if inserted < len(reminders) {
		s.Logger.Debug("dunning sequence already scheduled",
			zap.String("invoice", inv.InvoiceNumber),
			zap.Int("inserted", inserted))
	}
	return nil
}

// Cancel voids all still-pending reminders for an invoice. Reminders that
// already went out stay on record.
func (s *DefaultDunningService) Cancel(ctx context.Context, invoiceID string) error {
	cancelled, err := s.Reminders.CancelPending(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("%w: cancel reminders for invoice %s: %v", billing.ErrPersistenceFailure, invoiceID, err)
	}
	if cancelled > 0 {
		s.Logger.Info("cancelled pending reminders",
			zap.String("invoice_id", invoiceID),
			zap.Int64("cancelled", cancelled))
	}
	return nil
}

// overdueType names escalation stages by position, so a cadence with more
// than three post-due reminders still gets distinct idempotency keys.
func overdueType(n int) models.ReminderType {
	return models.ReminderType("overdue_" + strconv.Itoa(n))
}

func (s *DefaultDunningService) renderUpcoming(inv *models.Invoice) (notification.EmailTemplate, error) {
	return notification.Render(notification.TemplateInvoiceSent, map[string]string{
		"renter_name":    inv.RenterName,
		"invoice_number": inv.InvoiceNumber,
		"amount":         models.Kroner(inv.AmountTotal),
		"due_date":       inv.DueDate.Format("02-01-2006"),
		"status":         string(inv.Status),
		"invoice_link":   "https://lejio.dk/invoices/" + inv.ID,
	})
}

func (s *DefaultDunningService) renderOverdue(inv *models.Invoice, daysOverdue int) (notification.EmailTemplate, error) {
	return notification.Render(notification.TemplatePaymentReminderOverdue, map[string]string{
		"renter_name":    inv.RenterName,
		"invoice_number": inv.InvoiceNumber,
		"days_overdue":   strconv.Itoa(daysOverdue),
		"due_date":       inv.DueDate.Format("02-01-2006"),
		"amount_due":     models.Kroner(inv.AmountDue),
		"payment_link":   "https://lejio.dk/invoices/" + inv.ID + "/pay",
	})
}
