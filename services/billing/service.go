package billing

import (
	"context"
	"time"

	bookingRepo "lejio/database/repository/booking"
	invoiceRepo "lejio/database/repository/invoice"
	ledgerRepo "lejio/database/repository/ledger"
	"lejio/models"
	"lejio/services/notification"

	"go.uber.org/zap"
)

// DunningScheduler materializes the reminder sequence for a new invoice.
// Satisfied by the dunning service; declared here so billing does not
// depend on that package.
type DunningScheduler interface {
	Schedule(ctx context.Context, inv *models.Invoice) error
}

// Service turns rental facts and subscription cycles into priced invoices
// and posts the matching accounting records.
type Service interface {
	GenerateBookingInvoice(ctx context.Context, bookingID string, includeVAT bool) (*models.Invoice, error)
	GenerateSettlementInvoice(ctx context.Context, bookingID string, settlement models.Settlement) (*models.Invoice, error)
	GenerateSubscriptionInvoice(ctx context.Context, sub *models.Subscription, cycle int) (*models.Invoice, error)
	PostInvoice(ctx context.Context, inv *models.Invoice) error
}

// DefaultBillingService is the production implementation.
type DefaultBillingService struct {
	Invoices invoiceRepo.InvoiceRepository
	Bookings bookingRepo.BookingRepository
	Ledger   ledgerRepo.LedgerRepository
	Numbers  NumberSource
	Dunning  DunningScheduler
	Sender   notification.Sender
	Logger   *zap.Logger

	// Trade credit windows in days. Zero values fall back to the
	// defaults (14 for bookings, 30 for subscriptions).
	BookingDueDays      int
	SubscriptionDueDays int

	// VATRatePercent defaults to the Danish standard rate of 25.
	VATRatePercent int
}

func (s *DefaultBillingService) bookingDueDays() int {
	if s.BookingDueDays > 0 {
		return s.BookingDueDays
	}
	return 14
}

func (s *DefaultBillingService) subscriptionDueDays() int {
	if s.SubscriptionDueDays > 0 {
		return s.SubscriptionDueDays
	}
	return 30
}

func (s *DefaultBillingService) vatRatePercent() int64 {
	if s.VATRatePercent > 0 {
		return int64(s.VATRatePercent)
	}
	return 25
}

// vatOf returns the VAT on a subtotal in øre, rounded half up.
func (s *DefaultBillingService) vatOf(subtotal int64) int64 {
	return (subtotal*s.vatRatePercent() + 50) / 100
}

// postAccounting writes the revenue/receivable pair for a freshly issued
// invoice. The invoice is the durable fact; posting is idempotent, so a
// failure is logged and recovered by posting again.
func (s *DefaultBillingService) postAccounting(ctx context.Context, inv *models.Invoice) {
	if s.Ledger == nil {
		return
	}
	if err := s.PostInvoice(ctx, inv); err != nil {
		s.Logger.Error("failed to post invoice to ledger",
			zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
	}
}

// scheduleDunning materializes reminders for a freshly issued invoice.
// Scheduling is idempotent, so a failure here is logged rather than
// failing the invoice that already exists.
func (s *DefaultBillingService) scheduleDunning(ctx context.Context, inv *models.Invoice) {
	if s.Dunning == nil {
		return
	}
	if err := s.Dunning.Schedule(ctx, inv); err != nil {
		s.Logger.Error("failed to schedule dunning sequence",
			zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
	}
}

// sendInvoiceMail emails the invoice_sent notice. Delivery failures are
// logged only; the dunning sequence covers the follow-up.
func (s *DefaultBillingService) sendInvoiceMail(ctx context.Context, inv *models.Invoice) {
	if s.Sender == nil || inv.RenterEmail == "" {
		return
	}
	tpl, err := notification.Render(notification.TemplateInvoiceSent, map[string]string{
		"renter_name":    inv.RenterName,
		"invoice_number": inv.InvoiceNumber,
		"amount":         models.Kroner(inv.AmountTotal),
		"due_date":       inv.DueDate.Format("02-01-2006"),
		"status":         string(inv.Status),
		"invoice_link":   "https://lejio.dk/invoices/" + inv.ID,
	})
	if err != nil {
		s.Logger.Error("failed to render invoice mail", zap.Error(err))
		return
	}
	if err := s.Sender.Send(ctx, inv.RenterEmail, tpl.Subject, tpl.HTML, tpl.Text); err != nil {
		s.Logger.Warn("invoice mail not delivered",
			zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
	}
}

func issueDate() time.Time {
	return time.Now().Truncate(24 * time.Hour)
}
