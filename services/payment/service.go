package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	invoiceRepo "lejio/database/repository/invoice"
	"lejio/models"
	"lejio/services/billing"
	"lejio/services/notification"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DunningCanceller tears down the reminder sequence once an invoice is
// settled. Satisfied by the dunning service.
type DunningCanceller interface {
	Cancel(ctx context.Context, invoiceID string) error
}

// Service applies payment-gateway events to invoices.
type Service interface {
	RecordPayment(ctx context.Context, invoiceID string, amount int64, transactionID string) (*models.Invoice, error)
	HandleEvent(ctx context.Context, event models.PaymentEvent) error
}

// DefaultPaymentService is the production implementation.
type DefaultPaymentService struct {
	Invoices invoiceRepo.InvoiceRepository
	Dunning  DunningCanceller
	Sender   notification.Sender
	Logger   *zap.Logger
}

// RecordPayment applies a received amount to an invoice. The repository
// applies the amount atomically and rejects a transaction id it has seen
// before, so concurrent or redelivered gateway events cannot double-count.
// Full payment cancels the pending dunning sequence and sends the receipt
// mail; a partial payment just moves the invoice to partially_paid.
func (s *DefaultPaymentService) RecordPayment(ctx context.Context, invoiceID string, amount int64, transactionID string) (*models.Invoice, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount is %d", billing.ErrNegativeAmount, amount)
	}

	inv, applied, err := s.Invoices.ApplyPayment(ctx, invoiceID, amount, transactionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invoice %s", billing.ErrNotFound, invoiceID)
		}
		return nil, fmt.Errorf("%w: apply payment: %v", billing.ErrPersistenceFailure, err)
	}
	if !applied {
		s.Logger.Info("transaction already applied, ignoring redelivery",
			zap.String("invoice", inv.InvoiceNumber),
			zap.String("transaction_id", transactionID))
		return inv, nil
	}

	if inv.AmountPaid > inv.AmountTotal {
		s.Logger.Warn("overpayment received",
			zap.String("invoice", inv.InvoiceNumber),
			zap.Int64("overpaid_by", inv.AmountPaid-inv.AmountTotal))
	}

	s.Logger.Info("payment recorded",
		zap.String("invoice", inv.InvoiceNumber),
		zap.Int64("amount", amount),
		zap.String("transaction_id", transactionID),
		zap.String("status", string(inv.Status)))

	if inv.Status == models.InvoiceStatusPaid {
		if s.Dunning != nil {
			if err := s.Dunning.Cancel(ctx, invoiceID); err != nil {
				s.Logger.Error("failed to cancel dunning after payment",
					zap.String("invoice_id", invoiceID), zap.Error(err))
			}
		}
		s.sendReceiptMail(ctx, inv, amount, transactionID)
	}
	return inv, nil
}

// HandleEvent routes a normalized gateway event.
func (s *DefaultPaymentService) HandleEvent(ctx context.Context, event models.PaymentEvent) error {
	switch event.EventType {
	case models.PaymentCompleted:
		if event.InvoiceID == "" {
			s.Logger.Warn("payment event without invoice reference",
				zap.String("transaction_id", event.TransactionID))
			return nil
		}
		_, err := s.RecordPayment(ctx, event.InvoiceID, event.Amount, event.TransactionID)
		if errors.Is(err, billing.ErrNotFound) {
			s.Logger.Warn("payment for unknown invoice",
				zap.String("invoice_id", event.InvoiceID),
				zap.String("transaction_id", event.TransactionID))
			return nil
		}
		return err
	case models.PaymentFailed, models.PaymentCancelled:
		s.Logger.Info("payment did not complete",
			zap.String("event_type", string(event.EventType)),
			zap.String("invoice_id", event.InvoiceID),
			zap.String("transaction_id", event.TransactionID))
		return nil
	default:
		s.Logger.Debug("ignoring payment event",
			zap.String("event_type", string(event.EventType)))
		return nil
	}
}

func (s *DefaultPaymentService) sendReceiptMail(ctx context.Context, inv *models.Invoice, amount int64, transactionID string) {
	if s.Sender == nil || inv.RenterEmail == "" {
		return
	}
	tpl, err := notification.Render(notification.TemplatePaymentSuccessful, map[string]string{
		"payer_name":     inv.RenterName,
		"amount":         models.Kroner(amount),
		"payment_date":   time.Now().Format("02-01-2006"),
		"transaction_id": transactionID,
	})
	if err != nil {
		s.Logger.Error("failed to render receipt mail", zap.Error(err))
		return
	}
	if err := s.Sender.Send(ctx, inv.RenterEmail, tpl.Subject, tpl.HTML, tpl.Text); err != nil {
		s.Logger.Warn("receipt mail not delivered",
			zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
	}
}
