package billing

import (
	"context"
	"fmt"
	"time"

	"lejio/models"

	"go.uber.org/zap"
)

// PostInvoice writes the double-entry pair for an issued invoice: a credit
// on the revenue account and a matching debit on accounts receivable.
// Posting the same invoice twice is a no-op.
func (s *DefaultBillingService) PostInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.Subtotal < 0 {
		return fmt.Errorf("%w: subtotal is %d", ErrNegativeAmount, inv.Subtotal)
	}
	if inv.Subtotal == 0 {
		return nil
	}

	revenueCode := models.AccountCodeRentalRevenue
	if inv.Kind == models.InvoiceKindSubscription {
		revenueCode = models.AccountCodeSubscriptionRevenue
	}

	period := inv.IssueDate.Format("2006-01")
	postingDate := time.Now()

	pair := []models.AccountingEntry{
		{
			InvoiceID:        inv.ID,
			SubscriptionID:   inv.SubscriptionID,
			LessorID:         inv.LessorID,
			EntryType:        models.EntryTypeRevenue,
			AccountCode:      revenueCode,
			CreditAmount:     inv.Subtotal,
			AccountingPeriod: period,
			PostingDate:      postingDate,
			Status:           models.EntryStatusPosted,
		},
		{
			InvoiceID:        inv.ID,
			SubscriptionID:   inv.SubscriptionID,
			LessorID:         inv.LessorID,
			EntryType:        models.EntryTypeReceivable,
			AccountCode:      models.AccountCodeReceivable,
			DebitAmount:      inv.Subtotal,
			AccountingPeriod: period,
			PostingDate:      postingDate,
			Status:           models.EntryStatusPosted,
		},
	}

	inserted, err := s.Ledger.InsertPair(ctx, pair)
	if err != nil {
		return fmt.Errorf("%w: post invoice %s: %v", ErrPersistenceFailure, inv.InvoiceNumber, err)
	}
	if inserted < len(pair) {
		s.Logger.Debug("invoice already posted",
			zap.String("invoice", inv.InvoiceNumber),
			zap.String("period", period))
	}
	return nil
}
