package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lejio/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// GenerateBookingInvoice prices a completed booking into an invoice. The
// deductible-insurance fee is split out as a platform line item and kept
// out of the lessor's taxable subtotal.
func (s *DefaultBillingService) GenerateBookingInvoice(ctx context.Context, bookingID string, includeVAT bool) (*models.Invoice, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, fmt.Errorf("%w: fetch booking: %v", ErrPersistenceFailure, err)
	}

	if existing, err := s.Invoices.GetBySource(ctx, bookingID, models.InvoiceKindRental); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: booking %s already invoiced as %s", ErrDuplicateInvoice, bookingID, existing.InvoiceNumber)
	}

	days, err := RentalDays(booking.StartDate, booking.EndDate)
	if err != nil {
		return nil, err
	}

	var insuranceFee int64
	if booking.InsuranceSelected {
		insuranceFee = InsuranceFee(days, booking.InsurancePrice)
	}
	rentalIncome := booking.TotalPrice - insuranceFee
	if rentalIncome < 0 {
		return nil, fmt.Errorf("%w: rental income is %d", ErrNegativeAmount, rentalIncome)
	}

	lineItems := []models.LineItem{{
		Description: vehicleDescription(booking),
		Quantity:    days,
		Unit:        "dage",
		UnitPrice:   rentalIncome / int64(days),
		LineTotal:   rentalIncome,
	}}
	if insuranceFee > 0 {
		lineItems = append(lineItems, models.LineItem{
			Description: "Nul selvrisiko-forsikring (Lejio)",
			Quantity:    days,
			Unit:        "dage",
			UnitPrice:   insuranceFee / int64(days),
			LineTotal:   insuranceFee,
			PlatformFee: true,
		})
	}
	if booking.FuelFee > 0 {
		lineItems = append(lineItems, models.LineItem{
			Description: "Brændstofgebyr",
			Quantity:    1,
			Unit:        "stk",
			UnitPrice:   booking.FuelFee,
			LineTotal:   booking.FuelFee,
		})
	}

	subtotal := lessorSubtotal(lineItems)
	var vat int64
	if includeVAT {
		vat = s.vatOf(subtotal)
	}

	issued := issueDate()
	inv := &models.Invoice{
		Kind:        models.InvoiceKindRental,
		LessorID:    booking.LessorID,
		RenterID:    booking.RenterID,
		RenterName:  booking.RenterName,
		RenterEmail: booking.RenterEmail,
		BookingID:   bookingID,
		Status:      models.InvoiceStatusSent,
		Subtotal:    subtotal,
		VATAmount:   vat,
		AmountTotal: subtotal + vat,
		AmountPaid:  0,
		AmountDue:   subtotal + vat,
		IssueDate:   issued,
		DueDate:     issued.AddDate(0, 0, s.bookingDueDays()),
		LineItems:   lineItems,
	}

	if err := s.persistInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.postAccounting(ctx, inv)
	s.scheduleDunning(ctx, inv)
	s.sendInvoiceMail(ctx, inv)
	return inv, nil
}

// GenerateSettlementInvoice turns a computed settlement into an invoice for
// whatever the deposit did not cover. Settlement items carry no VAT. When
// the deposit covered everything the invoice is born paid and no dunning
// sequence is scheduled.
func (s *DefaultBillingService) GenerateSettlementInvoice(ctx context.Context, bookingID string, settlement models.Settlement) (*models.Invoice, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, fmt.Errorf("%w: fetch booking: %v", ErrPersistenceFailure, err)
	}

	if existing, err := s.Invoices.GetBySource(ctx, bookingID, models.InvoiceKindSettlement); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: booking %s already settled as %s", ErrDuplicateInvoice, bookingID, existing.InvoiceNumber)
	}

	var lineItems []models.LineItem
	addFee := func(description string, amount int64) {
		if amount > 0 {
			lineItems = append(lineItems, models.LineItem{
				Description: description,
				Quantity:    1,
				Unit:        "stk",
				UnitPrice:   amount,
				LineTotal:   amount,
			})
		}
	}
	addFee("Km-overskridelse", settlement.KmOverageFee)
	addFee("Brændstofgebyr", settlement.FuelFee)
	addFee("Udvendig rengøring", settlement.ExteriorCleaningFee)
	addFee("Indvendig rengøring", settlement.InteriorCleaningFee)
	for _, fine := range settlement.Fines {
		addFee(fineDescription(fine), fine.Total)
	}
	if settlement.DepositRefund > 0 {
		lineItems = append(lineItems, models.LineItem{
			Description: "Depositum refunderet",
			Quantity:    1,
			Unit:        "stk",
			UnitPrice:   -settlement.DepositRefund,
			LineTotal:   -settlement.DepositRefund,
		})
	}

	totalDue := settlement.AmountDueFromRenter
	status := models.InvoiceStatusSent
	if totalDue == 0 {
		status = models.InvoiceStatusPaid
	}

	issued := issueDate()
	inv := &models.Invoice{
		Kind:        models.InvoiceKindSettlement,
		LessorID:    booking.LessorID,
		RenterID:    booking.RenterID,
		RenterName:  booking.RenterName,
		RenterEmail: booking.RenterEmail,
		BookingID:   bookingID,
		Status:      status,
		Subtotal:    settlement.TotalCharges,
		VATAmount:   0,
		AmountTotal: totalDue,
		AmountPaid:  0,
		AmountDue:   totalDue,
		IssueDate:   issued,
		DueDate:     issued.AddDate(0, 0, s.bookingDueDays()),
		LineItems:   lineItems,
	}

	// Settlement numbers carry the AFR (afregning) suffix.
	if err := s.persistInvoiceWithSuffix(ctx, inv, "-AFR"); err != nil {
		return nil, err
	}

	s.postAccounting(ctx, inv)
	if totalDue > 0 {
		s.scheduleDunning(ctx, inv)
		s.sendInvoiceMail(ctx, inv)
	}
	return inv, nil
}

// GenerateSubscriptionInvoice bills one subscription cycle.
func (s *DefaultBillingService) GenerateSubscriptionInvoice(ctx context.Context, sub *models.Subscription, cycle int) (*models.Invoice, error) {
	if existing, err := s.Invoices.GetBySubscriptionCycle(ctx, sub.ID, cycle); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: subscription %s cycle %d already invoiced as %s",
			ErrDuplicateInvoice, sub.ID, cycle, existing.InvoiceNumber)
	}

	if sub.DailyRate < 0 {
		return nil, fmt.Errorf("%w: daily rate is %d", ErrNegativeAmount, sub.DailyRate)
	}
	billingAmount := sub.DailyRate * int64(sub.BillingCycleDays)
	vat := s.vatOf(billingAmount)

	issued := issueDate()
	inv := &models.Invoice{
		Kind:           models.InvoiceKindSubscription,
		LessorID:       sub.LessorID,
		RenterID:       sub.RenterID,
		RenterName:     sub.RenterName,
		RenterEmail:    sub.RenterEmail,
		SubscriptionID: sub.ID,
		CycleNumber:    cycle,
		Status:         models.InvoiceStatusSent,
		Subtotal:       billingAmount,
		VATAmount:      vat,
		AmountTotal:    billingAmount + vat,
		AmountPaid:     0,
		AmountDue:      billingAmount + vat,
		IssueDate:      issued,
		DueDate:        issued.AddDate(0, 0, s.subscriptionDueDays()),
		LineItems: []models.LineItem{{
			Description: fmt.Sprintf("Abonnement: %s (%d dages periode)", subscriptionDescription(sub), sub.BillingCycleDays),
			Quantity:    sub.BillingCycleDays,
			Unit:        "dage",
			UnitPrice:   sub.DailyRate,
			LineTotal:   billingAmount,
		}},
	}

	if err := s.persistInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.postAccounting(ctx, inv)
	s.scheduleDunning(ctx, inv)
	s.sendInvoiceMail(ctx, inv)
	return inv, nil
}

// persistInvoice allocates a number and inserts the invoice. A collision on
// the invoice number retries allocation; a collision on the billing source
// means another writer billed it first and surfaces as ErrDuplicateInvoice.
func (s *DefaultBillingService) persistInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.persistInvoiceWithSuffix(ctx, inv, "")
}

func (s *DefaultBillingService) persistInvoiceWithSuffix(ctx context.Context, inv *models.Invoice, suffix string) error {
	const maxAttempts = 3
	now := time.Now()
	inv.SentAt = &now

	for attempt := 1; ; attempt++ {
		inv.InvoiceNumber = s.Numbers.Next(ctx) + suffix
		err := s.Invoices.Create(ctx, inv)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: create invoice: %v", ErrPersistenceFailure, err)
		}
		if s.sourceExists(ctx, inv) {
			return fmt.Errorf("%w: source of %s already billed", ErrDuplicateInvoice, inv.InvoiceNumber)
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: invoice number collision persisted after %d attempts", ErrPersistenceFailure, maxAttempts)
		}
		s.Logger.Warn("invoice number collision, reallocating",
			zap.String("invoice_number", inv.InvoiceNumber))
	}
}

func (s *DefaultBillingService) sourceExists(ctx context.Context, inv *models.Invoice) bool {
	if inv.BookingID != "" {
		existing, err := s.Invoices.GetBySource(ctx, inv.BookingID, inv.Kind)
		return err == nil && existing != nil && existing.ID != inv.ID
	}
	existing, err := s.Invoices.GetBySubscriptionCycle(ctx, inv.SubscriptionID, inv.CycleNumber)
	return err == nil && existing != nil && existing.ID != inv.ID
}

// lessorSubtotal sums line totals excluding pass-through platform items.
func lessorSubtotal(items []models.LineItem) int64 {
	var subtotal int64
	for _, item := range items {
		if !item.PlatformFee {
			subtotal += item.LineTotal
		}
	}
	return subtotal
}

func vehicleDescription(b *models.Booking) string {
	brand := b.VehicleMake
	if brand == "" {
		brand = "Køretøj"
	}
	reg := b.VehicleRegistration
	if reg == "" {
		reg = "N/A"
	}
	return strings.TrimSpace(fmt.Sprintf("Leje af %s %s (%s)", brand, b.VehicleModel, reg))
}

func subscriptionDescription(sub *models.Subscription) string {
	if sub.VehicleName != "" {
		return sub.VehicleName
	}
	return "køretøj " + sub.VehicleID
}

var fineTypeLabels = map[string]string{
	"parking": "P-afgift",
	"speed":   "Fartbøde",
	"toll":    "Vejafgift",
	"other":   "Bøde",
}

func fineDescription(fine models.Fine) string {
	label, ok := fineTypeLabels[fine.Type]
	if !ok {
		label = "Bøde"
	}
	desc := fmt.Sprintf("%s (%s)", label, fine.Date)
	if fine.Description != "" {
		desc += " - " + fine.Description
	}
	return desc
}
