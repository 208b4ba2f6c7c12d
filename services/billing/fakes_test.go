package billing

import (
	"context"
	"fmt"
	"sync"

	"lejio/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

type fakeInvoiceRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{byID: make(map[string]*models.Invoice)}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return duplicateKeyErr()
		}
		if inv.BookingID != "" && existing.BookingID == inv.BookingID && existing.Kind == inv.Kind {
			return duplicateKeyErr()
		}
		if inv.SubscriptionID != "" && existing.SubscriptionID == inv.SubscriptionID && existing.CycleNumber == inv.CycleNumber {
			return duplicateKeyErr()
		}
	}
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	stored := *inv
	r.byID[inv.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.byID[id]; ok {
		copied := *inv
		return &copied, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeInvoiceRepo) GetBySource(ctx context.Context, bookingID string, kind models.InvoiceKind) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byID {
		if inv.BookingID == bookingID && inv.Kind == kind {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeInvoiceRepo) GetBySubscriptionCycle(ctx context.Context, subscriptionID string, cycle int) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byID {
		if inv.SubscriptionID == subscriptionID && inv.CycleNumber == cycle {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeInvoiceRepo) ApplyPayment(ctx context.Context, id string, amount int64, transactionID string) (*models.Invoice, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, false, mongo.ErrNoDocuments
	}
	for _, tx := range inv.TransactionIDs {
		if tx == transactionID {
			copied := *inv
			return &copied, false, nil
		}
	}
	inv.TransactionIDs = append(inv.TransactionIDs, transactionID)
	inv.AmountPaid += amount
	inv.AmountDue = inv.AmountTotal - inv.AmountPaid
	if inv.AmountDue < 0 {
		inv.AmountDue = 0
	}
	if inv.AmountDue > 0 {
		inv.Status = models.InvoiceStatusPartiallyPaid
	} else {
		inv.Status = models.InvoiceStatusPaid
	}
	copied := *inv
	return &copied, true, nil
}

func (r *fakeInvoiceRepo) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	inv.Status = status
	return nil
}

type fakeBookingRepo struct {
	bookings map[string]*models.Booking
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := r.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []models.AccountingEntry
}

func (r *fakeLedgerRepo) InsertPair(ctx context.Context, entries []models.AccountingEntry) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, entry := range entries {
		dup := false
		for _, existing := range r.entries {
			if existing.InvoiceID == entry.InvoiceID && existing.EntryType == entry.EntryType {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		r.entries = append(r.entries, entry)
		inserted++
	}
	return inserted, nil
}

func (r *fakeLedgerRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.AccountingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AccountingEntry
	for _, entry := range r.entries {
		if entry.InvoiceID == invoiceID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// seqNumbers hands out sequential invoice numbers, optionally repeating the
// first few to simulate an allocator collision.
type seqNumbers struct {
	n       int
	repeats int
}

func (s *seqNumbers) Next(ctx context.Context) string {
	if s.repeats > 0 {
		s.repeats--
		return "INV-2026-000001"
	}
	s.n++
	return fmt.Sprintf("INV-2026-%06d", s.n)
}

type fakeScheduler struct {
	scheduled []*models.Invoice
	err       error
}

func (s *fakeScheduler) Schedule(ctx context.Context, inv *models.Invoice) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, inv)
	return nil
}

type sentMail struct {
	To      string
	Subject string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject})
	return nil
}
