package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lejio/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

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
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
		if inv.SubscriptionID != "" && existing.SubscriptionID == inv.SubscriptionID && existing.CycleNumber == inv.CycleNumber {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
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

type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders map[string]*models.PaymentReminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[string]*models.PaymentReminder)}
}

func (r *fakeReminderRepo) CreateMany(ctx context.Context, reminders []models.PaymentReminder) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, reminder := range reminders {
		dup := false
		for _, existing := range r.reminders {
			if existing.InvoiceID == reminder.InvoiceID && existing.ReminderType == reminder.ReminderType {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		reminder.ID = uuid.New().String()
		stored := reminder
		r.reminders[stored.ID] = &stored
		inserted++
	}
	return inserted, nil
}

func (r *fakeReminderRepo) DuePending(ctx context.Context, now time.Time) ([]models.PaymentReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []models.PaymentReminder
	for _, reminder := range r.reminders {
		if reminder.Status == models.ReminderStatusPending && !reminder.ScheduledDate.After(now) {
			due = append(due, *reminder)
		}
	}
	return due, nil
}

func (r *fakeReminderRepo) Claim(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[id]
	if !ok || reminder.Status != models.ReminderStatusPending {
		return false, nil
	}
	reminder.Status = models.ReminderStatusSending
	reminder.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeReminderRepo) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released int64
	for _, reminder := range r.reminders {
		if reminder.Status == models.ReminderStatusSending && !reminder.UpdatedAt.After(cutoff) {
			reminder.Status = models.ReminderStatusPending
			reminder.UpdatedAt = time.Now()
			released++
		}
	}
	return released, nil
}

func (r *fakeReminderRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder := r.reminders[id]
	reminder.Status = models.ReminderStatusSent
	reminder.SentAt = &sentAt
	return nil
}

func (r *fakeReminderRepo) MarkFailed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders[id].Status = models.ReminderStatusFailed
	return nil
}

func (r *fakeReminderRepo) CancelPending(ctx context.Context, invoiceID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cancelled int64
	for _, reminder := range r.reminders {
		if reminder.InvoiceID == invoiceID && reminder.Status == models.ReminderStatusPending {
			reminder.Status = models.ReminderStatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *fakeReminderRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.PaymentReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentReminder
	for _, reminder := range r.reminders {
		if reminder.InvoiceID == invoiceID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

type seqNumbers struct {
	n int
}

func (s *seqNumbers) Next(ctx context.Context) string {
	s.n++
	return fmt.Sprintf("INV-2026-%06d", s.n)
}
