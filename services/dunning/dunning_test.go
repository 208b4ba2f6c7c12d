package dunning

import (
	"context"
	"sync"
	"testing"
	"time"

	"lejio/models"
	"lejio/services/billing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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
		if reminder.ID == "" {
			reminder.ID = uuid.New().String()
		}
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
	sent []string // recipient per delivery
	err  error
}

func (s *fakeSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

func testInvoice(due time.Time) *models.Invoice {
	return &models.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "INV-2026-000001",
		Kind:          models.InvoiceKindRental,
		RenterName:    "Mette Hansen",
		RenterEmail:   "mette@example.dk",
		Status:        models.InvoiceStatusSent,
		AmountTotal:   3_750_00,
		AmountDue:     3_750_00,
		IssueDate:     due.AddDate(0, 0, -14),
		DueDate:       due,
	}
}

func newTestDunning() (*DefaultDunningService, *fakeReminderRepo, *fakeSender) {
	repo := newFakeReminderRepo()
	sender := &fakeSender{}
	return NewDunningService(repo, sender, zap.NewNop()), repo, sender
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("materializes the full ladder", func(t *testing.T) {
		svc, repo, _ := newTestDunning()
		inv := testInvoice(due)

		require.NoError(t, svc.Schedule(ctx, inv))

		reminders, err := repo.ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, reminders, 5)

		byType := map[models.ReminderType]models.PaymentReminder{}
		for _, reminder := range reminders {
			byType[reminder.ReminderType] = reminder
			assert.Equal(t, models.ReminderStatusPending, reminder.Status)
			assert.Equal(t, "mette@example.dk", reminder.RecipientEmail)
			assert.NotEmpty(t, reminder.EmailSubject)
			assert.NotEmpty(t, reminder.EmailBody)
		}

		assert.Equal(t, due.AddDate(0, 0, -7), byType[models.ReminderTypeDueDate].ScheduledDate)
		assert.Equal(t, due.AddDate(0, 0, 7), byType[models.ReminderTypeOverdue1].ScheduledDate)
		assert.Equal(t, due.AddDate(0, 0, 14), byType[models.ReminderTypeOverdue2].ScheduledDate)
		assert.Equal(t, due.AddDate(0, 0, 30), byType[models.ReminderTypeOverdue3].ScheduledDate)
		assert.Equal(t, due.AddDate(0, 0, 45), byType[models.ReminderTypeFinalNotice].ScheduledDate)

		assert.Equal(t, "Din faktura fra Lejio", byType[models.ReminderTypeDueDate].EmailSubject)
		assert.Equal(t, "Rykkerskrivelse: Betaling forfalden", byType[models.ReminderTypeOverdue1].EmailSubject)
		assert.Contains(t, byType[models.ReminderTypeOverdue2].EmailBody, "14 dage forfalden")
	})

	t.Run("rescheduling is a no-op", func(t *testing.T) {
		svc, repo, _ := newTestDunning()
		inv := testInvoice(due)

		require.NoError(t, svc.Schedule(ctx, inv))
		require.NoError(t, svc.Schedule(ctx, inv))

		reminders, err := repo.ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Len(t, reminders, 5)
	})

	t.Run("longer cadence gets distinct stages", func(t *testing.T) {
		svc, repo, _ := newTestDunning()
		svc.Config.DaysAfterOverdue = []int{3, 7, 14, 21}
		inv := testInvoice(due)

		require.NoError(t, svc.Schedule(ctx, inv))

		reminders, err := repo.ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Len(t, reminders, 6)

		types := map[models.ReminderType]bool{}
		for _, reminder := range reminders {
			types[reminder.ReminderType] = true
		}
		assert.True(t, types[models.ReminderType("overdue_4")])
	})

	t.Run("missing recipient rejected", func(t *testing.T) {
		svc, _, _ := newTestDunning()
		inv := testInvoice(due)
		inv.RenterEmail = ""

		err := svc.Schedule(ctx, inv)
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	pastDue := time.Now().AddDate(0, 0, -60)

	t.Run("delivers everything due", func(t *testing.T) {
		svc, repo, sender := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(pastDue)))

		sent, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, sent)
		assert.Zero(t, failed)
		assert.Len(t, sender.sent, 5)

		reminders, _ := repo.ListByInvoice(ctx, "inv-1")
		for _, reminder := range reminders {
			assert.Equal(t, models.ReminderStatusSent, reminder.Status)
			assert.NotNil(t, reminder.SentAt)
		}
	})

	t.Run("second sweep sends nothing", func(t *testing.T) {
		svc, _, sender := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(pastDue)))

		_, _, err := svc.Dispatch(ctx)
		require.NoError(t, err)

		sent, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Zero(t, failed)
		assert.Len(t, sender.sent, 5)
	})

	t.Run("claimed reminders are skipped", func(t *testing.T) {
		svc, repo, _ := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(pastDue)))

		reminders, _ := repo.ListByInvoice(ctx, "inv-1")
		claimed, err := repo.Claim(ctx, reminders[0].ID)
		require.NoError(t, err)
		require.True(t, claimed)

		sent, _, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, sent)
	})

	t.Run("stale claim from a dead dispatcher is retaken", func(t *testing.T) {
		svc, repo, sender := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(pastDue)))

		reminders, _ := repo.ListByInvoice(ctx, "inv-1")
		claimed, err := repo.Claim(ctx, reminders[0].ID)
		require.NoError(t, err)
		require.True(t, claimed)
		// The claiming dispatcher died without finalizing.
		repo.reminders[reminders[0].ID].UpdatedAt = time.Now().Add(-time.Hour)

		sent, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, sent)
		assert.Zero(t, failed)
		assert.Len(t, sender.sent, 5)
	})

	t.Run("delivery failure is terminal for the reminder", func(t *testing.T) {
		svc, repo, sender := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(pastDue)))
		sender.err = assert.AnError

		sent, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Equal(t, 5, failed)

		// Failed reminders are not retried by the next sweep.
		sender.err = nil
		sent, failed, err = svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Zero(t, failed)

		reminders, _ := repo.ListByInvoice(ctx, "inv-1")
		for _, reminder := range reminders {
			assert.Equal(t, models.ReminderStatusFailed, reminder.Status)
		}
	})

	t.Run("future reminders stay put", func(t *testing.T) {
		svc, _, _ := newTestDunning()
		require.NoError(t, svc.Schedule(ctx, testInvoice(time.Now().AddDate(0, 0, 30))))

		sent, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Zero(t, failed)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	svc, repo, _ := newTestDunning()
	require.NoError(t, svc.Schedule(ctx, testInvoice(time.Now().AddDate(0, 0, 14))))

	require.NoError(t, svc.Cancel(ctx, "inv-1"))

	reminders, _ := repo.ListByInvoice(ctx, "inv-1")
	require.Len(t, reminders, 5)
	for _, reminder := range reminders {
		assert.Equal(t, models.ReminderStatusCancelled, reminder.Status)
	}

	sent, failed, err := svc.Dispatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}
