package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"lejio/database"
	"lejio/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReminderRepository defines data access for the dunning sequence.
type ReminderRepository interface {
	// CreateMany inserts reminders, skipping any that collide with the
	// unique (invoice_id, reminder_type) key. Returns the number actually
	// inserted; duplicate-key conflicts are a no-op, not an error.
	CreateMany(ctx context.Context, reminders []models.PaymentReminder) (int, error)
	// DuePending lists reminders that are still pending and whose
	// scheduled date has arrived.
	DuePending(ctx context.Context, now time.Time) ([]models.PaymentReminder, error)
	// Claim atomically moves one reminder from pending to sending.
	// Returns false when another sweep already claimed it.
	Claim(ctx context.Context, id string) (bool, error)
	// ReleaseStale returns reminders stuck in sending back to pending.
	// A claim older than the cutoff belongs to a dispatcher that died
	// between claiming and finalizing.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
	// MarkSent finalizes a delivered reminder.
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// MarkFailed finalizes a reminder whose delivery failed. Failed is
	// terminal unless explicitly reset.
	MarkFailed(ctx context.Context, id string) error
	// CancelPending transitions all still-pending reminders for an
	// invoice to cancelled. Returns how many were cancelled.
	CancelPending(ctx context.Context, invoiceID string) (int64, error)
	// ListByInvoice returns all reminders for an invoice.
	ListByInvoice(ctx context.Context, invoiceID string) ([]models.PaymentReminder, error)
}

type mongoReminderRepo struct {
	coll *mongo.Collection
}

// NewMongoReminderRepo returns a new ReminderRepository instance using MongoDB.
func NewMongoReminderRepo() ReminderRepository {
	db := database.MongoClient.Database("lejio")
	r := &mongoReminderRepo{coll: db.Collection("payment_reminders")}
	if err := r.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("reminder repo: %v", err))
	}
	return r
}

// ensureIndexes creates the (invoice_id, reminder_type) idempotency key and
// the sweep selection index.
func (r *mongoReminderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice_id", Value: 1}, {Key: "reminder_type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_date", Value: 1}},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
