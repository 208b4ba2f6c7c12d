package reminderRepo

import (
	"context"
	"errors"
	"time"

	"lejio/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateMany inserts the reminder batch unordered so one duplicate does not
// stop the rest. Duplicate-key errors are swallowed: the reminder for that
// (invoice, type) already exists and scheduling stays idempotent.
func (r *mongoReminderRepo) CreateMany(ctx context.Context, reminders []models.PaymentReminder) (int, error) {
	if len(reminders) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(reminders))
	now := time.Now()
	for i := range reminders {
		if reminders[i].ID == "" {
			reminders[i].ID = uuid.New().String()
		}
		reminders[i].CreatedAt = now
		reminders[i].UpdatedAt = now
		docs = append(docs, reminders[i])
	}

	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			for _, we := range bwe.WriteErrors {
				if !mongo.IsDuplicateKeyError(we.WriteError) {
					return inserted, err
				}
			}
			return inserted, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return inserted, nil
		}
		return inserted, err
	}
	return inserted, nil
}

// DuePending lists pending reminders whose scheduled date has arrived.
func (r *mongoReminderRepo) DuePending(ctx context.Context, now time.Time) ([]models.PaymentReminder, error) {
	filter := bson.M{
		"status":         models.ReminderStatusPending,
		"scheduled_date": bson.M{"$lte": now},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reminders []models.PaymentReminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// Claim conditionally flips pending to sending so that overlapping sweeps
// deliver each reminder at most once.
func (r *mongoReminderRepo) Claim(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.ReminderStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     models.ReminderStatusSending,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseStale flips sending claims older than the cutoff back to pending.
// The claim timestamp is updated_at, which Claim sets.
func (r *mongoReminderRepo) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":     models.ReminderStatusSending,
		"updated_at": bson.M{"$lte": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.ReminderStatusPending,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkSent finalizes a delivered reminder.
func (r *mongoReminderRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"status":     models.ReminderStatusSent,
		"sent_at":    sentAt,
		"updated_at": time.Now(),
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// MarkFailed finalizes a reminder whose delivery failed.
func (r *mongoReminderRepo) MarkFailed(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"status":     models.ReminderStatusFailed,
		"updated_at": time.Now(),
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// CancelPending cancels every reminder for the invoice that has not fired.
func (r *mongoReminderRepo) CancelPending(ctx context.Context, invoiceID string) (int64, error) {
	filter := bson.M{"invoice_id": invoiceID, "status": models.ReminderStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     models.ReminderStatusCancelled,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListByInvoice returns all reminders for an invoice ordered by stage.
func (r *mongoReminderRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.PaymentReminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reminder_number", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"invoice_id": invoiceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reminders []models.PaymentReminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}
