package invoiceRepo

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

// Create inserts a new invoice aggregate.
func (r *mongoInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, inv)
	return err
}

// GetByID returns an invoice by its ID.
func (r *mongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetBySource returns the invoice created for a booking with the given kind.
func (r *mongoInvoiceRepo) GetBySource(ctx context.Context, bookingID string, kind models.InvoiceKind) (*models.Invoice, error) {
	var inv models.Invoice
	filter := bson.M{"booking_id": bookingID, "kind": kind}
	if err := r.coll.FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetBySubscriptionCycle returns the invoice created for one billing cycle.
func (r *mongoInvoiceRepo) GetBySubscriptionCycle(ctx context.Context, subscriptionID string, cycle int) (*models.Invoice, error) {
	var inv models.Invoice
	filter := bson.M{"subscription_id": subscriptionID, "cycle_number": cycle}
	if err := r.coll.FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ApplyPayment increments the paid amount and derives the due amount and
// status in a single pipeline update. The filter excludes invoices that
// already carry the transaction id, so a redelivered event matches nothing
// and the stored amounts are untouched.
func (r *mongoInvoiceRepo) ApplyPayment(ctx context.Context, id string, amount int64, transactionID string) (*models.Invoice, bool, error) {
	filter := bson.M{"id": id, "transaction_ids": bson.M{"$ne": transactionID}}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"amount_paid": bson.M{"$add": bson.A{"$amount_paid", amount}},
			"transaction_ids": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$transaction_ids", bson.A{}}},
				bson.A{transactionID},
			}},
			"updated_at": time.Now(),
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"amount_due": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$amount_total", "$amount_paid"}}}},
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$amount_due", 0}},
				models.InvoiceStatusPartiallyPaid,
				models.InvoiceStatusPaid,
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var inv models.Invoice
	err := r.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&inv)
	if err == nil {
		return &inv, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	// No match: either the invoice is unknown or the transaction was
	// already applied.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateStatus transitions an invoice to the given status.
func (r *mongoInvoiceRepo) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
