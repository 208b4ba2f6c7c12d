package invoiceRepo

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

// InvoiceRepository defines data access for invoice aggregates.
type InvoiceRepository interface {
	// Create inserts a new invoice. Unique indexes on the invoice number
	// and on the billing source reject duplicates with a driver
	// duplicate-key error.
	Create(ctx context.Context, inv *models.Invoice) error
	// GetByID retrieves an invoice by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	// GetBySource retrieves the invoice billed for a booking and kind.
	GetBySource(ctx context.Context, bookingID string, kind models.InvoiceKind) (*models.Invoice, error)
	// GetBySubscriptionCycle retrieves the invoice billed for one
	// subscription billing cycle.
	GetBySubscriptionCycle(ctx context.Context, subscriptionID string, cycle int) (*models.Invoice, error)
	// ApplyPayment atomically adds one gateway payment to an invoice and
	// records its transaction id. The amount due is clamped at zero and
	// the status recomputed in the same update. A transaction id that was
	// already applied is a no-op: the current invoice is returned with
	// applied=false.
	ApplyPayment(ctx context.Context, id string, amount int64, transactionID string) (inv *models.Invoice, applied bool, err error)
	// UpdateStatus transitions an invoice to the given status.
	UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error
}

type mongoInvoiceRepo struct {
	coll *mongo.Collection
}

// NewMongoInvoiceRepo returns a new InvoiceRepository instance using MongoDB.
func NewMongoInvoiceRepo() InvoiceRepository {
	db := database.MongoClient.Database("lejio")
	r := &mongoInvoiceRepo{coll: db.Collection("invoices")}
	if err := r.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("invoice repo: %v", err))
	}
	return r
}

// ensureIndexes creates the uniqueness constraints that back invoice
// idempotency: one invoice per number, one per (booking, kind), one per
// (subscription, cycle).
func (r *mongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"booking_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "subscription_id", Value: 1}, {Key: "cycle_number", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"subscription_id": bson.M{"$type": "string"}}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
