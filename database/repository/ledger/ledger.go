package ledgerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lejio/database"
	"lejio/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LedgerRepository defines data access for double-entry accounting records.
type LedgerRepository interface {
	// InsertPair writes a balanced entry pair. The unique
	// (invoice_id, entry_type) key makes reposting a no-op.
	InsertPair(ctx context.Context, entries []models.AccountingEntry) (int, error)
	// ListByInvoice returns the entries posted for an invoice.
	ListByInvoice(ctx context.Context, invoiceID string) ([]models.AccountingEntry, error)
}

type mongoLedgerRepo struct {
	coll *mongo.Collection
}

// NewMongoLedgerRepo returns a new LedgerRepository instance using MongoDB.
func NewMongoLedgerRepo() LedgerRepository {
	db := database.MongoClient.Database("lejio")
	r := &mongoLedgerRepo{coll: db.Collection("accounting_entries")}
	if err := r.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("ledger repo: %v", err))
	}
	return r
}

func (r *mongoLedgerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice_id", Value: 1}, {Key: "entry_type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "accounting_period", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// InsertPair writes the entries unordered; duplicate-key conflicts mean the
// invoice was already posted and are treated as success.
func (r *mongoLedgerRepo) InsertPair(ctx context.Context, entries []models.AccountingEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(entries))
	now := time.Now()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}
		entries[i].CreatedAt = now
		docs = append(docs, entries[i])
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

// ListByInvoice returns the entries posted for an invoice.
func (r *mongoLedgerRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.AccountingEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"invoice_id": invoiceID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.AccountingEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
