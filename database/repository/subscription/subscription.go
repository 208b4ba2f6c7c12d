package subscriptionRepo

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

// SubscriptionRepository defines data access for recurring rentals.
type SubscriptionRepository interface {
	// Create inserts a new subscription.
	Create(ctx context.Context, sub *models.Subscription) error
	// GetByID retrieves a subscription by its ID.
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	// DueForBilling lists active subscriptions whose next cycle has
	// elapsed: never billed and at least one cycle old, or last billed a
	// full cycle ago or more.
	DueForBilling(ctx context.Context, today time.Time) ([]models.Subscription, error)
	// AdvanceCycle sets last_billed_date and increments the cycle counter,
	// but only if the counter still holds fromCycle. Returns false when
	// another sweep advanced the subscription first.
	AdvanceCycle(ctx context.Context, id string, fromCycle int, billedDate time.Time) (bool, error)
	// UpdateStatus transitions a subscription between active/paused/cancelled.
	UpdateStatus(ctx context.Context, id string, status models.SubscriptionStatus) error
}

type mongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo returns a new SubscriptionRepository instance using MongoDB.
func NewMongoSubscriptionRepo() SubscriptionRepository {
	db := database.MongoClient.Database("lejio")
	r := &mongoSubscriptionRepo{coll: db.Collection("subscriptions")}
	if err := r.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("subscription repo: %v", err))
	}
	return r
}

func (r *mongoSubscriptionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_billed_date", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new subscription.
func (r *mongoSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, sub)
	return err
}

// GetByID returns a subscription by its ID.
func (r *mongoSubscriptionRepo) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DueForBilling selects active subscriptions due for their next cycle.
// The cycle length is per subscription, so the cutoff is computed in the
// query per document via $expr.
func (r *mongoSubscriptionRepo) DueForBilling(ctx context.Context, today time.Time) ([]models.Subscription, error) {
	// last_billed_date + cycle days <= today, where a never-billed
	// subscription counts from created_at instead.
	filter := bson.M{
		"status": models.SubscriptionStatusActive,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$ifNull": bson.A{"$last_billed_date", "$created_at"}},
					bson.M{"$multiply": bson.A{"$billing_cycle_days", 24 * 60 * 60 * 1000}},
				}},
				today,
			},
		},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// AdvanceCycle closes one billing period. The counter guard makes the
// advance safe to re-drive: a stale sweep loses the conditional update.
func (r *mongoSubscriptionRepo) AdvanceCycle(ctx context.Context, id string, fromCycle int, billedDate time.Time) (bool, error) {
	filter := bson.M{"id": id, "completed_billing_cycles": fromCycle}
	update := bson.M{
		"$set": bson.M{
			"last_billed_date": billedDate,
			"updated_at":       time.Now(),
		},
		"$inc": bson.M{"completed_billing_cycles": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// UpdateStatus transitions a subscription to the given status.
func (r *mongoSubscriptionRepo) UpdateStatus(ctx context.Context, id string, status models.SubscriptionStatus) error {
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
