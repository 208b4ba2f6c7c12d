package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a recurring vehicle rental billed once per cycle.
// DailyRate is in øre. LastBilledDate is nil until the first cycle closes;
// CompletedBillingCycles only ever increases, and is advanced in the same
// step as invoice creation by the billing sweep.
type Subscription struct {
	ID                     string             `bson:"id" json:"id"`
	RenterID               string             `bson:"renter_id" json:"renter_id"`
	LessorID               string             `bson:"lessor_id" json:"lessor_id"`
	VehicleID              string             `bson:"vehicle_id" json:"vehicle_id"`
	RenterName             string             `bson:"renter_name,omitempty" json:"renter_name,omitempty"`
	RenterEmail            string             `bson:"renter_email" json:"renter_email"`
	VehicleName            string             `bson:"vehicle_name,omitempty" json:"vehicle_name,omitempty"`
	DailyRate              int64              `bson:"daily_rate" json:"daily_rate"`
	BillingCycleDays       int                `bson:"billing_cycle_days" json:"billing_cycle_days"`
	Status                 SubscriptionStatus `bson:"status" json:"status"`
	LastBilledDate         *time.Time         `bson:"last_billed_date,omitempty" json:"last_billed_date,omitempty"`
	CompletedBillingCycles int                `bson:"completed_billing_cycles" json:"completed_billing_cycles"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}
