package models

import "time"

// Booking carries the read-only rental facts the billing engine consumes.
// Booking CRUD itself lives outside this engine. Prices are in øre.
type Booking struct {
	ID                  string    `bson:"id" json:"id"`
	LessorID            string    `bson:"lessor_id" json:"lessor_id"`
	RenterID            string    `bson:"renter_id,omitempty" json:"renter_id,omitempty"`
	RenterName          string    `bson:"renter_name" json:"renter_name"`
	RenterEmail         string    `bson:"renter_email" json:"renter_email"`
	VehicleID           string    `bson:"vehicle_id" json:"vehicle_id"`
	VehicleMake         string    `bson:"vehicle_make,omitempty" json:"vehicle_make,omitempty"`
	VehicleModel        string    `bson:"vehicle_model,omitempty" json:"vehicle_model,omitempty"`
	VehicleRegistration string    `bson:"vehicle_registration,omitempty" json:"vehicle_registration,omitempty"`
	StartDate           time.Time `bson:"start_date" json:"start_date"`
	EndDate             time.Time `bson:"end_date" json:"end_date"`
	TotalPrice          int64     `bson:"total_price" json:"total_price"`
	DepositAmount       int64     `bson:"deposit_amount" json:"deposit_amount"`
	InsuranceSelected   bool      `bson:"deductible_insurance_selected" json:"deductible_insurance_selected"`
	InsurancePrice      int64     `bson:"deductible_insurance_price" json:"deductible_insurance_price"`
	FuelFee             int64     `bson:"fuel_fee" json:"fuel_fee"`
	Status              string    `bson:"status" json:"status"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
}
