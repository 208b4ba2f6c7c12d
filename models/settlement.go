package models

// Fine is a single penalty charged back to the renter during settlement.
// Amounts are in øre.
type Fine struct {
	Type        string `bson:"type" json:"type"` // parking, speed, toll, other
	Amount      int64  `bson:"amount" json:"amount"`
	AdminFee    int64  `bson:"admin_fee" json:"admin_fee"`
	Total       int64  `bson:"total" json:"total"`
	Date        string `bson:"date" json:"date"` // YYYY-MM-DD
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Settlement is the post-rental reconciliation of extra charges against the
// held deposit. It is computed, not persisted on its own: it becomes invoice
// line items plus a summary. Exactly one of DepositRefund and
// AmountDueFromRenter is non-zero (both are zero when charges equal the
// deposit exactly). All amounts are in øre.
type Settlement struct {
	RentalPrice         int64  `bson:"rental_price" json:"rental_price"`
	KmOverageFee        int64  `bson:"km_overage_fee" json:"km_overage_fee"`
	FuelFee             int64  `bson:"fuel_fee" json:"fuel_fee"`
	ExteriorCleaningFee int64  `bson:"exterior_cleaning_fee" json:"exterior_cleaning_fee"`
	InteriorCleaningFee int64  `bson:"interior_cleaning_fee" json:"interior_cleaning_fee"`
	FinesTotal          int64  `bson:"fines_total" json:"fines_total"`
	TotalCharges        int64  `bson:"total_charges" json:"total_charges"`
	DepositAmount       int64  `bson:"deposit_amount" json:"deposit_amount"`
	DepositRefund       int64  `bson:"deposit_refund" json:"deposit_refund"`
	AmountDueFromRenter int64  `bson:"amount_due_from_renter" json:"amount_due_from_renter"`
	Fines               []Fine `bson:"fines,omitempty" json:"fines,omitempty"`
}
