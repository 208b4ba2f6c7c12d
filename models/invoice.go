package models

import "time"

// InvoiceStatus tracks the lifecycle of an invoice. Invoices are never
// deleted, only cancelled.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusViewed        InvoiceStatus = "viewed"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// InvoiceKind distinguishes what a given invoice bills for. Together with
// the source reference it forms the idempotency key for invoice creation.
type InvoiceKind string

const (
	InvoiceKindRental       InvoiceKind = "rental"
	InvoiceKindSettlement   InvoiceKind = "settlement"
	InvoiceKindSubscription InvoiceKind = "subscription"
)

// Invoice is the billing aggregate: header plus ordered line items.
// All amounts are in øre. Exactly one of BookingID / SubscriptionID is set.
type Invoice struct {
	ID            string        `bson:"id" json:"id"`
	InvoiceNumber string        `bson:"invoice_number" json:"invoice_number"`
	Kind          InvoiceKind   `bson:"kind" json:"kind"`
	LessorID      string        `bson:"lessor_id" json:"lessor_id"`
	RenterID      string        `bson:"renter_id,omitempty" json:"renter_id,omitempty"`
	RenterName    string        `bson:"renter_name,omitempty" json:"renter_name,omitempty"`
	RenterEmail   string        `bson:"renter_email" json:"renter_email"`
	BookingID     string        `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	SubscriptionID string       `bson:"subscription_id,omitempty" json:"subscription_id,omitempty"`
	CycleNumber   int           `bson:"cycle_number,omitempty" json:"cycle_number,omitempty"`
	Status        InvoiceStatus `bson:"status" json:"status"`
	Subtotal      int64         `bson:"subtotal" json:"subtotal"`
	VATAmount     int64         `bson:"vat_amount" json:"vat_amount"`
	AmountTotal   int64         `bson:"amount_total" json:"amount_total"`
	AmountPaid    int64         `bson:"amount_paid" json:"amount_paid"`
	AmountDue     int64         `bson:"amount_due" json:"amount_due"`
	IssueDate     time.Time     `bson:"issue_date" json:"issue_date"`
	DueDate       time.Time     `bson:"due_date" json:"due_date"`
	SentAt        *time.Time    `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	LineItems     []LineItem    `bson:"line_items" json:"line_items"`
	// Gateway transaction ids already applied, so a redelivered payment
	// event cannot double-count.
	TransactionIDs []string `bson:"transaction_ids,omitempty" json:"transaction_ids,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}

// LineItem is one priced row on an invoice. LineTotal normally equals
// Quantity * UnitPrice but is carried separately so capped fees do not
// accumulate rounding drift. PlatformFee marks pass-through platform
// charges that are excluded from the lessor's taxable subtotal.
type LineItem struct {
	Description string `bson:"description" json:"description"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	Unit        string `bson:"unit" json:"unit"`
	UnitPrice   int64  `bson:"unit_price" json:"unit_price"`
	LineTotal   int64  `bson:"line_total" json:"line_total"`
	PlatformFee bool   `bson:"platform_fee,omitempty" json:"platform_fee,omitempty"`
}
