package models

import "time"

type EntryType string

const (
	EntryTypeRevenue    EntryType = "revenue"
	EntryTypeReceivable EntryType = "receivable"
)

type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// Account codes used by the posting service.
const (
	AccountCodeRentalRevenue       = "4100"
	AccountCodeSubscriptionRevenue = "4200"
	AccountCodeReceivable          = "1200"
)

// AccountingEntry is one side of a double-entry posting. Entries are always
// written as a balanced pair per invoice: a revenue credit and a receivable
// debit of equal magnitude. Exactly one of DebitAmount/CreditAmount is
// non-zero per row. Amounts are in øre.
type AccountingEntry struct {
	ID               string      `bson:"id" json:"id"`
	InvoiceID        string      `bson:"invoice_id" json:"invoice_id"`
	SubscriptionID   string      `bson:"subscription_id,omitempty" json:"subscription_id,omitempty"`
	LessorID         string      `bson:"lessor_id" json:"lessor_id"`
	EntryType        EntryType   `bson:"entry_type" json:"entry_type"`
	AccountCode      string      `bson:"account_code" json:"account_code"`
	DebitAmount      int64       `bson:"debit_amount" json:"debit_amount"`
	CreditAmount     int64       `bson:"credit_amount" json:"credit_amount"`
	AccountingPeriod string      `bson:"accounting_period" json:"accounting_period"` // YYYY-MM
	PostingDate      time.Time   `bson:"posting_date" json:"posting_date"`
	Status           EntryStatus `bson:"status" json:"status"`
	CreatedAt        time.Time   `bson:"created_at" json:"created_at"`
}
