package models

import "time"

type ReminderType string

const (
	ReminderTypeDueDate     ReminderType = "due_date"
	ReminderTypeOverdue1    ReminderType = "overdue_1"
	ReminderTypeOverdue2    ReminderType = "overdue_2"
	ReminderTypeOverdue3    ReminderType = "overdue_3"
	ReminderTypeFinalNotice ReminderType = "final_notice"
)

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSending   ReminderStatus = "sending" // transient dispatch claim
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusFailed    ReminderStatus = "failed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// PaymentReminder is one stage of the dunning sequence for an invoice.
// (InvoiceID, ReminderType) is the idempotency key and is enforced unique,
// so re-scheduling the sequence for an invoice is a no-op. Subject and body
// are rendered at schedule time.
type PaymentReminder struct {
	ID             string         `bson:"id" json:"id"`
	InvoiceID      string         `bson:"invoice_id" json:"invoice_id"`
	ReminderNumber int            `bson:"reminder_number" json:"reminder_number"`
	ReminderType   ReminderType   `bson:"reminder_type" json:"reminder_type"`
	ScheduledDate  time.Time      `bson:"scheduled_date" json:"scheduled_date"`
	Status         ReminderStatus `bson:"status" json:"status"`
	SentAt         *time.Time     `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	EmailSubject   string         `bson:"email_subject" json:"email_subject"`
	EmailBody      string         `bson:"email_body" json:"email_body"`
	EmailBodyText  string         `bson:"email_body_text,omitempty" json:"email_body_text,omitempty"`
	RecipientEmail string         `bson:"recipient_email" json:"recipient_email"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}
