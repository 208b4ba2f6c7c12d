package models

// PaymentEventType classifies events delivered by the payment gateway.
type PaymentEventType string

const (
	PaymentCompleted PaymentEventType = "payment.completed"
	PaymentFailed    PaymentEventType = "payment.failed"
	PaymentCancelled PaymentEventType = "payment.cancelled"
)

// PaymentEvent is a normalized "payment recorded" event consumed from the
// gateway webhook. Amount is in øre.
type PaymentEvent struct {
	EventType     PaymentEventType  `json:"event_type"`
	TransactionID string            `json:"transaction_id"`
	InvoiceID     string            `json:"invoice_id,omitempty"`
	Amount        int64             `json:"amount,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// SchedulerEvent is the manually invokable trigger payload for the sweeps.
type SchedulerEvent struct {
	Event string `json:"event" binding:"required"`
}

// SweepResult reports what a sweep accomplished.
type SweepResult struct {
	RemindersSent   int `json:"reminders_sent,omitempty"`
	RemindersFailed int `json:"reminders_failed,omitempty"`
	InvoicesCreated int `json:"invoices_created,omitempty"`
	ItemsSkipped    int `json:"items_skipped,omitempty"`
}
