package payment

import (
	"encoding/json"
	"fmt"

	"lejio/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// metadata key carrying our invoice reference on Stripe objects.
const invoiceIDKey = "invoice_id"

// VerifyAndParse checks the Stripe webhook signature and normalizes the
// event into a PaymentEvent. Event types outside the checkout flow come
// back with an empty EventType and are ignored by the caller.
func VerifyAndParse(payload []byte, signatureHeader, webhookSecret string) (models.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, webhookSecret)
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return normalizeEvent(event)
}

func normalizeEvent(event stripe.Event) (models.PaymentEvent, error) {
	switch event.Type {
	case "checkout.session.completed":
		session, err := parseSession(event)
		if err != nil {
			return models.PaymentEvent{}, err
		}
		txID := session.ID
		if session.PaymentIntent != nil {
			txID = session.PaymentIntent.ID
		}
		return models.PaymentEvent{
			EventType:     models.PaymentCompleted,
			TransactionID: txID,
			InvoiceID:     session.Metadata[invoiceIDKey],
			Amount:        session.AmountTotal,
			Metadata:      session.Metadata,
		}, nil

	case "checkout.session.expired":
		session, err := parseSession(event)
		if err != nil {
			return models.PaymentEvent{}, err
		}
		return models.PaymentEvent{
			EventType:     models.PaymentCancelled,
			TransactionID: session.ID,
			InvoiceID:     session.Metadata[invoiceIDKey],
			Metadata:      session.Metadata,
		}, nil

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return models.PaymentEvent{}, fmt.Errorf("parse payment intent: %w", err)
		}
		return models.PaymentEvent{
			EventType:     models.PaymentFailed,
			TransactionID: intent.ID,
			InvoiceID:     intent.Metadata[invoiceIDKey],
			Metadata:      intent.Metadata,
		}, nil
	}

	return models.PaymentEvent{}, nil
}

func parseSession(event stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session: %w", err)
	}
	return &session, nil
}
