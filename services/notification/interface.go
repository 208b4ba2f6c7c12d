package notification

import "context"

// Sender delivers billing mail to a recipient. Implementations must treat a
// returned error as "not delivered": the caller decides whether to record a
// failure or retry on a later sweep.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
