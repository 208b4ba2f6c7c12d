package billing

import "errors"

// Engine-wide error taxonomy. Sweeps treat ErrDuplicateInvoice as a
// success no-op: it means an idempotency guard stopped a double billing.
var (
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrDuplicateInvoice   = errors.New("duplicate invoice")
	ErrNotFound           = errors.New("not found")
	ErrDeliveryFailure    = errors.New("delivery failure")
	ErrPersistenceFailure = errors.New("persistence failure")
)
