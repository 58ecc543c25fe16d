package repositories

import (
	"context"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
)

// OutboxReader defines read operations for outbox events
type OutboxReader interface {
	// FindUnprocessed retrieves events with processed_at IS NULL and
	// retry_count < maxRetries, oldest first, bounded by limit.
	FindUnprocessed(ctx context.Context, limit, maxRetries int) ([]domain.OutboxEvent, error)

	// CountUnprocessed returns the number of undelivered, non-poison events.
	CountUnprocessed(ctx context.Context, maxRetries int) (int64, error)
}

// OutboxWriter defines write operations for outbox events. Events are
// created atomically alongside the domain write they describe (see
// LedgerWriter.Append and InvoiceWriter.SaveInvoice); this interface only
// covers delivery bookkeeping.
type OutboxWriter interface {
	// SaveEvent persists a standalone event (account lifecycle events that
	// have no accompanying ledger write).
	SaveEvent(ctx context.Context, event domain.OutboxEvent) error

	// MarkProcessed records successful delivery of an event.
	MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error

	// MarkFailed increments the retry count and records the error message.
	MarkFailed(ctx context.Context, eventID string, errorMessage string) error
}

// OutboxRepositoryFacade combines all outbox repository interfaces.
type OutboxRepositoryFacade interface {
	OutboxReader
	OutboxWriter
}
