package services

import (
	"context"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
)

// EventPublisher delivers outbox events to the downstream transport.
// Implementations must tolerate redelivery: the outbox guarantees
// at-least-once, not exactly-once.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// OutboxProcessorSvc drains pending outbox events to the publisher.
type OutboxProcessorSvc interface {
	// DrainBatch claims up to batchSize undelivered events, publishes each,
	// and records the outcome per event. It returns the number of events
	// successfully delivered. Events that keep failing stop being selected
	// once their retry count reaches the configured maximum.
	DrainBatch(ctx context.Context) (int, error)

	// PendingCount reports how many events still await delivery.
	PendingCount(ctx context.Context) (int64, error)
}
