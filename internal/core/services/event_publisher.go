package services

import (
	"context"
	"log/slog"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
)

// LogEventPublisher emits outbox events as structured log lines. It stands in
// for a broker client: downstream consumers tail the event stream from the
// log pipeline. Redelivery of the same event id is harmless here.
type LogEventPublisher struct {
	logger *slog.Logger
}

// NewLogEventPublisher creates a publisher writing to the given logger.
func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

var _ portssvc.EventPublisher = (*LogEventPublisher)(nil)

// Publish emits the event. It never fails; failures in this deployment mode
// can only come from the surrounding outbox bookkeeping.
func (p *LogEventPublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	p.logger.InfoContext(ctx, "Event published",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.EventType)),
		slog.String("tenant_id", event.TenantID),
		slog.String("payload", string(event.Payload)),
	)
	return nil
}
