package mapping

import (
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/models"
)

// ToModelOutboxEvent converts a domain OutboxEvent to its model form.
func ToModelOutboxEvent(d domain.OutboxEvent) models.OutboxEvent {
	return models.OutboxEvent{
		EventID:      d.EventID,
		EventType:    string(d.EventType),
		Payload:      d.Payload,
		TenantID:     d.TenantID,
		CreatedAt:    d.CreatedAt,
		ProcessedAt:  d.ProcessedAt,
		RetryCount:   d.RetryCount,
		ErrorMessage: d.ErrorMessage,
	}
}

// ToDomainOutboxEvent converts a model OutboxEvent to its domain form.
func ToDomainOutboxEvent(m models.OutboxEvent) domain.OutboxEvent {
	return domain.OutboxEvent{
		EventID:      m.EventID,
		EventType:    domain.EventType(m.EventType),
		Payload:      m.Payload,
		TenantID:     m.TenantID,
		CreatedAt:    m.CreatedAt,
		ProcessedAt:  m.ProcessedAt,
		RetryCount:   m.RetryCount,
		ErrorMessage: m.ErrorMessage,
	}
}

// ToDomainOutboxEventSlice converts a slice of model OutboxEvents.
func ToDomainOutboxEventSlice(ms []models.OutboxEvent) []domain.OutboxEvent {
	ds := make([]domain.OutboxEvent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOutboxEvent(m)
	}
	return ds
}
