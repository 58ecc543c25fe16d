package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the domain event carried by an outbox record.
type EventType string

const (
	EventLedgerEntryCreated EventType = "LEDGER_ENTRY_CREATED"
	EventInvoiceGenerated   EventType = "INVOICE_GENERATED"
	EventAccountCreated     EventType = "ACCOUNT_CREATED"
	EventPaymentReceived    EventType = "PAYMENT_RECEIVED"
)

// DefaultMaxRetries is the poison threshold for outbox delivery attempts.
const DefaultMaxRetries = 5

// OutboxEvent is written in the same storage transaction as the domain change
// it describes and published asynchronously, at least once. Consumers dedupe
// on EventID.
type OutboxEvent struct {
	EventID      string     `json:"eventID"`
	EventType    EventType  `json:"eventType"`
	Payload      []byte     `json:"payload"`
	TenantID     string     `json:"tenantID"`
	CreatedAt    time.Time  `json:"createdAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	RetryCount   int        `json:"retryCount"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// NewOutboxEvent creates a pending outbox event.
func NewOutboxEvent(eventType EventType, tenantID string, payload []byte, now time.Time) OutboxEvent {
	return OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   payload,
		TenantID:  tenantID,
		CreatedAt: now,
	}
}

// MarkProcessed records successful delivery and clears any previous error.
func (e *OutboxEvent) MarkProcessed(now time.Time) {
	e.ProcessedAt = &now
	e.ErrorMessage = ""
}

// MarkFailed records a failed delivery attempt.
func (e *OutboxEvent) MarkFailed(errMsg string) {
	e.RetryCount++
	e.ErrorMessage = errMsg
}

// IsPoison reports whether the event has exhausted its retry budget. Poison
// events stay in the outbox for manual inspection; they are never deleted
// automatically and never retried again.
func (e *OutboxEvent) IsPoison(maxRetries int) bool {
	return e.ProcessedAt == nil && e.RetryCount >= maxRetries
}
