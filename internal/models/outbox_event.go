package models

import "time"

// OutboxEvent is the database representation of a pending or delivered
// domain event.
type OutboxEvent struct {
	EventID      string     `json:"eventID"`
	EventType    string     `json:"eventType"`
	Payload      []byte     `json:"payload"`
	TenantID     string     `json:"tenantID"`
	CreatedAt    time.Time  `json:"createdAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	RetryCount   int        `json:"retryCount"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}
