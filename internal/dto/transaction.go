package dto

import (
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RideChargeRequest defines the data needed to record a completed ride
// against an account. The rideID doubles as the idempotency key: charging
// the same ride twice for the same account is rejected.
type RideChargeRequest struct {
	RideID      string          `json:"rideID" binding:"required,max=128"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=512"`
}

// PaymentRequest defines the data needed to record a payment received
// against an account. The paymentReference is the idempotency key.
type PaymentRequest struct {
	PaymentReference string          `json:"paymentReference" binding:"required,max=128"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Description      string          `json:"description" binding:"max=512"`
}

// LedgerEntryResponse defines the data returned for a single ledger entry.
type LedgerEntryResponse struct {
	EntryID           string          `json:"entryID"`
	AccountID         string          `json:"accountID"`
	LedgerAccount     string          `json:"ledgerAccount"`
	DebitAmount       decimal.Decimal `json:"debitAmount"`
	CreditAmount      decimal.Decimal `json:"creditAmount"`
	SourceType        string          `json:"sourceType"`
	SourceReferenceID string          `json:"sourceReferenceID"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// TransactionResponse defines the combined response for a posted transaction:
// the balanced pair of entries it produced.
type TransactionResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to LedgerEntryResponse DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:           e.EntryID,
		AccountID:         e.AccountID,
		LedgerAccount:     string(e.LedgerAccount),
		DebitAmount:       e.DebitAmount.Amount(),
		CreditAmount:      e.CreditAmount.Amount(),
		SourceType:        string(e.SourceType),
		SourceReferenceID: e.SourceReferenceID,
		Description:       e.Description,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
	}
}

// ToLedgerEntryResponses converts a slice of domain.LedgerEntry to []LedgerEntryResponse.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses
}

// ToTransactionResponse converts a posted entry pair to TransactionResponse.
func ToTransactionResponse(entries []domain.LedgerEntry) TransactionResponse {
	return TransactionResponse{Entries: ToLedgerEntryResponses(entries)}
}

// ListEntriesParams defines query parameters for listing ledger entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken" binding:"omitempty"`
}

// ListEntriesResponse wraps a token-paginated list of ledger entries.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
