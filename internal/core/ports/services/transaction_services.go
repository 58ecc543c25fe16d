package services

import (
	"context"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
)

// TransactionWriterSvc defines the posting operations of the ledger. Every
// posting produces a balanced pair of entries and an outbox event in a
// single storage transaction.
type TransactionWriterSvc interface {
	// PostRideCharge records a completed ride: debit ACCOUNTS_RECEIVABLE,
	// credit SERVICE_REVENUE. The rideID is the idempotency key; a repeat
	// for the same account returns a DUPLICATE_TRANSACTION conflict.
	PostRideCharge(ctx context.Context, tenantID, accountID string, req dto.RideChargeRequest, userID string) ([]domain.LedgerEntry, error)

	// PostPayment records a payment received: debit CASH, credit
	// ACCOUNTS_RECEIVABLE. The paymentReference is the idempotency key.
	PostPayment(ctx context.Context, tenantID, accountID string, req dto.PaymentRequest, userID string) ([]domain.LedgerEntry, error)
}

// TransactionReaderSvc defines read operations over posted entries.
type TransactionReaderSvc interface {
	// ListEntriesByAccount retrieves a token-paginated list of entries.
	ListEntriesByAccount(ctx context.Context, tenantID, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// TransactionSvcFacade combines all transaction-related service interfaces
type TransactionSvcFacade interface {
	TransactionWriterSvc
	TransactionReaderSvc
}
