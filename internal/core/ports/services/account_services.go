package services

import (
	"context"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations for billing account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a token-paginated list of accounts for a tenant.
	ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error)
}

// AccountWriterSvc defines write operations for billing account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// ActivateAccount marks an account as active. Idempotent.
	ActivateAccount(ctx context.Context, tenantID, accountID, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive. Idempotent.
	DeactivateAccount(ctx context.Context, tenantID, accountID, userID string) (*domain.Account, error)
}

// AccountCalculatorSvc defines balance operations for account data
type AccountCalculatorSvc interface {
	// CalculateReceivableBalance computes the outstanding receivable balance
	// of an account from its ledger entries.
	CalculateReceivableBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error)

	// CalculateReceivableBalanceAsOf computes the balance over entries
	// posted at or before asOf.
	CalculateReceivableBalanceAsOf(ctx context.Context, tenantID, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// AccountSvcFacade combines all account-related service interfaces
// This is a facade for clients that need access to all operations
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountCalculatorSvc
}
