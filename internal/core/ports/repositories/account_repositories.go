package repositories

import (
	"context"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account within a tenant.
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a token-paginated list of accounts for a tenant.
	ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error)

	// ExistsByName reports whether an account with the given name already
	// exists within the tenant.
	ExistsByName(ctx context.Context, tenantID, name string) (bool, error)

	// FindByInvoiceFrequency retrieves all active accounts with the given
	// invoicing frequency for a tenant.
	FindByInvoiceFrequency(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's mutable fields (status and
	// audit columns only; accounts have no other update path).
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
