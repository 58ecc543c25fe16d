package repositories

import "context"

// TenantReader lists the tenants known to the platform. Scheduled billing
// passes iterate over this set.
type TenantReader interface {
	// ActiveTenantIDs returns the ids of tenants with at least one active
	// billing account.
	ActiveTenantIDs(ctx context.Context) ([]string, error)
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryFacade
	InvoiceRepo InvoiceRepositoryFacade
	OutboxRepo  OutboxRepositoryFacade
	TenantRepo  TenantReader
}
