package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	invoiceRepo := newPgxInvoiceRepository(dbPool)
	outboxRepo := newPgxOutboxRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo: accountRepo,
		LedgerRepo:  ledgerRepo,
		InvoiceRepo: invoiceRepo,
		OutboxRepo:  outboxRepo,
		TenantRepo:  accountRepo,
	}
}
