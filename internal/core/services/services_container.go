package services

import (
	"log/slog"

	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, logger *slog.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, repos.LedgerRepo, repos.OutboxRepo)
	container.Transaction = NewTransactionService(repos.LedgerRepo, repos.AccountRepo)
	container.Statement = NewStatementService(repos.LedgerRepo, repos.AccountRepo)
	container.Invoice = NewInvoiceService(repos.InvoiceRepo, repos.LedgerRepo, repos.AccountRepo)
	container.Outbox = NewOutboxProcessor(
		repos.OutboxRepo,
		NewLogEventPublisher(logger),
		logger,
		cfg.OutboxBatchSize,
		cfg.OutboxMaxRetries,
		cfg.OutboxDrainInterval,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade     = (*AccountService)(nil)
	_ portssvc.TransactionSvcFacade = (*TransactionService)(nil)
	_ portssvc.StatementSvc         = (*StatementService)(nil)
	_ portssvc.InvoiceSvcFacade     = (*InvoiceService)(nil)
	_ portssvc.OutboxProcessorSvc   = (*OutboxProcessor)(nil)
)
