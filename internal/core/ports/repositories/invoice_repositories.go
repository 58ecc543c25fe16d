package repositories

import (
	"context"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
)

// InvoiceReader defines read operations for invoice data
type InvoiceReader interface {
	// FindByNumber retrieves an invoice (with line items) by its number.
	FindByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error)

	// ListByAccount retrieves all invoices for an account, newest first.
	ListByAccount(ctx context.Context, tenantID, accountID string) ([]domain.Invoice, error)

	// FindLatestByAccount retrieves the most recently issued invoice for an
	// account, or ErrNotFound when none exists.
	FindLatestByAccount(ctx context.Context, tenantID, accountID string) (*domain.Invoice, error)

	// ExistsByNumber reports whether an invoice number is already taken
	// within the tenant.
	ExistsByNumber(ctx context.Context, tenantID, invoiceNumber string) (bool, error)

	// InvoicedRideIDs returns the ride ids already present on any invoice
	// for the account. Used to guarantee a ride is billed exactly once.
	InvoicedRideIDs(ctx context.Context, tenantID, accountID string) ([]string, error)

	// NextInvoiceSequence returns the next per-tenant, per-month sequence
	// value for the given billing month.
	NextInvoiceSequence(ctx context.Context, tenantID string, billingMonth time.Time) (int64, error)
}

// InvoiceWriter defines write operations for invoice data
type InvoiceWriter interface {
	// SaveInvoice persists an invoice, all its line items and the outbox
	// event announcing it in one storage transaction. A uniqueness violation
	// on (tenant_id, invoice_number) surfaces as apperrors.ErrDuplicate; a
	// ride already billed for the account surfaces as apperrors.ErrConflict.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, event domain.OutboxEvent) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
