package services

import (
	"context"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoice data
type InvoiceReaderSvc interface {
	// GetInvoiceByNumber retrieves an invoice with its line items.
	GetInvoiceByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error)

	// ListInvoicesByAccount retrieves all invoices for an account, newest first.
	ListInvoicesByAccount(ctx context.Context, tenantID, accountID string) ([]domain.Invoice, error)
}

// InvoiceGeneratorSvc defines invoice generation operations
type InvoiceGeneratorSvc interface {
	// GenerateInvoice builds and persists an invoice for one account over
	// the given (or frequency-derived) period. Rides already on an invoice
	// are excluded; when nothing is unbilled, no invoice is created and
	// ErrNotFound is returned.
	GenerateInvoice(ctx context.Context, tenantID, accountID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, error)

	// GenerateScheduledInvoices runs one billing pass for every active
	// account of the tenant with the given frequency. One account failing
	// does not abort the run; failures are collected in the result.
	GenerateScheduledInvoices(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency, asOf time.Time) (*dto.GenerateScheduledResult, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceGeneratorSvc
}
