package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
	"github.com/shopspring/decimal"
)

// SystemUserID stamps audit fields on writes performed by scheduled jobs
// rather than an authenticated caller.
const SystemUserID = "system"

// invoiceDueDays is the payment term applied to every generated invoice.
const invoiceDueDays = 30

// InvoiceService generates invoices from unbilled ride charges and serves
// invoice reads. Generation is idempotent per ride: a ride that already
// appears on an invoice is never billed again.
type InvoiceService struct {
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	ledgerRepo  portsrepo.LedgerReader
	accountRepo portsrepo.AccountReader
}

// NewInvoiceService creates an InvoiceService backed by the given repositories.
func NewInvoiceService(invoiceRepo portsrepo.InvoiceRepositoryFacade, ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// invoiceEventPayload is the outbox payload for generated invoices.
type invoiceEventPayload struct {
	InvoiceID     string          `json:"invoiceID"`
	InvoiceNumber string          `json:"invoiceNumber"`
	AccountID     string          `json:"accountID"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	LineItemCount int             `json:"lineItemCount"`
	IssueDate     time.Time       `json:"issueDate"`
}

// GetInvoiceByNumber retrieves an invoice with its line items.
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	invoice, err := s.invoiceRepo.FindByNumber(ctx, tenantID, invoiceNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find invoice by number", slog.String("error", err.Error()), slog.String("invoice_number", invoiceNumber))
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoicesByAccount retrieves all invoices for an account, newest first.
func (s *InvoiceService) ListInvoicesByAccount(ctx context.Context, tenantID, accountID string) ([]domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.ListByAccount(ctx, tenantID, accountID)
	if err != nil {
		logger.Error("Failed to list invoices", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	if invoices == nil {
		return []domain.Invoice{}, nil
	}
	return invoices, nil
}

// GenerateInvoice builds and persists an invoice for one account over the
// given (or frequency-derived) period. Rides already billed are excluded;
// when nothing is unbilled, no invoice is created and ErrNotFound is returned.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, tenantID, accountID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load account for invoicing", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	var period domain.BillingPeriod
	switch {
	case req.PeriodStart != nil && req.PeriodEnd != nil:
		period = domain.BillingPeriod{Start: *req.PeriodStart, End: *req.PeriodEnd}
		if !period.End.After(period.Start) {
			return nil, apperrors.NewValidationError("billing period end must be after start")
		}
	case req.PeriodStart == nil && req.PeriodEnd == nil:
		period, err = domain.BillingPeriodFor(account.InvoiceFrequency, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewValidationError("periodStart and periodEnd must be provided together")
	}

	return s.generateForPeriod(ctx, account, period, userID, now)
}

// GenerateScheduledInvoices runs one billing pass for every active account of
// the tenant with the given frequency. One account failing does not abort the
// run; failures are collected in the result.
func (s *InvoiceService) GenerateScheduledInvoices(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency, asOf time.Time) (*dto.GenerateScheduledResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := domain.BillingPeriodFor(frequency, asOf)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.FindByInvoiceFrequency(ctx, tenantID, frequency)
	if err != nil {
		logger.Error("Failed to list accounts for scheduled invoicing", slog.String("error", err.Error()), slog.String("frequency", string(frequency)))
		return nil, fmt.Errorf("failed to list accounts for invoicing: %w", err)
	}

	result := &dto.GenerateScheduledResult{}
	for i := range accounts {
		account := accounts[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		invoice, err := s.generateForPeriod(ctx, &account, period, SystemUserID, asOf)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Nothing unbilled in the period; not a failure.
			result.Skipped++
		case err != nil:
			logger.Error("Scheduled invoicing failed for account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
			result.Failed = append(result.Failed, account.AccountID)
		default:
			logger.Info("Scheduled invoice generated", slog.String("account_id", account.AccountID), slog.String("invoice_number", invoice.InvoiceNumber))
			result.Generated++
		}
	}

	logger.Info("Scheduled invoicing pass finished",
		slog.String("frequency", string(frequency)),
		slog.Int("generated", result.Generated),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *InvoiceService) generateForPeriod(ctx context.Context, account *domain.Account, period domain.BillingPeriod, userID string, now time.Time) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	billedRideIDs, err := s.invoiceRepo.InvoicedRideIDs(ctx, account.TenantID, account.AccountID)
	if err != nil {
		logger.Error("Failed to load billed ride ids", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to load billed rides: %w", err)
	}

	unbilled, err := s.ledgerRepo.UnbilledRideCharges(ctx, account.TenantID, account.AccountID, period.Start, period.End, billedRideIDs)
	if err != nil {
		logger.Error("Failed to load unbilled ride charges", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to load unbilled rides: %w", err)
	}
	if len(unbilled) == 0 {
		return nil, apperrors.NewNotFoundError(apperrors.CodeInvoiceNotFound, fmt.Sprintf("no unbilled rides for account %s in period", account.AccountID))
	}

	// The invoice number carries the month of the billing period, not the
	// generation time: a monthly run on Aug 1 covering July numbers INV-202607.
	billingMonth := period.End
	sequence, err := s.invoiceRepo.NextInvoiceSequence(ctx, account.TenantID, billingMonth)
	if err != nil {
		logger.Error("Failed to allocate invoice sequence", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to allocate invoice sequence: %w", err)
	}
	invoiceNumber := domain.FormatInvoiceNumber(billingMonth, sequence)

	invoice, err := domain.NewInvoice(account.AccountID, account.TenantID, invoiceNumber, period.Start, period.End, now, now.AddDate(0, 0, invoiceDueDays), userID, now)
	if err != nil {
		return nil, err
	}
	for _, entry := range unbilled {
		if err := invoice.AddLineItem(entry.SourceReferenceID, entry.CreatedAt, entry.Description, entry.DebitAmount); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(invoiceEventPayload{
		InvoiceID:     invoice.InvoiceID,
		InvoiceNumber: invoice.InvoiceNumber,
		AccountID:     invoice.AccountID,
		TotalAmount:   invoice.TotalAmount.Amount(),
		LineItemCount: len(invoice.LineItems),
		IssueDate:     invoice.IssueDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal invoice event: %v", apperrors.ErrInternal, err)
	}
	event := domain.NewOutboxEvent(domain.EventInvoiceGenerated, account.TenantID, payload, now)

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice, event); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError(apperrors.CodeDuplicateInvoiceNumber, fmt.Sprintf("invoice number %s already exists", invoiceNumber))
		}
		if errors.Is(err, apperrors.ErrConflict) {
			// A concurrent generation billed one of these rides first; the
			// line item uniqueness caught it at commit.
			return nil, apperrors.NewConflictError(apperrors.CodeRideAlreadyBilled, fmt.Sprintf("a ride in the period was billed concurrently for account %s", account.AccountID))
		}
		logger.Error("Failed to save invoice", slog.String("error", err.Error()), slog.String("invoice_number", invoiceNumber))
		return nil, err
	}

	logger.Info("Invoice generated",
		slog.String("invoice_number", invoice.InvoiceNumber),
		slog.String("account_id", invoice.AccountID),
		slog.String("total", invoice.TotalAmount.String()),
		slog.Int("line_items", len(invoice.LineItems)),
	)
	return &invoice, nil
}
