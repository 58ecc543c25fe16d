package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/models"
	"github.com/rideledger/ride_billing_app/internal/utils/mapping"
)

const invoiceColumns = `invoice_id, invoice_number, account_id, tenant_id,
       billing_period_start, billing_period_end, issue_date, due_date,
       total_amount, currency_code, created_at, created_by`

const lineItemColumns = `line_item_id, invoice_id, account_id, ride_id, ride_date, description, amount`

// lineItemRideConstraint is the account-scoped ride uniqueness constraint; it
// is the storage-level billing exactly-once guarantee.
const lineItemRideConstraint = "uq_invoice_line_items_account_ride"

// PgxInvoiceRepository implements invoice storage on PostgreSQL.
type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) *PgxInvoiceRepository {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

// SaveInvoice persists the invoice header, every line item and the outbox
// event announcing the invoice in a single storage transaction. A number
// collision within the tenant surfaces as ErrDuplicate.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, event domain.OutboxEvent) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	header := mapping.ToModelInvoice(invoice)
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO invoices (
			invoice_id, invoice_number, account_id, tenant_id,
			billing_period_start, billing_period_end, issue_date, due_date,
			total_amount, currency_code, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`,
		header.InvoiceID,
		header.InvoiceNumber,
		header.AccountID,
		header.TenantID,
		header.BillingPeriodStart,
		header.BillingPeriodEnd,
		header.IssueDate,
		header.DueDate,
		header.TotalAmount,
		header.CurrencyCode,
		header.CreatedAt,
		header.CreatedBy,
	)

	lineItemQuery := `
		INSERT INTO invoice_line_items (line_item_id, invoice_id, account_id, ride_id, ride_date, description, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, item := range invoice.LineItems {
		m := mapping.ToModelInvoiceLineItem(item)
		batch.Queue(lineItemQuery,
			m.LineItemID,
			m.InvoiceID,
			m.AccountID,
			m.RideID,
			m.RideDate,
			m.Description,
			m.Amount,
		)
	}

	modelEvent := mapping.ToModelOutboxEvent(event)
	batch.Queue(`
		INSERT INTO outbox_events (event_id, event_type, payload, tenant_id, created_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6);
	`,
		modelEvent.EventID,
		modelEvent.EventType,
		modelEvent.Payload,
		modelEvent.TenantID,
		modelEvent.CreatedAt,
		modelEvent.RetryCount,
	)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		if isUniqueViolation(err) {
			if uniqueConstraintName(err) == lineItemRideConstraint {
				return fmt.Errorf("%w: a ride on invoice %s is already billed for account %s", apperrors.ErrConflict, invoice.InvoiceNumber, invoice.AccountID)
			}
			return fmt.Errorf("%w: invoice number %s already exists", apperrors.ErrDuplicate, invoice.InvoiceNumber)
		}
		if isTransient(err) {
			return fmt.Errorf("%w: failed to save invoice: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to save invoice", err)
	}

	return r.Commit(ctx, tx)
}

// FindByNumber retrieves an invoice with its line items by number.
func (r *PgxInvoiceRepository) FindByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error) {
	headerQuery := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND invoice_number = $2;
	`
	var invoice *domain.Invoice
	err := r.withRetry(ctx, "find invoice "+invoiceNumber, func() error {
		var header models.Invoice
		if err := scanInvoice(r.Pool.QueryRow(ctx, headerQuery, tenantID, invoiceNumber), &header); err != nil {
			return err
		}
		items, err := r.loadLineItems(ctx, header.InvoiceID)
		if err != nil {
			return err
		}
		d, err := mapping.ToDomainInvoice(header, items)
		if err != nil {
			return err
		}
		invoice = &d
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s not found", apperrors.ErrNotFound, invoiceNumber)
		}
		return nil, wrapQueryError("failed to find invoice "+invoiceNumber, err)
	}
	return invoice, nil
}

// ListByAccount retrieves all invoices for an account, newest first, with
// their line items.
func (r *PgxInvoiceRepository) ListByAccount(ctx context.Context, tenantID, accountID string) ([]domain.Invoice, error) {
	headerQuery := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY issue_date DESC, invoice_number DESC;
	`
	var result []domain.Invoice
	err := r.withRetry(ctx, "list invoices for account "+accountID, func() error {
		rows, err := r.Pool.Query(ctx, headerQuery, tenantID, accountID)
		if err != nil {
			return err
		}
		headers, err := scanInvoices(rows)
		if err != nil {
			return err
		}

		result = make([]domain.Invoice, 0, len(headers))
		for _, header := range headers {
			items, err := r.loadLineItems(ctx, header.InvoiceID)
			if err != nil {
				return err
			}
			d, err := mapping.ToDomainInvoice(header, items)
			if err != nil {
				return err
			}
			result = append(result, d)
		}
		return nil
	})
	if err != nil {
		return nil, wrapQueryError("failed to list invoices for account "+accountID, err)
	}
	return result, nil
}

// FindLatestByAccount retrieves the most recently issued invoice for an account.
func (r *PgxInvoiceRepository) FindLatestByAccount(ctx context.Context, tenantID, accountID string) (*domain.Invoice, error) {
	headerQuery := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY issue_date DESC, invoice_number DESC
		LIMIT 1;
	`
	var invoice *domain.Invoice
	err := r.withRetry(ctx, "find latest invoice for account "+accountID, func() error {
		var header models.Invoice
		if err := scanInvoice(r.Pool.QueryRow(ctx, headerQuery, tenantID, accountID), &header); err != nil {
			return err
		}
		items, err := r.loadLineItems(ctx, header.InvoiceID)
		if err != nil {
			return err
		}
		d, err := mapping.ToDomainInvoice(header, items)
		if err != nil {
			return err
		}
		invoice = &d
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s has no invoices", apperrors.ErrNotFound, accountID)
		}
		return nil, wrapQueryError("failed to find latest invoice for account "+accountID, err)
	}
	return invoice, nil
}

// ExistsByNumber reports whether the tenant already issued this invoice number.
func (r *PgxInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID, invoiceNumber string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices WHERE tenant_id = $1 AND invoice_number = $2
		);
	`
	var exists bool
	err := r.withRetry(ctx, "check invoice number", func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, invoiceNumber).Scan(&exists)
	})
	if err != nil {
		return false, wrapQueryError("failed to check invoice number", err)
	}
	return exists, nil
}

// InvoicedRideIDs returns the ride ids already billed on any invoice of the
// account, in no particular order.
func (r *PgxInvoiceRepository) InvoicedRideIDs(ctx context.Context, tenantID, accountID string) ([]string, error) {
	query := `
		SELECT li.ride_id
		FROM invoice_line_items li
		JOIN invoices i ON i.invoice_id = li.invoice_id
		WHERE i.tenant_id = $1 AND i.account_id = $2;
	`
	rideIDs := []string{}
	err := r.withRetry(ctx, "list invoiced rides for account "+accountID, func() error {
		rows, err := r.Pool.Query(ctx, query, tenantID, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()

		rideIDs = rideIDs[:0]
		for rows.Next() {
			var rideID string
			if err := rows.Scan(&rideID); err != nil {
				return err
			}
			rideIDs = append(rideIDs, rideID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapQueryError("failed to list invoiced rides for account "+accountID, err)
	}
	return rideIDs, nil
}

// NextInvoiceSequence allocates the next per-tenant, per-month invoice
// sequence value. The upsert makes allocation atomic under concurrent billing
// runs; gaps from abandoned transactions are acceptable, collisions are not.
func (r *PgxInvoiceRepository) NextInvoiceSequence(ctx context.Context, tenantID string, billingMonth time.Time) (int64, error) {
	query := `
		INSERT INTO invoice_sequences (tenant_id, billing_month, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, billing_month)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value;
	`
	monthKey := time.Date(billingMonth.Year(), billingMonth.Month(), 1, 0, 0, 0, 0, time.UTC)

	var sequence int64
	if err := r.Pool.QueryRow(ctx, query, tenantID, monthKey).Scan(&sequence); err != nil {
		if isTransient(err) {
			return 0, fmt.Errorf("%w: failed to allocate invoice sequence: %v", apperrors.ErrTransient, err)
		}
		return 0, apperrors.NewAppError(500, "failed to allocate invoice sequence", err)
	}
	return sequence, nil
}

func (r *PgxInvoiceRepository) loadLineItems(ctx context.Context, invoiceID string) ([]models.InvoiceLineItem, error) {
	query := `
		SELECT ` + lineItemColumns + `
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY ride_date, ride_id;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.InvoiceLineItem{}
	for rows.Next() {
		var m models.InvoiceLineItem
		if err := rows.Scan(
			&m.LineItemID,
			&m.InvoiceID,
			&m.AccountID,
			&m.RideID,
			&m.RideDate,
			&m.Description,
			&m.Amount,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func scanInvoice(row pgx.Row, m *models.Invoice) error {
	return row.Scan(
		&m.InvoiceID,
		&m.InvoiceNumber,
		&m.AccountID,
		&m.TenantID,
		&m.BillingPeriodStart,
		&m.BillingPeriodEnd,
		&m.IssueDate,
		&m.DueDate,
		&m.TotalAmount,
		&m.CurrencyCode,
		&m.CreatedAt,
		&m.CreatedBy,
	)
}

func scanInvoices(rows pgx.Rows) ([]models.Invoice, error) {
	defer rows.Close()
	invoices := []models.Invoice{}
	for rows.Next() {
		var m models.Invoice
		if err := rows.Scan(
			&m.InvoiceID,
			&m.InvoiceNumber,
			&m.AccountID,
			&m.TenantID,
			&m.BillingPeriodStart,
			&m.BillingPeriodEnd,
			&m.IssueDate,
			&m.DueDate,
			&m.TotalAmount,
			&m.CurrencyCode,
			&m.CreatedAt,
			&m.CreatedBy,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, m)
	}
	return invoices, rows.Err()
}
