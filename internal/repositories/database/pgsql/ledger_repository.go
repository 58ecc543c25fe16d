package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/models"
	"github.com/rideledger/ride_billing_app/internal/utils/mapping"
	"github.com/rideledger/ride_billing_app/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// entryColumns is the canonical select list for ledger entry rows.
const entryColumns = `entry_id, account_id, tenant_id, ledger_account, debit_amount, credit_amount,
       source_type, source_reference_id, description, created_at, created_by`

// PgxLedgerRepository is the append-only store for ledger entries. It exposes
// no update or delete path; rows are immutable once committed and the schema
// enforces the same rule.
type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// Append atomically persists a balanced entry pair together with its outbox
// event. Either all three rows commit or none do. A uniqueness violation on
// (account_id, source_reference_id, ledger_account) surfaces as ErrDuplicate.
func (r *PgxLedgerRepository) Append(ctx context.Context, entries []domain.LedgerEntry, event domain.OutboxEvent) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	entryQuery := `
		INSERT INTO ledger_entries (
			entry_id, account_id, tenant_id, ledger_account, debit_amount, credit_amount,
			source_type, source_reference_id, description, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, entry := range entries {
		m := mapping.ToModelLedgerEntry(entry)
		batch.Queue(entryQuery,
			m.EntryID,
			m.AccountID,
			m.TenantID,
			m.LedgerAccount,
			m.DebitAmount,
			m.CreditAmount,
			m.SourceType,
			m.SourceReferenceID,
			m.Description,
			m.CreatedAt,
			m.CreatedBy,
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
			return fmt.Errorf("%w: entry pair already posted for source %s", apperrors.ErrDuplicate, entries[0].SourceReferenceID)
		}
		if isTransient(err) {
			return fmt.Errorf("%w: failed to append ledger entries: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to append ledger entries", err)
	}

	return r.Commit(ctx, tx)
}

// EntriesForAccount retrieves all entries for an account, oldest first.
func (r *PgxLedgerRepository) EntriesForAccount(ctx context.Context, tenantID, accountID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY created_at, entry_id;
	`
	var result []domain.LedgerEntry
	err := r.withRetry(ctx, "list entries for account "+accountID, func() error {
		rows, err := r.Pool.Query(ctx, query, tenantID, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelEntries, err := scanEntries(rows)
		if err != nil {
			return err
		}
		result, err = mapping.ToDomainLedgerEntrySlice(modelEntries)
		return err
	})
	if err != nil {
		return nil, wrapQueryError("failed to list entries for account "+accountID, err)
	}
	return result, nil
}

// EntriesForAccountPage retrieves a keyset-paginated page of entries, newest
// first. The cursor pair is (created_at, entry_id) so pages stay stable when
// timestamps collide.
func (r *PgxLedgerRepository) EntriesForAccountPage(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2
	`
	orderByClause := `ORDER BY created_at DESC, entry_id DESC`

	args := []interface{}{tenantID, accountID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastEntryID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, entry_id) < ($3, $4)`
		args = append(args, lastCreatedAt, lastEntryID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	var modelEntries []models.LedgerEntry
	err := r.withRetry(ctx, "page entries for account "+accountID, func() error {
		rows, err := r.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelEntries, err = scanEntries(rows)
		return err
	})
	if err != nil {
		return nil, nil, wrapQueryError("failed to page entries for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(modelEntries) > limit {
		last := modelEntries[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextTokenVal = &token
		modelEntries = modelEntries[:limit]
	}

	result, err := mapping.ToDomainLedgerEntrySlice(modelEntries)
	if err != nil {
		return nil, nil, err
	}
	return result, nextTokenVal, nil
}

// EntriesForAccountPeriod retrieves entries within [start, end], oldest
// first, offset-paginated, together with the total period count.
func (r *PgxLedgerRepository) EntriesForAccountPeriod(ctx context.Context, tenantID, accountID string, start, end time.Time, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	countQuery := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2 AND created_at >= $3 AND created_at <= $4;
	`
	listQuery := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2 AND created_at >= $3 AND created_at <= $4
		ORDER BY created_at, entry_id
		LIMIT $5 OFFSET $6;
	`

	var totalCount int64
	var result []domain.LedgerEntry
	err := r.withRetry(ctx, "list period entries for account "+accountID, func() error {
		if err := r.Pool.QueryRow(ctx, countQuery, tenantID, accountID, start, end).Scan(&totalCount); err != nil {
			return err
		}

		rows, err := r.Pool.Query(ctx, listQuery, tenantID, accountID, start, end, pageSize, (page-1)*pageSize)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelEntries, err := scanEntries(rows)
		if err != nil {
			return err
		}
		result, err = mapping.ToDomainLedgerEntrySlice(modelEntries)
		return err
	})
	if err != nil {
		return nil, 0, wrapQueryError("failed to list period entries for account "+accountID, err)
	}
	return result, totalCount, nil
}

// AccountBalance computes the receivable balance: AR debits minus AR credits
// over all entries. The aggregation runs in the database; entries are never
// mutated to keep a materialized balance.
func (r *PgxLedgerRepository) AccountBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(debit_amount - credit_amount), 0)
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2 AND ledger_account = $3;
	`
	var balance decimal.Decimal
	err := r.withRetry(ctx, "compute balance for account "+accountID, func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, accountID, string(domain.AccountsReceivable)).Scan(&balance)
	})
	if err != nil {
		return decimal.Zero, wrapQueryError("failed to compute balance for account "+accountID, err)
	}
	return balance, nil
}

// AccountBalanceAsOf computes the receivable balance over entries with
// created_at <= asOf.
func (r *PgxLedgerRepository) AccountBalanceAsOf(ctx context.Context, tenantID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(debit_amount - credit_amount), 0)
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2 AND ledger_account = $3 AND created_at <= $4;
	`
	var balance decimal.Decimal
	err := r.withRetry(ctx, "compute historical balance for account "+accountID, func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, accountID, string(domain.AccountsReceivable), asOf).Scan(&balance)
	})
	if err != nil {
		return decimal.Zero, wrapQueryError("failed to compute historical balance for account "+accountID, err)
	}
	return balance, nil
}

// RideAlreadyCharged reports whether a ride charge exists for (account, ride).
func (r *PgxLedgerRepository) RideAlreadyCharged(ctx context.Context, tenantID, accountID, rideID string) (bool, error) {
	return r.sourceExists(ctx, tenantID, accountID, string(domain.SourceRideCharge), rideID)
}

// PaymentAlreadyRecorded reports whether a payment reference was already posted.
func (r *PgxLedgerRepository) PaymentAlreadyRecorded(ctx context.Context, tenantID, accountID, paymentReference string) (bool, error) {
	return r.sourceExists(ctx, tenantID, accountID, string(domain.SourcePayment), paymentReference)
}

func (r *PgxLedgerRepository) sourceExists(ctx context.Context, tenantID, accountID, sourceType, sourceReferenceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries
			WHERE tenant_id = $1 AND account_id = $2 AND source_type = $3 AND source_reference_id = $4
		);
	`
	var exists bool
	err := r.withRetry(ctx, "check source existence for account "+accountID, func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, accountID, sourceType, sourceReferenceID).Scan(&exists)
	})
	if err != nil {
		return false, wrapQueryError("failed to check source existence for account "+accountID, err)
	}
	return exists, nil
}

// UnbilledRideCharges retrieves the AR debit side of ride charges within the
// period whose ride ids are not in billedRideIDs, oldest first.
func (r *PgxLedgerRepository) UnbilledRideCharges(ctx context.Context, tenantID, accountID string, start, end time.Time, billedRideIDs []string) ([]domain.LedgerEntry, error) {
	if billedRideIDs == nil {
		billedRideIDs = []string{}
	}
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND account_id = $2
		  AND source_type = $3 AND ledger_account = $4
		  AND created_at >= $5 AND created_at <= $6
		  AND source_reference_id <> ALL($7)
		ORDER BY created_at, entry_id;
	`
	var result []domain.LedgerEntry
	err := r.withRetry(ctx, "list unbilled rides for account "+accountID, func() error {
		rows, err := r.Pool.Query(ctx, query,
			tenantID, accountID,
			string(domain.SourceRideCharge), string(domain.AccountsReceivable),
			start, end, billedRideIDs,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelEntries, err := scanEntries(rows)
		if err != nil {
			return err
		}
		result, err = mapping.ToDomainLedgerEntrySlice(modelEntries)
		return err
	})
	if err != nil {
		return nil, wrapQueryError("failed to list unbilled rides for account "+accountID, err)
	}
	return result, nil
}

func scanEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	for rows.Next() {
		var m models.LedgerEntry
		if err := rows.Scan(
			&m.EntryID,
			&m.AccountID,
			&m.TenantID,
			&m.LedgerAccount,
			&m.DebitAmount,
			&m.CreditAmount,
			&m.SourceType,
			&m.SourceReferenceID,
			&m.Description,
			&m.CreatedAt,
			&m.CreatedBy,
		); err != nil {
			return nil, err
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// wrapQueryError passes already-classified errors through and wraps the rest
// as internal failures.
func wrapQueryError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, apperrors.ErrTransient) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.NewAppError(500, msg, err)
}
