package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/models"
	"github.com/rideledger/ride_billing_app/internal/utils/mapping"
	"github.com/rideledger/ride_billing_app/internal/utils/pagination"
)

const accountColumns = `account_id, tenant_id, name, account_type, status, invoice_frequency, currency_code,
       created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository implements account storage on PostgreSQL.
type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// SaveAccount persists a new account. A name collision within the tenant
// surfaces as ErrDuplicate.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO billing_accounts (
			account_id, tenant_id, name, account_type, status, invoice_frequency, currency_code,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	m := mapping.ToModelAccount(account)
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.TenantID,
		m.Name,
		m.AccountType,
		m.Status,
		m.InvoiceFrequency,
		m.CurrencyCode,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account name %q already exists", apperrors.ErrDuplicate, account.Name)
		}
		if isTransient(err) {
			return fmt.Errorf("%w: failed to save account: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to save account", err)
	}
	return nil
}

// UpdateAccount updates the mutable fields of an existing account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE billing_accounts
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE tenant_id = $1 AND account_id = $2;
	`
	m := mapping.ToModelAccount(account)
	tag, err := r.Pool.Exec(ctx, query, m.TenantID, m.AccountID, m.Status, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: failed to update account: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to update account", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s not found", apperrors.ErrNotFound, account.AccountID)
	}
	return nil
}

// FindAccountByID retrieves an account within a tenant.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM billing_accounts
		WHERE tenant_id = $1 AND account_id = $2;
	`
	var m models.Account
	err := r.withRetry(ctx, "find account "+accountID, func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, accountID).Scan(
			&m.AccountID,
			&m.TenantID,
			&m.Name,
			&m.AccountType,
			&m.Status,
			&m.InvoiceFrequency,
			&m.CurrencyCode,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s not found", apperrors.ErrNotFound, accountID)
		}
		return nil, wrapQueryError("failed to find account "+accountID, err)
	}
	account := mapping.ToDomainAccount(m)
	return &account, nil
}

// ListAccounts retrieves a keyset-paginated page of accounts for a tenant,
// newest first.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `
		SELECT ` + accountColumns + `
		FROM billing_accounts
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastAccountID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, account_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastAccountID)
	}
	query += ` ORDER BY created_at DESC, account_id DESC LIMIT $` + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	var modelAccounts []models.Account
	err := r.withRetry(ctx, "list accounts", func() error {
		rows, err := r.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelAccounts, err = scanAccounts(rows)
		return err
	})
	if err != nil {
		return nil, nil, wrapQueryError("failed to list accounts", err)
	}

	var nextTokenVal *string
	if len(modelAccounts) > limit {
		last := modelAccounts[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.AccountID)
		nextTokenVal = &token
		modelAccounts = modelAccounts[:limit]
	}
	return mapping.ToDomainAccountSlice(modelAccounts), nextTokenVal, nil
}

// ExistsByName reports whether the tenant already has an account with this name.
func (r *PgxAccountRepository) ExistsByName(ctx context.Context, tenantID, name string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM billing_accounts WHERE tenant_id = $1 AND name = $2
		);
	`
	var exists bool
	err := r.withRetry(ctx, "check account name", func() error {
		return r.Pool.QueryRow(ctx, query, tenantID, name).Scan(&exists)
	})
	if err != nil {
		return false, wrapQueryError("failed to check account name", err)
	}
	return exists, nil
}

// FindByInvoiceFrequency retrieves all active accounts with the given
// invoicing frequency for a tenant.
func (r *PgxAccountRepository) FindByInvoiceFrequency(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM billing_accounts
		WHERE tenant_id = $1 AND invoice_frequency = $2 AND status = $3
		ORDER BY created_at, account_id;
	`
	var modelAccounts []models.Account
	err := r.withRetry(ctx, "list accounts by frequency", func() error {
		rows, err := r.Pool.Query(ctx, query, tenantID, string(frequency), string(domain.AccountActive))
		if err != nil {
			return err
		}
		defer rows.Close()

		modelAccounts, err = scanAccounts(rows)
		return err
	})
	if err != nil {
		return nil, wrapQueryError("failed to list accounts by frequency", err)
	}
	return mapping.ToDomainAccountSlice(modelAccounts), nil
}

// ActiveTenantIDs lists the tenants that own at least one active account.
// Scheduled billing passes iterate over this set.
func (r *PgxAccountRepository) ActiveTenantIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM billing_accounts
		WHERE status = $1
		ORDER BY tenant_id;
	`
	tenantIDs := []string{}
	err := r.withRetry(ctx, "list active tenants", func() error {
		rows, err := r.Pool.Query(ctx, query, string(domain.AccountActive))
		if err != nil {
			return err
		}
		defer rows.Close()

		tenantIDs = tenantIDs[:0]
		for rows.Next() {
			var tenantID string
			if err := rows.Scan(&tenantID); err != nil {
				return err
			}
			tenantIDs = append(tenantIDs, tenantID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapQueryError("failed to list active tenants", err)
	}
	return tenantIDs, nil
}

func scanAccounts(rows pgx.Rows) ([]models.Account, error) {
	accounts := []models.Account{}
	for rows.Next() {
		var m models.Account
		if err := rows.Scan(
			&m.AccountID,
			&m.TenantID,
			&m.Name,
			&m.AccountType,
			&m.Status,
			&m.InvoiceFrequency,
			&m.CurrencyCode,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
