package repositories

import (
	"context"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations over committed ledger entries.
// All reads are snapshot reads; no write locks are held.
type LedgerReader interface {
	// EntriesForAccount retrieves all entries for an account within a tenant,
	// ordered by (created_at, entry_id) so results are deterministic even
	// when timestamps collide.
	EntriesForAccount(ctx context.Context, tenantID, accountID string) ([]domain.LedgerEntry, error)

	// EntriesForAccountPage retrieves a keyset-paginated page of entries.
	// It returns the entries, a token for the next page, and an error.
	EntriesForAccountPage(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// EntriesForAccountPeriod retrieves entries with start <= created_at <= end,
	// ordered by (created_at, entry_id), paginated by page/pageSize, together
	// with the total count of entries in the period.
	EntriesForAccountPeriod(ctx context.Context, tenantID, accountID string, start, end time.Time, page, pageSize int) ([]domain.LedgerEntry, int64, error)

	// AccountBalance computes the accounts-receivable balance for an account:
	// sum of AR debits minus sum of AR credits over all entries.
	AccountBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error)

	// AccountBalanceAsOf computes the AR balance over entries with
	// created_at <= asOf.
	AccountBalanceAsOf(ctx context.Context, tenantID, accountID string, asOf time.Time) (decimal.Decimal, error)

	// RideAlreadyCharged reports whether a ride charge entry already exists
	// for (account, ride). This is a fast-path probe only; the storage
	// uniqueness constraint remains the source of truth under races.
	RideAlreadyCharged(ctx context.Context, tenantID, accountID, rideID string) (bool, error)

	// PaymentAlreadyRecorded reports whether a payment with the given
	// reference was already posted against the account.
	PaymentAlreadyRecorded(ctx context.Context, tenantID, accountID, paymentReference string) (bool, error)

	// UnbilledRideCharges retrieves AR debit entries of source type
	// RIDE_CHARGE within the period whose ride ids are not in billedRideIDs.
	UnbilledRideCharges(ctx context.Context, tenantID, accountID string, start, end time.Time, billedRideIDs []string) ([]domain.LedgerEntry, error)
}

// LedgerWriter defines the single write operation of the append-only store.
// There is deliberately no update or delete method: entries are write-once,
// and the pgsql implementation rejects any such attempt as well.
type LedgerWriter interface {
	// Append atomically persists a balanced entry pair together with the
	// outbox event describing it. Either all three rows commit or none do.
	// A uniqueness violation on (account_id, source_reference_id,
	// ledger_account) surfaces as apperrors.ErrDuplicate.
	Append(ctx context.Context, entries []domain.LedgerEntry, event domain.OutboxEvent) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
