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
	"github.com/rideledger/ride_billing_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// TransactionService posts balanced entry pairs to the append-only ledger.
// Every posting is atomic with its outbox event; partial writes never commit.
type TransactionService struct {
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountReader
}

// NewTransactionService creates a TransactionService backed by the given repositories.
func NewTransactionService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountRepo portsrepo.AccountReader) *TransactionService {
	return &TransactionService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// transactionEventPayload is the outbox payload for posted entry pairs.
type transactionEventPayload struct {
	EntryIDs          []string           `json:"entryIDs"`
	AccountID         string             `json:"accountID"`
	SourceType        domain.SourceType  `json:"sourceType"`
	SourceReferenceID string             `json:"sourceReferenceID"`
	Amount            decimal.Decimal    `json:"amount"`
	PostedAt          time.Time          `json:"postedAt"`
}

// PostRideCharge records a completed ride against an account: debit
// ACCOUNTS_RECEIVABLE, credit SERVICE_REVENUE. The rideID is the idempotency
// key; a repeat for the same account returns a DUPLICATE_TRANSACTION conflict.
func (s *TransactionService) PostRideCharge(ctx context.Context, tenantID, accountID string, req dto.RideChargeRequest, userID string) ([]domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount, err := domain.NewMoney(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, apperrors.NewValidationError("ride charge amount must be positive")
	}

	account, err := s.loadActiveAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	charged, err := s.ledgerRepo.RideAlreadyCharged(ctx, tenantID, accountID, req.RideID)
	if err != nil {
		logger.Error("Failed to probe for existing ride charge", slog.String("error", err.Error()), slog.String("ride_id", req.RideID))
		return nil, fmt.Errorf("failed to check ride charge: %w", err)
	}
	if charged {
		return nil, apperrors.NewConflictError(apperrors.CodeDuplicateTransaction, fmt.Sprintf("ride %s already charged to account %s", req.RideID, accountID))
	}

	now := time.Now()
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Ride charge %s", req.RideID)
	}

	debit, err := domain.NewDebitEntry(accountID, tenantID, domain.AccountsReceivable, amount, domain.SourceRideCharge, req.RideID, description, userID, now)
	if err != nil {
		return nil, err
	}
	credit, err := domain.NewCreditEntry(accountID, tenantID, domain.ServiceRevenue, amount, domain.SourceRideCharge, req.RideID, description, userID, now)
	if err != nil {
		return nil, err
	}

	return s.post(ctx, account, []domain.LedgerEntry{debit, credit}, domain.EventLedgerEntryCreated, now)
}

// PostPayment records a payment received against an account: debit CASH,
// credit ACCOUNTS_RECEIVABLE. The paymentReference is the idempotency key.
func (s *TransactionService) PostPayment(ctx context.Context, tenantID, accountID string, req dto.PaymentRequest, userID string) ([]domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount, err := domain.NewMoney(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, apperrors.NewValidationError("payment amount must be positive")
	}

	account, err := s.loadActiveAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	recorded, err := s.ledgerRepo.PaymentAlreadyRecorded(ctx, tenantID, accountID, req.PaymentReference)
	if err != nil {
		logger.Error("Failed to probe for existing payment", slog.String("error", err.Error()), slog.String("payment_reference", req.PaymentReference))
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}
	if recorded {
		return nil, apperrors.NewConflictError(apperrors.CodeDuplicateTransaction, fmt.Sprintf("payment %s already recorded for account %s", req.PaymentReference, accountID))
	}

	now := time.Now()
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Payment %s", req.PaymentReference)
	}

	debit, err := domain.NewDebitEntry(accountID, tenantID, domain.Cash, amount, domain.SourcePayment, req.PaymentReference, description, userID, now)
	if err != nil {
		return nil, err
	}
	credit, err := domain.NewCreditEntry(accountID, tenantID, domain.AccountsReceivable, amount, domain.SourcePayment, req.PaymentReference, description, userID, now)
	if err != nil {
		return nil, err
	}

	return s.post(ctx, account, []domain.LedgerEntry{debit, credit}, domain.EventPaymentReceived, now)
}

// post validates the pair, builds the outbox event and commits all three
// rows in one storage transaction.
func (s *TransactionService) post(ctx context.Context, account *domain.Account, entries []domain.LedgerEntry, eventType domain.EventType, now time.Time) ([]domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := accounting.ValidateTransactionPair(entries); err != nil {
		logger.Error("Refusing to post unbalanced entry pair", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, apperrors.NewInvariantError(apperrors.CodeUnbalancedTransaction, "transaction pair failed invariant checks", err)
	}

	payload, err := json.Marshal(transactionEventPayload{
		EntryIDs:          []string{entries[0].EntryID, entries[1].EntryID},
		AccountID:         account.AccountID,
		SourceType:        entries[0].SourceType,
		SourceReferenceID: entries[0].SourceReferenceID,
		Amount:            entries[0].Amount().Amount(),
		PostedAt:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal transaction event: %v", apperrors.ErrInternal, err)
	}
	event := domain.NewOutboxEvent(eventType, account.TenantID, payload, now)

	if err := s.ledgerRepo.Append(ctx, entries, event); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the race against a concurrent posting of the same source.
			return nil, apperrors.NewConflictError(apperrors.CodeDuplicateTransaction, fmt.Sprintf("source %s already posted to account %s", entries[0].SourceReferenceID, account.AccountID))
		}
		logger.Error("Failed to append ledger entries", slog.String("error", err.Error()), slog.String("account_id", account.AccountID), slog.String("source_reference_id", entries[0].SourceReferenceID))
		return nil, err
	}

	logger.Info("Posted ledger entry pair",
		slog.String("account_id", account.AccountID),
		slog.String("source_type", string(entries[0].SourceType)),
		slog.String("source_reference_id", entries[0].SourceReferenceID),
		slog.String("amount", entries[0].Amount().String()),
	)
	return entries, nil
}

// loadActiveAccount fetches the account and rejects postings to inactive ones.
func (s *TransactionService) loadActiveAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load account for posting", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	if !account.IsActive() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("account %s is inactive", accountID))
	}
	return account, nil
}

// ListEntriesByAccount retrieves a token-paginated list of entries.
func (s *TransactionService) ListEntriesByAccount(ctx context.Context, tenantID, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.ledgerRepo.EntriesForAccountPage(ctx, tenantID, accountID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list ledger entries", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}
