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

// AccountService manages billing account lifecycle and receivable balances.
type AccountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerReader
	outboxRepo  portsrepo.OutboxWriter
}

// NewAccountService creates an AccountService backed by the given repositories.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerReader, outboxRepo portsrepo.OutboxWriter) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
	}
}

// CreateAccount persists a new billing account and emits an ACCOUNT_CREATED event.
func (s *AccountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	exists, err := s.accountRepo.ExistsByName(ctx, tenantID, req.Name)
	if err != nil {
		logger.Error("Failed to check account name uniqueness", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to check account name: %w", err)
	}
	if exists {
		return nil, apperrors.NewConflictError(apperrors.CodeDuplicateAccount, fmt.Sprintf("account named %q already exists", req.Name))
	}

	account, err := domain.NewAccount(tenantID, req.Name, req.AccountType, req.InvoiceFrequency, userID, now)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	payload, err := json.Marshal(account)
	if err != nil {
		logger.Error("Failed to marshal account event payload", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to marshal account event: %w", err)
	}
	event := domain.NewOutboxEvent(domain.EventAccountCreated, tenantID, payload, now)
	if err := s.outboxRepo.SaveEvent(ctx, event); err != nil {
		// The account itself committed; the event is bookkeeping. Log loudly
		// but do not fail the creation.
		logger.Error("Failed to save account created event", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("name", account.Name))
	return &account, nil
}

// GetAccountByID retrieves a specific account by its unique identifier.
func (s *AccountService) GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves a token-paginated list of accounts for a tenant.
func (s *AccountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	accounts, nextToken, err := s.accountRepo.ListAccounts(ctx, tenantID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list accounts from repository", slog.String("error", err.Error()), slog.Int("limit", limit))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return &dto.ListAccountsResponse{
		Accounts:  dto.ToListAccountResponse(accounts),
		NextToken: nextToken,
	}, nil
}

// ActivateAccount marks an account as active. Idempotent.
func (s *AccountService) ActivateAccount(ctx context.Context, tenantID, accountID, userID string) (*domain.Account, error) {
	return s.setStatus(ctx, tenantID, accountID, userID, true)
}

// DeactivateAccount marks an account as inactive. Idempotent.
func (s *AccountService) DeactivateAccount(ctx context.Context, tenantID, accountID, userID string) (*domain.Account, error) {
	return s.setStatus(ctx, tenantID, accountID, userID, false)
}

func (s *AccountService) setStatus(ctx context.Context, tenantID, accountID, userID string, active bool) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account for status change", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	if active {
		account.Activate(userID, now)
	} else {
		account.Deactivate(userID, now)
	}

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account status", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, err
	}

	logger.Info("Account status changed", slog.String("account_id", accountID), slog.String("status", string(account.Status)))
	return account, nil
}

// CalculateReceivableBalance computes the outstanding receivable balance of
// an account from its ledger entries.
func (s *AccountService) CalculateReceivableBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.ledgerRepo.AccountBalance(ctx, tenantID, accountID)
	if err != nil {
		logger.Error("Failed to compute receivable balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

// CalculateReceivableBalanceAsOf computes the balance over entries posted at
// or before asOf.
func (s *AccountService) CalculateReceivableBalanceAsOf(ctx context.Context, tenantID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.ledgerRepo.AccountBalanceAsOf(ctx, tenantID, accountID, asOf)
	if err != nil {
		logger.Error("Failed to compute historical balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}
