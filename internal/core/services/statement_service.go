package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// StatementService assembles account statements from the ledger. A statement
// is a pure read: opening balance, closing balance and the entries between.
type StatementService struct {
	ledgerRepo  portsrepo.LedgerReader
	accountRepo portsrepo.AccountReader
}

// NewStatementService creates a StatementService backed by the given repositories.
func NewStatementService(ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader) *StatementService {
	return &StatementService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// BuildStatement assembles the opening balance, closing balance and a page of
// entries for the requested period. Opening is the balance the instant before
// the period starts; closing is the balance at its end. The two always agree
// with the full entry set: closing = opening + net effect of period entries.
func (s *StatementService) BuildStatement(ctx context.Context, tenantID, accountID string, params dto.StatementParams) (*domain.Statement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !params.EndDate.After(params.StartDate) {
		return nil, apperrors.NewValidationError("statement period end must be after start")
	}

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load account for statement", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	opening, err := s.ledgerRepo.AccountBalanceAsOf(ctx, tenantID, accountID, params.StartDate.Add(-time.Nanosecond))
	if err != nil {
		logger.Error("Failed to compute opening balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to compute opening balance: %w", err)
	}

	closing, err := s.ledgerRepo.AccountBalanceAsOf(ctx, tenantID, accountID, params.EndDate)
	if err != nil {
		logger.Error("Failed to compute closing balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to compute closing balance: %w", err)
	}

	entries, totalCount, err := s.ledgerRepo.EntriesForAccountPeriod(ctx, tenantID, accountID, params.StartDate, params.EndDate, page, pageSize)
	if err != nil {
		logger.Error("Failed to list statement entries", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list statement entries: %w", err)
	}

	return &domain.Statement{
		AccountID:      accountID,
		AccountName:    account.Name,
		PeriodStart:    params.StartDate,
		PeriodEnd:      params.EndDate,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   entries,
		TotalCount:     totalCount,
		Page:           page,
		PageSize:       pageSize,
	}, nil
}
