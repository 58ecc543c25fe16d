package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/core/services"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StatementServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         *services.StatementService

	tenantID string
	account  *domain.Account
}

func (suite *StatementServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewStatementService(suite.mockLedgerRepo, suite.mockAccountRepo)
	suite.tenantID = uuid.NewString()

	account, err := domain.NewAccount(suite.tenantID, "Harbor Logistics", domain.Organization, domain.Monthly, uuid.NewString(), time.Now())
	suite.Require().NoError(err)
	suite.account = &account
}

func (suite *StatementServiceTestSuite) TestBuildStatement_Success() {
	ctx := context.Background()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	params := dto.StatementParams{StartDate: start, EndDate: end, Page: 1, PageSize: 50}

	opening := decimal.RequireFromString("100.0000")
	closing := decimal.RequireFromString("150.0000")

	amount, err := domain.NewMoneyFromString("50.00")
	suite.Require().NoError(err)
	entry, err := domain.NewDebitEntry(suite.account.AccountID, suite.tenantID, domain.AccountsReceivable, amount, domain.SourceRideCharge, uuid.NewString(), "ride", "user", start.Add(time.Hour))
	suite.Require().NoError(err)

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	// Opening is computed the instant before the period begins, so entries
	// stamped exactly at the boundary count toward the period, not before it.
	suite.mockLedgerRepo.On("AccountBalanceAsOf", ctx, suite.tenantID, suite.account.AccountID, start.Add(-time.Nanosecond)).Return(opening, nil).Once()
	suite.mockLedgerRepo.On("AccountBalanceAsOf", ctx, suite.tenantID, suite.account.AccountID, end).Return(closing, nil).Once()
	suite.mockLedgerRepo.On("EntriesForAccountPeriod", ctx, suite.tenantID, suite.account.AccountID, start, end, 1, 50).Return([]domain.LedgerEntry{entry}, int64(1), nil).Once()

	statement, err := suite.service.BuildStatement(ctx, suite.tenantID, suite.account.AccountID, params)

	suite.Require().NoError(err)
	suite.Equal(suite.account.AccountID, statement.AccountID)
	suite.Equal(suite.account.Name, statement.AccountName)
	suite.True(opening.Equal(statement.OpeningBalance))
	suite.True(closing.Equal(statement.ClosingBalance))
	suite.Require().Len(statement.Transactions, 1)
	suite.Equal(int64(1), statement.TotalCount)
	suite.Equal(1, statement.Page)
	suite.Equal(50, statement.PageSize)

	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestBuildStatement_DefaultsPaging() {
	ctx := context.Background()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	params := dto.StatementParams{StartDate: start, EndDate: end}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("AccountBalanceAsOf", ctx, suite.tenantID, suite.account.AccountID, start.Add(-time.Nanosecond)).Return(decimal.Zero, nil).Once()
	suite.mockLedgerRepo.On("AccountBalanceAsOf", ctx, suite.tenantID, suite.account.AccountID, end).Return(decimal.Zero, nil).Once()
	suite.mockLedgerRepo.On("EntriesForAccountPeriod", ctx, suite.tenantID, suite.account.AccountID, start, end, 1, 50).Return([]domain.LedgerEntry{}, int64(0), nil).Once()

	statement, err := suite.service.BuildStatement(ctx, suite.tenantID, suite.account.AccountID, params)

	suite.Require().NoError(err)
	suite.Equal(1, statement.Page)
	suite.Equal(50, statement.PageSize)
	suite.True(statement.OpeningBalance.IsZero())
	suite.True(statement.ClosingBalance.IsZero())
}

func (suite *StatementServiceTestSuite) TestBuildStatement_InvalidPeriod() {
	ctx := context.Background()
	start := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	params := dto.StatementParams{StartDate: start, EndDate: start}

	statement, err := suite.service.BuildStatement(ctx, suite.tenantID, suite.account.AccountID, params)

	suite.Require().Error(err)
	suite.Nil(statement)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *StatementServiceTestSuite) TestBuildStatement_UnknownAccount() {
	ctx := context.Background()
	accountID := uuid.NewString()
	params := dto.StatementParams{
		StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).Return(nil, apperrors.ErrNotFound).Once()

	statement, err := suite.service.BuildStatement(ctx, suite.tenantID, accountID, params)

	suite.Require().Error(err)
	suite.Nil(statement)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestStatementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatementServiceTestSuite))
}
