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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) EntriesForAccount(ctx context.Context, tenantID, accountID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) EntriesForAccountPage(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, tenantID, accountID, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockLedgerRepository) EntriesForAccountPeriod(ctx context.Context, tenantID, accountID string, start, end time.Time, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, tenantID, accountID, start, end, page, pageSize)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) AccountBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) AccountBalanceAsOf(ctx context.Context, tenantID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) RideAlreadyCharged(ctx context.Context, tenantID, accountID, rideID string) (bool, error) {
	args := m.Called(ctx, tenantID, accountID, rideID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) PaymentAlreadyRecorded(ctx context.Context, tenantID, accountID, paymentReference string) (bool, error) {
	args := m.Called(ctx, tenantID, accountID, paymentReference)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) UnbilledRideCharges(ctx context.Context, tenantID, accountID string, start, end time.Time, billedRideIDs []string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, accountID, start, end, billedRideIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Append(ctx context.Context, entries []domain.LedgerEntry, event domain.OutboxEvent) error {
	args := m.Called(ctx, entries, event)
	return args.Error(0)
}

// --- Test Suite Setup ---

type TransactionServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         *services.TransactionService

	tenantID string
	userID   string
	account  *domain.Account
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewTransactionService(suite.mockLedgerRepo, suite.mockAccountRepo)
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()

	account, err := domain.NewAccount(suite.tenantID, "City Cab Corp", domain.Organization, domain.Monthly, suite.userID, time.Now())
	suite.Require().NoError(err)
	suite.account = &account
}

// --- Test Cases ---

func (suite *TransactionServiceTestSuite) TestPostRideCharge_Success() {
	ctx := context.Background()
	rideID := uuid.NewString()
	req := dto.RideChargeRequest{
		RideID: rideID,
		Amount: decimal.RequireFromString("25.50"),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("RideAlreadyCharged", ctx, suite.tenantID, suite.account.AccountID, rideID).Return(false, nil).Once()
	suite.mockLedgerRepo.On("Append", ctx, mock.AnythingOfType("[]domain.LedgerEntry"), mock.MatchedBy(func(e domain.OutboxEvent) bool {
		return e.EventType == domain.EventLedgerEntryCreated && e.TenantID == suite.tenantID
	})).Return(nil).Once()

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	debit, credit := entries[0], entries[1]
	suite.Equal(domain.AccountsReceivable, debit.LedgerAccount)
	suite.Equal(domain.Debit, debit.Side())
	suite.Equal(domain.ServiceRevenue, credit.LedgerAccount)
	suite.Equal(domain.Credit, credit.Side())
	suite.Equal("25.5000", debit.DebitAmount.String())
	suite.Equal("25.5000", credit.CreditAmount.String())
	suite.Equal(rideID, debit.SourceReferenceID)
	suite.Equal(rideID, credit.SourceReferenceID)
	suite.Equal(domain.SourceRideCharge, debit.SourceType)
	suite.Equal(debit.CreatedAt, credit.CreatedAt)

	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_DuplicateRide() {
	ctx := context.Background()
	rideID := uuid.NewString()
	req := dto.RideChargeRequest{RideID: rideID, Amount: decimal.RequireFromString("10.00")}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("RideAlreadyCharged", ctx, suite.tenantID, suite.account.AccountID, rideID).Return(true, nil).Once()

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	var appErr *apperrors.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal(apperrors.CodeDuplicateTransaction, appErr.Code)
	suite.Equal(409, appErr.Status)

	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Append", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_DuplicateLostRace() {
	// The fast-path probe misses but the storage unique constraint catches
	// the concurrent duplicate on commit.
	ctx := context.Background()
	rideID := uuid.NewString()
	req := dto.RideChargeRequest{RideID: rideID, Amount: decimal.RequireFromString("10.00")}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("RideAlreadyCharged", ctx, suite.tenantID, suite.account.AccountID, rideID).Return(false, nil).Once()
	suite.mockLedgerRepo.On("Append", ctx, mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	var appErr *apperrors.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal(apperrors.CodeDuplicateTransaction, appErr.Code)
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_NegativeAmount() {
	ctx := context.Background()
	req := dto.RideChargeRequest{RideID: uuid.NewString(), Amount: decimal.RequireFromString("-5.00")}

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_ZeroAmount() {
	ctx := context.Background()
	req := dto.RideChargeRequest{RideID: uuid.NewString(), Amount: decimal.Zero}

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_InactiveAccount() {
	ctx := context.Background()
	suite.account.Deactivate(suite.userID, time.Now())
	req := dto.RideChargeRequest{RideID: uuid.NewString(), Amount: decimal.RequireFromString("10.00")}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Append", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestPostRideCharge_UnknownAccount() {
	ctx := context.Background()
	accountID := uuid.NewString()
	req := dto.RideChargeRequest{RideID: uuid.NewString(), Amount: decimal.RequireFromString("10.00")}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).Return(nil, apperrors.ErrNotFound).Once()

	entries, err := suite.service.PostRideCharge(ctx, suite.tenantID, accountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *TransactionServiceTestSuite) TestPostPayment_Success() {
	ctx := context.Background()
	paymentRef := uuid.NewString()
	req := dto.PaymentRequest{
		PaymentReference: paymentRef,
		Amount:           decimal.RequireFromString("100.00"),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("PaymentAlreadyRecorded", ctx, suite.tenantID, suite.account.AccountID, paymentRef).Return(false, nil).Once()
	suite.mockLedgerRepo.On("Append", ctx, mock.AnythingOfType("[]domain.LedgerEntry"), mock.MatchedBy(func(e domain.OutboxEvent) bool {
		return e.EventType == domain.EventPaymentReceived
	})).Return(nil).Once()

	entries, err := suite.service.PostPayment(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	debit, credit := entries[0], entries[1]
	suite.Equal(domain.Cash, debit.LedgerAccount)
	suite.Equal(domain.Debit, debit.Side())
	suite.Equal(domain.AccountsReceivable, credit.LedgerAccount)
	suite.Equal(domain.Credit, credit.Side())
	suite.Equal(domain.SourcePayment, debit.SourceType)
	suite.Equal(paymentRef, debit.SourceReferenceID)
	suite.True(debit.DebitAmount.Equal(credit.CreditAmount))
}

func (suite *TransactionServiceTestSuite) TestPostPayment_DuplicateReference() {
	ctx := context.Background()
	paymentRef := uuid.NewString()
	req := dto.PaymentRequest{PaymentReference: paymentRef, Amount: decimal.RequireFromString("50.00")}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("PaymentAlreadyRecorded", ctx, suite.tenantID, suite.account.AccountID, paymentRef).Return(true, nil).Once()

	entries, err := suite.service.PostPayment(ctx, suite.tenantID, suite.account.AccountID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entries)
	var appErr *apperrors.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal(apperrors.CodeDuplicateTransaction, appErr.Code)
}

func (suite *TransactionServiceTestSuite) TestListEntriesByAccount() {
	ctx := context.Background()
	now := time.Now()
	amount, err := domain.NewMoneyFromString("12.00")
	suite.Require().NoError(err)
	entry, err := domain.NewDebitEntry(suite.account.AccountID, suite.tenantID, domain.AccountsReceivable, amount, domain.SourceRideCharge, uuid.NewString(), "ride", suite.userID, now)
	suite.Require().NoError(err)
	token := "next-page"

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, suite.account.AccountID).Return(suite.account, nil).Once()
	suite.mockLedgerRepo.On("EntriesForAccountPage", ctx, suite.tenantID, suite.account.AccountID, 20, (*string)(nil)).Return([]domain.LedgerEntry{entry}, &token, nil).Once()

	resp, err := suite.service.ListEntriesByAccount(ctx, suite.tenantID, suite.account.AccountID, dto.ListEntriesParams{})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Entries, 1)
	suite.Equal(entry.EntryID, resp.Entries[0].EntryID)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(token, *resp.NextToken)
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
