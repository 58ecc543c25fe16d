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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	var accounts []domain.Account
	if args.Get(0) != nil {
		accounts = args.Get(0).([]domain.Account)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return accounts, token, args.Error(2)
}

func (m *MockAccountRepository) ExistsByName(ctx context.Context, tenantID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) FindByInvoiceFrequency(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// MockOutboxWriter is a mock type for the OutboxWriter interface
type MockOutboxWriter struct {
	mock.Mock
}

func (m *MockOutboxWriter) SaveEvent(ctx context.Context, event domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxWriter) MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error {
	args := m.Called(ctx, eventID, processedAt)
	return args.Error(0)
}

func (m *MockOutboxWriter) MarkFailed(ctx context.Context, eventID string, errorMessage string) error {
	args := m.Called(ctx, eventID, errorMessage)
	return args.Error(0)
}

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockLedgerRepo  *MockLedgerRepository
	mockOutbox      *MockOutboxWriter
	service         *services.AccountService

	tenantID string
	userID   string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockOutbox = new(MockOutboxWriter)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockLedgerRepo, suite.mockOutbox)
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:             "Acme Corp",
		AccountType:      domain.Organization,
		InvoiceFrequency: domain.Monthly,
	}

	suite.mockAccountRepo.On("ExistsByName", ctx, suite.tenantID, req.Name).Return(false, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	suite.mockOutbox.On("SaveEvent", ctx, mock.MatchedBy(func(e domain.OutboxEvent) bool {
		return e.EventType == domain.EventAccountCreated && e.TenantID == suite.tenantID
	})).Return(nil).Once()

	created, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.AccountID)
	suite.Equal(req.Name, created.Name)
	suite.Equal(domain.Organization, created.AccountType)
	suite.Equal(domain.Monthly, created.InvoiceFrequency)
	suite.Equal(domain.AccountActive, created.Status)
	suite.Equal(suite.userID, created.CreatedBy)
	suite.WithinDuration(time.Now(), created.CreatedAt, time.Second)

	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateName() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:             "Acme Corp",
		AccountType:      domain.Organization,
		InvoiceFrequency: domain.Weekly,
	}

	suite.mockAccountRepo.On("ExistsByName", ctx, suite.tenantID, req.Name).Return(true, nil).Once()

	created, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrConflict)
	var appErr *apperrors.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal(apperrors.CodeDuplicateAccount, appErr.Code)

	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidFrequency() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:             "Bad Frequency Inc",
		AccountType:      domain.Organization,
		InvoiceFrequency: domain.InvoiceFrequency("FORTNIGHTLY"),
	}

	suite.mockAccountRepo.On("ExistsByName", ctx, suite.tenantID, req.Name).Return(false, nil).Once()

	created, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_NotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.GetAccountByID(ctx, suite.tenantID, accountID)

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	account := suite.newActiveAccount()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Status == domain.AccountInactive && a.LastUpdatedBy == suite.userID
	})).Return(nil).Once()

	updated, err := suite.service.DeactivateAccount(ctx, suite.tenantID, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.AccountInactive, updated.Status)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestActivateAccount_AlreadyActive() {
	ctx := context.Background()
	account := suite.newActiveAccount()
	originalUpdatedBy := account.LastUpdatedBy

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	updated, err := suite.service.ActivateAccount(ctx, suite.tenantID, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.AccountActive, updated.Status)
	// Idempotent: no audit churn when the status did not change.
	suite.Equal(originalUpdatedBy, updated.LastUpdatedBy)
}

func (suite *AccountServiceTestSuite) TestCalculateReceivableBalance() {
	ctx := context.Background()
	account := suite.newActiveAccount()
	expected := decimal.RequireFromString("125.7500")

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockLedgerRepo.On("AccountBalance", ctx, suite.tenantID, account.AccountID).Return(expected, nil).Once()

	balance, err := suite.service.CalculateReceivableBalance(ctx, suite.tenantID, account.AccountID)

	suite.Require().NoError(err)
	suite.True(expected.Equal(balance))
}

func (suite *AccountServiceTestSuite) TestCalculateReceivableBalance_UnknownAccount() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CalculateReceivableBalance(ctx, suite.tenantID, accountID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AccountBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestListAccounts_RepositoryError() {
	ctx := context.Background()

	suite.mockAccountRepo.On("ListAccounts", ctx, suite.tenantID, 20, (*string)(nil)).Return(nil, nil, assert.AnError).Once()

	resp, err := suite.service.ListAccounts(ctx, suite.tenantID, dto.ListAccountsParams{})

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, assert.AnError)
}

func (suite *AccountServiceTestSuite) newActiveAccount() *domain.Account {
	account, err := domain.NewAccount(suite.tenantID, "Acme Corp", domain.Organization, domain.Monthly, uuid.NewString(), time.Now())
	suite.Require().NoError(err)
	return &account
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
