package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// TransactionHandlerTestSuite reuses the shared router/mock setup.
type TransactionHandlerTestSuite struct {
	AccountHandlerTestSuite
}

func chargePair(tenantID, accountID, rideID, userID string, amount string) []domain.LedgerEntry {
	money, _ := domain.NewMoney(decimal.RequireFromString(amount))
	now := time.Now()
	debit, _ := domain.NewDebitEntry(accountID, tenantID, domain.AccountsReceivable, money, domain.SourceRideCharge, rideID, "Ride charge "+rideID, userID, now)
	credit, _ := domain.NewCreditEntry(accountID, tenantID, domain.ServiceRevenue, money, domain.SourceRideCharge, rideID, "Ride charge "+rideID, userID, now)
	return []domain.LedgerEntry{debit, credit}
}

func (suite *TransactionHandlerTestSuite) TestPostRideCharge_Success() {
	accountID := uuid.NewString()
	rideID := "ride-" + uuid.NewString()
	entries := chargePair(suite.tenantID, accountID, rideID, suite.requestUserID, "25.50")

	suite.mockTxnSvc.On("PostRideCharge",
		mock.Anything,
		suite.tenantID,
		accountID,
		mock.MatchedBy(func(req dto.RideChargeRequest) bool {
			return req.RideID == rideID && req.Amount.Equal(decimal.RequireFromString("25.50"))
		}),
		suite.requestUserID,
	).Return(entries, nil).Once()

	body := `{"rideID":"` + rideID + `","amount":"25.50"}`
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/charges", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 2)
	suite.Equal("ACCOUNTS_RECEIVABLE", resp.Entries[0].LedgerAccount)
	suite.Equal("SERVICE_REVENUE", resp.Entries[1].LedgerAccount)
	suite.mockTxnSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestPostRideCharge_DuplicateRide() {
	accountID := uuid.NewString()
	rideID := "ride-dup"

	suite.mockTxnSvc.On("PostRideCharge", mock.Anything, suite.tenantID, accountID, mock.Anything, suite.requestUserID).
		Return(nil, apperrors.NewConflictError(apperrors.CodeDuplicateTransaction, "ride already charged")).Once()

	body := `{"rideID":"` + rideID + `","amount":"10.00"}`
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/charges", body)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), apperrors.CodeDuplicateTransaction)
}

func (suite *TransactionHandlerTestSuite) TestPostRideCharge_MissingRideID() {
	accountID := uuid.NewString()
	body := `{"amount":"10.00"}`
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/charges", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTxnSvc.AssertNotCalled(suite.T(), "PostRideCharge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestPostRideCharge_InvariantFailureHidesDetail() {
	accountID := uuid.NewString()

	suite.mockTxnSvc.On("PostRideCharge", mock.Anything, suite.tenantID, accountID, mock.Anything, suite.requestUserID).
		Return(nil, apperrors.NewInvariantError(apperrors.CodeUnbalancedTransaction, "transaction pair failed invariant checks", apperrors.ErrInvariant)).Once()

	body := `{"rideID":"ride-broken","amount":"10.00"}`
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/charges", body)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Contains(w.Body.String(), apperrors.CodeUnbalancedTransaction)
	// Internal detail stays out of the response body.
	suite.NotContains(w.Body.String(), "invariant checks")
}

func (suite *TransactionHandlerTestSuite) TestPostPayment_Success() {
	accountID := uuid.NewString()
	reference := "pay-" + uuid.NewString()
	money, _ := domain.NewMoney(decimal.RequireFromString("40.00"))
	now := time.Now()
	debit, _ := domain.NewDebitEntry(accountID, suite.tenantID, domain.Cash, money, domain.SourcePayment, reference, "Payment "+reference, suite.requestUserID, now)
	credit, _ := domain.NewCreditEntry(accountID, suite.tenantID, domain.AccountsReceivable, money, domain.SourcePayment, reference, "Payment "+reference, suite.requestUserID, now)

	suite.mockTxnSvc.On("PostPayment",
		mock.Anything,
		suite.tenantID,
		accountID,
		mock.MatchedBy(func(req dto.PaymentRequest) bool { return req.PaymentReference == reference }),
		suite.requestUserID,
	).Return([]domain.LedgerEntry{debit, credit}, nil).Once()

	body := `{"paymentReference":"` + reference + `","amount":"40.00"}`
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/payments", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 2)
	suite.Equal("CASH", resp.Entries[0].LedgerAccount)
}

func (suite *TransactionHandlerTestSuite) TestListEntries_PassesToken() {
	accountID := uuid.NewString()
	token := "b64token"
	expected := &dto.ListEntriesResponse{Entries: []dto.LedgerEntryResponse{}}

	suite.mockTxnSvc.On("ListEntriesByAccount",
		mock.Anything,
		suite.tenantID,
		accountID,
		mock.MatchedBy(func(p dto.ListEntriesParams) bool {
			return p.Limit == 50 && p.NextToken != nil && *p.NextToken == token
		}),
	).Return(expected, nil).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/entries?limit=50&nextToken="+token, "")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockTxnSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestGetStatement_Success() {
	accountID := uuid.NewString()
	statement := &domain.Statement{
		AccountID:      accountID,
		AccountName:    "Acme",
		PeriodStart:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC),
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.RequireFromString("55.75"),
		Transactions:   []domain.LedgerEntry{},
		TotalCount:     0,
		Page:           1,
		PageSize:       50,
	}
	suite.mockStmtSvc.On("BuildStatement", mock.Anything, suite.tenantID, accountID, mock.Anything).
		Return(statement, nil).Once()

	url := "/api/v1/accounts/" + accountID + "/statement?startDate=2026-07-01T00:00:00Z&endDate=2026-07-31T23:59:59Z"
	w := suite.doRequest(http.MethodGet, url, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.StatementResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Acme", resp.AccountName)
}

func (suite *TransactionHandlerTestSuite) TestGetStatement_MissingPeriod() {
	accountID := uuid.NewString()
	w := suite.doRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockStmtSvc.AssertNotCalled(suite.T(), "BuildStatement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestGenerateInvoice_NothingUnbilled() {
	accountID := uuid.NewString()
	suite.mockInvoiceSvc.On("GenerateInvoice", mock.Anything, suite.tenantID, accountID, mock.Anything, suite.requestUserID).
		Return(nil, apperrors.NewNotFoundError(apperrors.CodeInvoiceNotFound, "no unbilled ride charges in period")).Once()

	w := suite.doRequest(http.MethodPost, "/api/v1/accounts/"+accountID+"/invoices", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(w.Body.String(), apperrors.CodeInvoiceNotFound)
}

func (suite *TransactionHandlerTestSuite) TestGetInvoice_Success() {
	number := "INV-202607-000007"
	invoice := &domain.Invoice{
		InvoiceID:     uuid.NewString(),
		InvoiceNumber: number,
		TenantID:      suite.tenantID,
		AccountID:     uuid.NewString(),
		TotalAmount:   domain.ZeroMoney(),
		CurrencyCode:  "USD",
	}
	suite.mockInvoiceSvc.On("GetInvoiceByNumber", mock.Anything, suite.tenantID, number).
		Return(invoice, nil).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/invoices/"+number, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.InvoiceResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(number, resp.InvoiceNumber)
}

func TestTransactionHandler(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
