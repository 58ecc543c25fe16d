package dto

import (
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new billing account.
type CreateAccountRequest struct {
	Name             string                  `json:"name" binding:"required,max=255"`
	AccountType      domain.AccountType      `json:"accountType" binding:"required,oneof=ORGANIZATION INDIVIDUAL"`
	InvoiceFrequency domain.InvoiceFrequency `json:"invoiceFrequency" binding:"required,oneof=PER_RIDE DAILY WEEKLY MONTHLY"`
}

// AccountResponse defines the data returned for a billing account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID        string                  `json:"accountID"`
	TenantID         string                  `json:"tenantID"`
	Name             string                  `json:"name"`
	AccountType      domain.AccountType      `json:"accountType"`
	InvoiceFrequency domain.InvoiceFrequency `json:"invoiceFrequency"`
	CurrencyCode     string                  `json:"currencyCode"`
	Status           domain.AccountStatus    `json:"status"`
	CreatedAt        time.Time               `json:"createdAt"`
	CreatedBy        string                  `json:"createdBy"`
	LastUpdatedAt    time.Time               `json:"lastUpdatedAt"`
	LastUpdatedBy    string                  `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:        acc.AccountID,
		TenantID:         acc.TenantID,
		Name:             acc.Name,
		AccountType:      acc.AccountType,
		InvoiceFrequency: acc.InvoiceFrequency,
		CurrencyCode:     acc.CurrencyCode,
		Status:           acc.Status,
		CreatedAt:        acc.CreatedAt,
		CreatedBy:        acc.CreatedBy,
		LastUpdatedAt:    acc.LastUpdatedAt,
		LastUpdatedBy:    acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// AccountBalanceResponse defines the data returned for a receivable balance query.
type AccountBalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      *time.Time      `json:"asOf,omitempty"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken" binding:"omitempty"`
}

// ListAccountsResponse wraps a token-paginated list of accounts.
type ListAccountsResponse struct {
	Accounts  []AccountResponse `json:"accounts"`
	NextToken *string           `json:"nextToken,omitempty"`
}
