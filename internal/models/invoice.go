package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the database representation of an invoice header.
type Invoice struct {
	InvoiceID          string          `json:"invoiceID"`
	InvoiceNumber      string          `json:"invoiceNumber"`
	AccountID          string          `json:"accountID"`
	TenantID           string          `json:"tenantID"`
	BillingPeriodStart time.Time       `json:"billingPeriodStart"`
	BillingPeriodEnd   time.Time       `json:"billingPeriodEnd"`
	IssueDate          time.Time       `json:"issueDate"`
	DueDate            time.Time       `json:"dueDate"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	CurrencyCode       string          `json:"currencyCode"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          string          `json:"createdBy"`
}

// InvoiceLineItem is the database representation of a billed ride.
type InvoiceLineItem struct {
	LineItemID  string          `json:"lineItemID"`
	InvoiceID   string          `json:"invoiceID"`
	AccountID   string          `json:"accountID"`
	RideID      string          `json:"rideID"`
	RideDate    time.Time       `json:"rideDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}
