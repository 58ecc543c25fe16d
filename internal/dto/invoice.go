package dto

import (
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest defines the data needed to generate an invoice on demand.
// When the period is omitted, the account's invoicing frequency decides it.
type GenerateInvoiceRequest struct {
	PeriodStart *time.Time `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd"`
}

// InvoiceLineItemResponse defines the data returned for a single invoice line.
type InvoiceLineItemResponse struct {
	LineItemID  string          `json:"lineItemID"`
	RideID      string          `json:"rideID"`
	RideDate    time.Time       `json:"rideDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID          string                    `json:"invoiceID"`
	InvoiceNumber      string                    `json:"invoiceNumber"`
	AccountID          string                    `json:"accountID"`
	TenantID           string                    `json:"tenantID"`
	BillingPeriodStart time.Time                 `json:"billingPeriodStart"`
	BillingPeriodEnd   time.Time                 `json:"billingPeriodEnd"`
	IssueDate          time.Time                 `json:"issueDate"`
	DueDate            time.Time                 `json:"dueDate"`
	TotalAmount        decimal.Decimal           `json:"totalAmount"`
	CurrencyCode       string                    `json:"currencyCode"`
	LineItems          []InvoiceLineItemResponse `json:"lineItems"`
	CreatedAt          time.Time                 `json:"createdAt"`
	CreatedBy          string                    `json:"createdBy"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	items := make([]InvoiceLineItemResponse, len(inv.LineItems))
	for i, li := range inv.LineItems {
		items[i] = InvoiceLineItemResponse{
			LineItemID:  li.LineItemID,
			RideID:      li.RideID,
			RideDate:    li.RideDate,
			Description: li.Description,
			Amount:      li.Amount.Amount(),
		}
	}
	return InvoiceResponse{
		InvoiceID:          inv.InvoiceID,
		InvoiceNumber:      inv.InvoiceNumber,
		AccountID:          inv.AccountID,
		TenantID:           inv.TenantID,
		BillingPeriodStart: inv.BillingPeriodStart,
		BillingPeriodEnd:   inv.BillingPeriodEnd,
		IssueDate:          inv.IssueDate,
		DueDate:            inv.DueDate,
		TotalAmount:        inv.TotalAmount.Amount(),
		CurrencyCode:       inv.CurrencyCode,
		LineItems:          items,
		CreatedAt:          inv.CreatedAt,
		CreatedBy:          inv.CreatedBy,
	}
}

// ToListInvoiceResponse converts a slice of domain.Invoice to a slice of InvoiceResponse DTOs.
func ToListInvoiceResponse(invoices []domain.Invoice) []InvoiceResponse {
	res := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		res[i] = ToInvoiceResponse(&invoices[i])
	}
	return res
}

// ListInvoicesResponse wraps the list of invoices for an account.
type ListInvoicesResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// GenerateScheduledResult summarizes one billing run over many accounts.
type GenerateScheduledResult struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}
