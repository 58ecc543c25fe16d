package mapping

import (
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/models"
)

// ToModelInvoice converts a domain Invoice header to its model form.
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:          d.InvoiceID,
		InvoiceNumber:      d.InvoiceNumber,
		AccountID:          d.AccountID,
		TenantID:           d.TenantID,
		BillingPeriodStart: d.BillingPeriodStart,
		BillingPeriodEnd:   d.BillingPeriodEnd,
		IssueDate:          d.IssueDate,
		DueDate:            d.DueDate,
		TotalAmount:        d.TotalAmount.Amount(),
		CurrencyCode:       d.CurrencyCode,
		CreatedAt:          d.CreatedAt,
		CreatedBy:          d.CreatedBy,
	}
}

// ToModelInvoiceLineItem converts a domain line item to its model form.
func ToModelInvoiceLineItem(d domain.InvoiceLineItem) models.InvoiceLineItem {
	return models.InvoiceLineItem{
		LineItemID:  d.LineItemID,
		InvoiceID:   d.InvoiceID,
		AccountID:   d.AccountID,
		RideID:      d.RideID,
		RideDate:    d.RideDate,
		Description: d.Description,
		Amount:      d.Amount.Amount(),
	}
}

// ToDomainInvoice rebuilds a domain Invoice from its stored header and items.
func ToDomainInvoice(m models.Invoice, items []models.InvoiceLineItem) (domain.Invoice, error) {
	total, err := domain.NewMoney(m.TotalAmount)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv := domain.Invoice{
		InvoiceID:          m.InvoiceID,
		InvoiceNumber:      m.InvoiceNumber,
		AccountID:          m.AccountID,
		TenantID:           m.TenantID,
		BillingPeriodStart: m.BillingPeriodStart,
		BillingPeriodEnd:   m.BillingPeriodEnd,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		TotalAmount:        total,
		CurrencyCode:       m.CurrencyCode,
		CreatedAt:          m.CreatedAt,
		CreatedBy:          m.CreatedBy,
	}
	inv.LineItems = make([]domain.InvoiceLineItem, len(items))
	for i, item := range items {
		amount, err := domain.NewMoney(item.Amount)
		if err != nil {
			return domain.Invoice{}, err
		}
		inv.LineItems[i] = domain.InvoiceLineItem{
			LineItemID:  item.LineItemID,
			InvoiceID:   item.InvoiceID,
			AccountID:   item.AccountID,
			RideID:      item.RideID,
			RideDate:    item.RideDate,
			Description: item.Description,
			Amount:      amount,
		}
	}
	return inv, nil
}
