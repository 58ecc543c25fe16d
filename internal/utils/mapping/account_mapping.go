package mapping

import (
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/models"
)

// ToModelAccount converts a domain Account to its model form.
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:        d.AccountID,
		TenantID:         d.TenantID,
		Name:             d.Name,
		AccountType:      string(d.AccountType),
		Status:           string(d.Status),
		InvoiceFrequency: string(d.InvoiceFrequency),
		CurrencyCode:     d.CurrencyCode,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to its domain form.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:        m.AccountID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		AccountType:      domain.AccountType(m.AccountType),
		Status:           domain.AccountStatus(m.Status),
		InvoiceFrequency: domain.InvoiceFrequency(m.InvoiceFrequency),
		CurrencyCode:     m.CurrencyCode,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts.
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
