package models

// Account is the database representation of a billing account.
type Account struct {
	AccountID        string `json:"accountID"`
	TenantID         string `json:"tenantID"`
	Name             string `json:"name"`
	AccountType      string `json:"accountType"`
	Status           string `json:"status"`
	InvoiceFrequency string `json:"invoiceFrequency"`
	CurrencyCode     string `json:"currencyCode"`
	AuditFields
}
