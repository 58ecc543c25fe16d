package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
)

// AccountType distinguishes organizational customers from individual riders.
type AccountType string

const (
	Organization AccountType = "ORGANIZATION"
	Individual   AccountType = "INDIVIDUAL"
)

// AccountStatus is the lifecycle state of a billing account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
)

// InvoiceFrequency controls how often an account is invoiced.
type InvoiceFrequency string

const (
	PerRide InvoiceFrequency = "PER_RIDE"
	Daily   InvoiceFrequency = "DAILY"
	Weekly  InvoiceFrequency = "WEEKLY"
	Monthly InvoiceFrequency = "MONTHLY"
)

// ValidInvoiceFrequency reports whether f is a known frequency.
func ValidInvoiceFrequency(f InvoiceFrequency) bool {
	switch f {
	case PerRide, Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Account is the billing account aggregate. Status changes only through
// Activate/Deactivate; everything else is fixed at creation.
type Account struct {
	AccountID        string           `json:"accountID"`
	TenantID         string           `json:"tenantID"`
	Name             string           `json:"name"`
	AccountType      AccountType      `json:"accountType"`
	Status           AccountStatus    `json:"status"`
	InvoiceFrequency InvoiceFrequency `json:"invoiceFrequency"`
	CurrencyCode     string           `json:"currencyCode"`
	AuditFields
}

// NewAccount creates a validated, active account.
func NewAccount(tenantID, name string, accountType AccountType, frequency InvoiceFrequency, creatorUserID string, now time.Time) (Account, error) {
	if tenantID == "" {
		return Account{}, fmt.Errorf("%w: tenant ID is required", apperrors.ErrValidation)
	}
	if name == "" {
		return Account{}, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	switch accountType {
	case Organization, Individual:
	default:
		return Account{}, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}
	if !ValidInvoiceFrequency(frequency) {
		return Account{}, fmt.Errorf("%w: unknown invoice frequency %q", apperrors.ErrValidation, frequency)
	}
	return Account{
		AccountID:        uuid.NewString(),
		TenantID:         tenantID,
		Name:             name,
		AccountType:      accountType,
		Status:           AccountActive,
		InvoiceFrequency: frequency,
		CurrencyCode:     CurrencyUSD,
		AuditFields: AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}, nil
}

// Activate transitions the account to ACTIVE. Idempotent.
func (a *Account) Activate(userID string, now time.Time) {
	if a.Status == AccountActive {
		return
	}
	a.Status = AccountActive
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
}

// Deactivate transitions the account to INACTIVE. Idempotent.
func (a *Account) Deactivate(userID string, now time.Time) {
	if a.Status == AccountInactive {
		return
	}
	a.Status = AccountInactive
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
}

// IsActive reports whether the account can be charged and invoiced.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}
