package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
)

// InvoiceLineItem bills a single ride. A ride appears on at most one invoice
// per account; the line item carries the account so storage can enforce that
// with a uniqueness constraint on (account, ride).
type InvoiceLineItem struct {
	LineItemID  string    `json:"lineItemID"`
	InvoiceID   string    `json:"invoiceID"`
	AccountID   string    `json:"accountID"`
	RideID      string    `json:"rideID"`
	RideDate    time.Time `json:"rideDate"`
	Description string    `json:"description"`
	Amount      Money     `json:"amount"`
}

// Invoice aggregates unbilled ride charges for an account and billing period.
// Once persisted with its line items it is immutable; there is no update path.
type Invoice struct {
	InvoiceID          string            `json:"invoiceID"`
	InvoiceNumber      string            `json:"invoiceNumber"`
	AccountID          string            `json:"accountID"`
	TenantID           string            `json:"tenantID"`
	BillingPeriodStart time.Time         `json:"billingPeriodStart"`
	BillingPeriodEnd   time.Time         `json:"billingPeriodEnd"`
	IssueDate          time.Time         `json:"issueDate"`
	DueDate            time.Time         `json:"dueDate"`
	TotalAmount        Money             `json:"totalAmount"`
	CurrencyCode       string            `json:"currencyCode"`
	LineItems          []InvoiceLineItem `json:"lineItems"`
	CreatedAt          time.Time         `json:"createdAt"`
	CreatedBy          string            `json:"createdBy"`
}

// FormatInvoiceNumber renders the INV-YYYYMM-NNNNNN number for a billing
// month and per-tenant monthly sequence value.
func FormatInvoiceNumber(billingMonth time.Time, sequence int64) string {
	return fmt.Sprintf("INV-%s-%06d", billingMonth.Format("200601"), sequence)
}

// NewInvoice creates an empty validated invoice for the given period.
func NewInvoice(accountID, tenantID, invoiceNumber string, periodStart, periodEnd, issueDate, dueDate time.Time, creatorUserID string, now time.Time) (Invoice, error) {
	if accountID == "" {
		return Invoice{}, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if tenantID == "" {
		return Invoice{}, fmt.Errorf("%w: tenant ID is required", apperrors.ErrValidation)
	}
	if invoiceNumber == "" {
		return Invoice{}, fmt.Errorf("%w: invoice number is required", apperrors.ErrValidation)
	}
	if !periodEnd.After(periodStart) {
		return Invoice{}, fmt.Errorf("%w: billing period end must be after start", apperrors.ErrValidation)
	}
	if dueDate.Before(issueDate) {
		return Invoice{}, fmt.Errorf("%w: due date must not precede issue date", apperrors.ErrValidation)
	}
	return Invoice{
		InvoiceID:          uuid.NewString(),
		InvoiceNumber:      invoiceNumber,
		AccountID:          accountID,
		TenantID:           tenantID,
		BillingPeriodStart: periodStart,
		BillingPeriodEnd:   periodEnd,
		IssueDate:          issueDate,
		DueDate:            dueDate,
		TotalAmount:        ZeroMoney(),
		CurrencyCode:       CurrencyUSD,
		CreatedAt:          now,
		CreatedBy:          creatorUserID,
	}, nil
}

// AddLineItem appends a line item for a ride and recomputes the total.
func (inv *Invoice) AddLineItem(rideID string, rideDate time.Time, description string, amount Money) error {
	if rideID == "" {
		return fmt.Errorf("%w: ride ID is required", apperrors.ErrValidation)
	}
	for _, item := range inv.LineItems {
		if item.RideID == rideID {
			return fmt.Errorf("%w: ride %s already billed on invoice %s", apperrors.ErrConflict, rideID, inv.InvoiceNumber)
		}
	}
	inv.LineItems = append(inv.LineItems, InvoiceLineItem{
		LineItemID:  uuid.NewString(),
		InvoiceID:   inv.InvoiceID,
		AccountID:   inv.AccountID,
		RideID:      rideID,
		RideDate:    rideDate,
		Description: description,
		Amount:      amount,
	})
	inv.recomputeTotal()
	return nil
}

// recomputeTotal keeps TotalAmount equal to the sum of line item amounts.
func (inv *Invoice) recomputeTotal() {
	total := ZeroMoney()
	for _, item := range inv.LineItems {
		total = total.Add(item.Amount)
	}
	inv.TotalAmount = total
}

// BillingPeriod is the half-open-in-spirit date range an invoice covers.
// Start and End are inclusive boundaries in UTC.
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// BillingPeriodFor derives the billing period boundaries for a frequency
// relative to asOf. Daily covers the previous day, Weekly the previous
// Sunday through Saturday, Monthly the previous calendar month. PerRide
// covers everything up to asOf, since each ride is billed as it appears.
func BillingPeriodFor(frequency InvoiceFrequency, asOf time.Time) (BillingPeriod, error) {
	asOf = asOf.UTC()
	midnight := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	switch frequency {
	case PerRide:
		return BillingPeriod{Start: time.Time{}, End: asOf}, nil
	case Daily:
		start := midnight.AddDate(0, 0, -1)
		return BillingPeriod{Start: start, End: midnight.Add(-time.Nanosecond)}, nil
	case Weekly:
		// Previous Sunday through Saturday.
		daysSinceSunday := int(midnight.Weekday())
		thisSunday := midnight.AddDate(0, 0, -daysSinceSunday)
		start := thisSunday.AddDate(0, 0, -7)
		return BillingPeriod{Start: start, End: thisSunday.Add(-time.Nanosecond)}, nil
	case Monthly:
		firstOfThisMonth := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfThisMonth.AddDate(0, -1, 0)
		return BillingPeriod{Start: start, End: firstOfThisMonth.Add(-time.Nanosecond)}, nil
	default:
		return BillingPeriod{}, fmt.Errorf("%w: unknown invoice frequency %q", apperrors.ErrValidation, frequency)
	}
}
