package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
)

// LedgerAccount identifies which side of the books an entry affects.
type LedgerAccount string

const (
	AccountsReceivable LedgerAccount = "ACCOUNTS_RECEIVABLE"
	ServiceRevenue     LedgerAccount = "SERVICE_REVENUE"
	Cash               LedgerAccount = "CASH"
)

// SourceType identifies the business event that produced an entry.
type SourceType string

const (
	SourceRideCharge SourceType = "RIDE_CHARGE"
	SourcePayment    SourceType = "PAYMENT"
)

// EntrySide indicates whether an entry is a debit or a credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// LedgerEntry is an immutable, single-sided ledger fact. Exactly one of
// DebitAmount/CreditAmount is non-zero. Entries are created through the
// NewDebitEntry/NewCreditEntry factories, persisted once and never changed.
type LedgerEntry struct {
	EntryID           string        `json:"entryID"`
	AccountID         string        `json:"accountID"`
	TenantID          string        `json:"tenantID"`
	LedgerAccount     LedgerAccount `json:"ledgerAccount"`
	DebitAmount       Money         `json:"debitAmount"`
	CreditAmount      Money         `json:"creditAmount"`
	SourceType        SourceType    `json:"sourceType"`
	SourceReferenceID string        `json:"sourceReferenceID"`
	Description       string        `json:"description"`
	CreatedAt         time.Time     `json:"createdAt"`
	CreatedBy         string        `json:"createdBy"`
}

// NewDebitEntry creates a validated debit-side ledger entry.
func NewDebitEntry(accountID, tenantID string, ledgerAccount LedgerAccount, amount Money, sourceType SourceType, sourceReferenceID, description, createdBy string, now time.Time) (LedgerEntry, error) {
	return newEntry(accountID, tenantID, ledgerAccount, amount, ZeroMoney(), sourceType, sourceReferenceID, description, createdBy, now)
}

// NewCreditEntry creates a validated credit-side ledger entry.
func NewCreditEntry(accountID, tenantID string, ledgerAccount LedgerAccount, amount Money, sourceType SourceType, sourceReferenceID, description, createdBy string, now time.Time) (LedgerEntry, error) {
	return newEntry(accountID, tenantID, ledgerAccount, ZeroMoney(), amount, sourceType, sourceReferenceID, description, createdBy, now)
}

func newEntry(accountID, tenantID string, ledgerAccount LedgerAccount, debit, credit Money, sourceType SourceType, sourceReferenceID, description, createdBy string, now time.Time) (LedgerEntry, error) {
	entry := LedgerEntry{
		EntryID:           uuid.NewString(),
		AccountID:         accountID,
		TenantID:          tenantID,
		LedgerAccount:     ledgerAccount,
		DebitAmount:       debit,
		CreditAmount:      credit,
		SourceType:        sourceType,
		SourceReferenceID: sourceReferenceID,
		Description:       description,
		CreatedAt:         now,
		CreatedBy:         createdBy,
	}
	if err := entry.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// ReconstructLedgerEntry rebuilds a persisted entry from all stored fields.
// No privileged construction path: the result is validated like a new entry.
func ReconstructLedgerEntry(entryID, accountID, tenantID string, ledgerAccount LedgerAccount, debit, credit Money, sourceType SourceType, sourceReferenceID, description, createdBy string, createdAt time.Time) (LedgerEntry, error) {
	entry := LedgerEntry{
		EntryID:           entryID,
		AccountID:         accountID,
		TenantID:          tenantID,
		LedgerAccount:     ledgerAccount,
		DebitAmount:       debit,
		CreditAmount:      credit,
		SourceType:        sourceType,
		SourceReferenceID: sourceReferenceID,
		Description:       description,
		CreatedAt:         createdAt,
		CreatedBy:         createdBy,
	}
	if err := entry.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// Validate checks the single-sided invariant and required fields.
func (e LedgerEntry) Validate() error {
	if e.EntryID == "" {
		return fmt.Errorf("%w: entry ID is required", apperrors.ErrValidation)
	}
	if e.AccountID == "" {
		return fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if e.TenantID == "" {
		return fmt.Errorf("%w: tenant ID is required", apperrors.ErrValidation)
	}
	if e.SourceReferenceID == "" {
		return fmt.Errorf("%w: source reference ID is required", apperrors.ErrValidation)
	}
	switch e.LedgerAccount {
	case AccountsReceivable, ServiceRevenue, Cash:
	default:
		return fmt.Errorf("%w: unknown ledger account %q", apperrors.ErrValidation, e.LedgerAccount)
	}
	switch e.SourceType {
	case SourceRideCharge, SourcePayment:
	default:
		return fmt.Errorf("%w: unknown source type %q", apperrors.ErrValidation, e.SourceType)
	}
	debitSet := e.DebitAmount.IsPositive()
	creditSet := e.CreditAmount.IsPositive()
	if debitSet == creditSet {
		return fmt.Errorf("%w: exactly one of debit/credit must be non-zero for entry %s", apperrors.ErrValidation, e.EntryID)
	}
	return nil
}

// Side reports whether the entry is a debit or a credit.
func (e LedgerEntry) Side() EntrySide {
	if e.DebitAmount.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero side of the entry.
func (e LedgerEntry) Amount() Money {
	if e.DebitAmount.IsPositive() {
		return e.DebitAmount
	}
	return e.CreditAmount
}
