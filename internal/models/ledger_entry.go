package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the database representation of a single-sided ledger entry.
// Rows are write-once: there is no update or delete path through the
// repository, and the schema enforces the same rule.
type LedgerEntry struct {
	EntryID           string          `json:"entryID"`
	AccountID         string          `json:"accountID"`
	TenantID          string          `json:"tenantID"`
	LedgerAccount     string          `json:"ledgerAccount"`
	DebitAmount       decimal.Decimal `json:"debitAmount"`
	CreditAmount      decimal.Decimal `json:"creditAmount"`
	SourceType        string          `json:"sourceType"`
	SourceReferenceID string          `json:"sourceReferenceID"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}
