package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is a point-in-range view of an account's AR activity.
// closing == opening + sum(debit - credit) over the listed period.
type Statement struct {
	AccountID      string          `json:"accountID"`
	AccountName    string          `json:"accountName"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	Transactions   []LedgerEntry   `json:"transactions"`
	TotalCount     int64           `json:"totalCount"`
	Page           int             `json:"page"`
	PageSize       int             `json:"pageSize"`
}
