package dto

import (
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatementParams defines query parameters for an account statement.
type StatementParams struct {
	StartDate time.Time `form:"startDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   time.Time `form:"endDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Page      int       `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize  int       `form:"pageSize,default=50" binding:"omitempty,min=1,max=200"`
}

// StatementResponse defines the data returned for an account statement.
type StatementResponse struct {
	AccountID      string                `json:"accountID"`
	AccountName    string                `json:"accountName"`
	PeriodStart    time.Time             `json:"periodStart"`
	PeriodEnd      time.Time             `json:"periodEnd"`
	OpeningBalance decimal.Decimal       `json:"openingBalance"`
	ClosingBalance decimal.Decimal       `json:"closingBalance"`
	Transactions   []LedgerEntryResponse `json:"transactions"`
	TotalCount     int64                 `json:"totalCount"`
	Page           int                   `json:"page"`
	PageSize       int                   `json:"pageSize"`
}

// ToStatementResponse converts a domain.Statement to StatementResponse DTO.
func ToStatementResponse(s *domain.Statement) StatementResponse {
	return StatementResponse{
		AccountID:      s.AccountID,
		AccountName:    s.AccountName,
		PeriodStart:    s.PeriodStart,
		PeriodEnd:      s.PeriodEnd,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		Transactions:   ToLedgerEntryResponses(s.Transactions),
		TotalCount:     s.TotalCount,
		Page:           s.Page,
		PageSize:       s.PageSize,
	}
}
