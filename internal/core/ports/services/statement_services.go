package services

import (
	"context"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
)

// StatementSvc builds account statements for arbitrary periods.
type StatementSvc interface {
	// BuildStatement assembles the opening balance, closing balance and a
	// page of entries for the requested period. Opening is the balance the
	// instant before the period starts; closing is the balance at its end.
	BuildStatement(ctx context.Context, tenantID, accountID string, params dto.StatementParams) (*domain.Statement, error)
}
