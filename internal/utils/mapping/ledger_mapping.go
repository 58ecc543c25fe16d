package mapping

import (
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to its model form.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:           d.EntryID,
		AccountID:         d.AccountID,
		TenantID:          d.TenantID,
		LedgerAccount:     string(d.LedgerAccount),
		DebitAmount:       d.DebitAmount.Amount(),
		CreditAmount:      d.CreditAmount.Amount(),
		SourceType:        string(d.SourceType),
		SourceReferenceID: d.SourceReferenceID,
		Description:       d.Description,
		CreatedAt:         d.CreatedAt,
		CreatedBy:         d.CreatedBy,
	}
}

// ToDomainLedgerEntry rebuilds a domain LedgerEntry from a stored row via the
// explicit reconstruction factory, so persisted data passes the same
// validation as new entries.
func ToDomainLedgerEntry(m models.LedgerEntry) (domain.LedgerEntry, error) {
	debit, err := domain.NewMoney(m.DebitAmount)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	credit, err := domain.NewMoney(m.CreditAmount)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return domain.ReconstructLedgerEntry(
		m.EntryID,
		m.AccountID,
		m.TenantID,
		domain.LedgerAccount(m.LedgerAccount),
		debit,
		credit,
		domain.SourceType(m.SourceType),
		m.SourceReferenceID,
		m.Description,
		m.CreatedBy,
		m.CreatedAt,
	)
}

// ToDomainLedgerEntrySlice converts a slice of rows, failing on the first
// row that does not reconstruct.
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) ([]domain.LedgerEntry, error) {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		d, err := ToDomainLedgerEntry(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
