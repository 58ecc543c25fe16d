package accounting

import (
	"fmt"

	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ValidateTransactionPair checks the double-entry invariant for a posting:
// exactly two single-sided entries, one debit and one credit, with equal
// amounts. This is used by the poster before anything reaches storage.
func ValidateTransactionPair(entries []domain.LedgerEntry) error {
	if len(entries) != 2 {
		return fmt.Errorf("%w: a transaction must contain exactly 2 entries, got %d", apperrors.ErrInvariant, len(entries))
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero
	debitCount := 0

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return err
		}
		if entry.Side() == domain.Debit {
			debitCount++
			debitsSum = debitsSum.Add(entry.DebitAmount.Amount())
		} else {
			creditsSum = creditsSum.Add(entry.CreditAmount.Amount())
		}
	}

	if debitCount != 1 {
		return fmt.Errorf("%w: a transaction must contain one debit and one credit entry", apperrors.ErrInvariant)
	}
	if !debitsSum.Equal(creditsSum) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrInvariant, debitsSum.String(), creditsSum.String())
	}
	return nil
}

// ReceivableBalance computes the accounts-receivable balance over a set of
// entries: sum of AR debits minus sum of AR credits. Positive means the
// customer owes; negative is a credit balance.
func ReceivableBalance(entries []domain.LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, entry := range entries {
		if entry.LedgerAccount != domain.AccountsReceivable {
			continue
		}
		balance = balance.Add(entry.DebitAmount.Amount()).Sub(entry.CreditAmount.Amount())
	}
	return balance
}
