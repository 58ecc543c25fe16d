package domain

import (
	"fmt"

	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CurrencyUSD is the only currency the ledger operates in.
const CurrencyUSD = "USD"

// moneyScale is the fixed number of fractional digits for all amounts.
const moneyScale = 4

// Money is a validated USD amount with exactly four fractional digits.
// Entry sides are never negative; balances may be (a credit balance).
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates a Money from a decimal, rounding to four fractional digits.
// It rejects negative amounts, which are invalid for ledger entry sides.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount.String())
	}
	return Money{amount: amount.Round(moneyScale)}, nil
}

// NewMoneyFromString parses a decimal string into a Money.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", apperrors.ErrValidation, s)
	}
	return NewMoney(d)
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the underlying decimal value.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Add returns the sum of two amounts, preserving precision.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount with the fixed four-digit scale.
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}

// MarshalJSON renders the amount as a JSON number string with fixed scale.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string or number into a Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: invalid amount %s", apperrors.ErrValidation, string(data))
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
