package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount in a single currency, quantized to two decimal
// places on construction (half-up).
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money value. The amount must not be negative and the
// currency must be a 3-letter code; it is stored upper-cased.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, validationf("money amount cannot be negative")
	}
	if !isCurrencyCode(currency) {
		return Money{}, validationf("money currency must be a 3-letter code like 'USD'")
	}
	return Money{
		amount:   amount.Round(2),
		currency: strings.ToUpper(currency),
	}, nil
}

// MustMoney is NewMoney that panics on error. Intended for constants and tests.
func MustMoney(amount decimal.Decimal, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() string { return m.currency }

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Both operands must share a currency and the result
// may not go negative.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	if m.amount.LessThan(other.amount) {
		return Money{}, validationf("money subtraction would go negative")
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Equal reports value equality on (amount, currency).
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return validationf("money currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
