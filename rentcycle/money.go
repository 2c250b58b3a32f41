package rentcycle

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency-agnostic monetary amount
// =============================================================================

// Money is a currency-agnostic monetary amount backed by decimal.Decimal.
// Rent amounts, advance balances, and payment values all use Money so that
// surplus banking and proration never accumulate floating-point drift.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses a decimal string. Stored amounts go through this so
// a corrupt value surfaces as an error instead of a silent zero.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money               { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money               { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money     { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money     { return Money{Value: m.Value.Div(s)} }
func (m Money) MulInt(n int64) Money            { return m.Mul(decimal.NewFromInt(n)) }
func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsPositive() bool                { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool        { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool           { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool              { return m.Value.Equal(b.Value) }

func (m Money) String() string { return m.Value.String() }

// RoundUnit rounds to the nearest whole currency unit, half away from zero.
// Prorated first-month rent and incremented renewal rent are always stored
// as whole units.
func (m Money) RoundUnit() Money {
	return Money{Value: m.Value.Round(0)}
}
