package products

import "github.com/shopspring/decimal"

// Money is a decimal amount that renders in JSON with two decimal places,
// so 12.5 goes out as "12.50".
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MustMoney parses s and panics on bad input. Meant for literals.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
