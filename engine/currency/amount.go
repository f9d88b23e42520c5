package currency

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal value bound to a specific currency. The value is always
// representable at the currency's decimal precision.
type Amount struct {
	Currency *Currency
	value    decimal.Decimal
}

// NewAmount builds an amount from an already validated decimal value.
func NewAmount(c *Currency, value decimal.Decimal) *Amount {
	return &Amount{Currency: c, value: value}
}

// AmountFromRaw builds an amount from an integer base-unit quantity
// (wei-style), scaling by the currency's decimals.
func AmountFromRaw(c *Currency, raw *big.Int) *Amount {
	return &Amount{Currency: c, value: decimal.NewFromBigInt(raw, 0).Shift(-c.Decimals)}
}

// ParseAmount converts free-text numeric input into an amount bound to the
// given currency. Empty, whitespace-only or otherwise unparseable text yields
// (nil, false) rather than an error: malformed user input is an expected
// state, not a failure. A single comma is tolerated as the decimal separator.
// Negative values and values with more fractional digits than the currency
// supports are rejected.
func ParseAmount(text string, c *Currency) (*Amount, bool) {
	if c == nil {
		return nil, false
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	if strings.Count(trimmed, ",") == 1 && !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, false
	}
	if value.IsNegative() {
		return nil, false
	}
	if value.Exponent() < -c.Decimals {
		return nil, false
	}
	return &Amount{Currency: c, value: value}, true
}

// Decimal returns the amount's decimal value.
func (a *Amount) Decimal() decimal.Decimal {
	return a.value
}

// Exact returns the amount as a plain decimal string, e.g. "1.5".
func (a *Amount) Exact() string {
	return a.value.String()
}

// Raw returns the integer base-unit quantity (value shifted by the currency's
// decimals).
func (a *Amount) Raw() *big.Int {
	return a.value.Shift(a.Currency.Decimals).BigInt()
}

// IsZero reports whether the amount is zero.
func (a *Amount) IsZero() bool {
	return a.value.IsZero()
}

// GreaterThan reports whether a exceeds other. Currencies are not compared;
// callers are expected to compare like with like.
func (a *Amount) GreaterThan(other *Amount) bool {
	return a.value.GreaterThan(other.value)
}

// MulBps multiplies the amount by numeratorBps/10000 and rounds at the
// currency's decimal precision, toward zero when roundDown is true and away
// from zero otherwise.
func (a *Amount) MulBps(numeratorBps int64, roundDown bool) *Amount {
	// Mul with exponent -4 keeps the product exact; dividing by 10000 would
	// round at shopspring's global DivisionPrecision before our rounding.
	scaled := a.value.Mul(decimal.New(numeratorBps, -4))
	if roundDown {
		scaled = scaled.RoundDown(a.Currency.Decimals)
	} else {
		scaled = scaled.RoundUp(a.Currency.Decimals)
	}
	return &Amount{Currency: a.Currency, value: scaled}
}
