package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits an amount may carry.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// MaxBalance is the largest balance any account may hold: the int64 count
// of minor units the SQL backends persist.
var MaxBalance = decimal.New(math.MaxInt64, -MoneyPlaces)

// IsWholeCents reports whether d has no more than MoneyPlaces fractional digits.
func IsWholeCents(d decimal.Decimal) bool {
	c := d.Mul(hundred)
	return c.Equal(c.Floor())
}

// ValidAmount reports whether d can be moved by a deposit, withdrawal or
// transfer. Precision policy: amounts are exact to the cent, and anything
// finer (1.005, 0.001) is rejected, never rounded. Anything above MaxBalance
// is rejected too.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && IsWholeCents(d) && d.LessThanOrEqual(MaxBalance)
}

// ValidOpeningBalance reports whether d can open an account. Zero is allowed.
func ValidOpeningBalance(d decimal.Decimal) bool {
	return !d.IsNegative() && IsWholeCents(d) && d.LessThanOrEqual(MaxBalance)
}

// ExceedsMaxBalance reports whether applying delta to balance would leave it
// above MaxBalance.
func ExceedsMaxBalance(balance, delta decimal.Decimal) bool {
	return balance.Add(delta).GreaterThan(MaxBalance)
}
