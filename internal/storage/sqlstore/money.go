package sqlstore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// Money is persisted as an integer count of minor units so that balance
// arithmetic inside SQL stays exact on every backend.

func toCents(d decimal.Decimal) (int64, error) {
	c := d.Shift(models.MoneyPlaces)
	if !c.Equal(c.Truncate(0)) {
		return 0, fmt.Errorf("%s has more than %d decimal places: %w", d, models.MoneyPlaces, models.ErrInvalidAmount)
	}
	if !c.BigInt().IsInt64() {
		return 0, fmt.Errorf("%s is out of range: %w", d, models.ErrInvalidAmount)
	}
	return c.IntPart(), nil
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -models.MoneyPlaces)
}
