package modelledger

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by every amount.
const MoneyScale = 2

// MaxMoney is the largest amount that fits the int64 cents columns.
var MaxMoney = FromCents(math.MaxInt64)

// IsMoney reports whether d has no more than MoneyScale fractional digits.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// InRange reports whether d does not exceed MaxMoney.
func InRange(d decimal.Decimal) bool {
	return d.LessThanOrEqual(MaxMoney)
}

// ToCents converts an amount to integer minor units.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(MoneyScale).Round(0).IntPart()
}

// FromCents converts integer minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyScale)
}
