package services

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// toAmount converts a rounded decimal to a whole-unit amount, rejecting
// values an int64 balance cannot hold.
func toAmount(d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxAmount) || d.IsNegative() {
		return 0, fail(ErrInvalidAmount, "Amount is too large")
	}
	return d.IntPart(), nil
}
