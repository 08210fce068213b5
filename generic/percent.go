package generic

import "github.com/shopspring/decimal"

// =============================================================================
// PERCENTAGE MATH
// =============================================================================
// Seat counts derived from headcount always round UP: a project entitled to
// 70% of 10 heads gets 7 seats, 75% of 10 gets 8. decimal avoids the
// float artifacts that integer-percent tricks reintroduce.

var hundred = decimal.NewFromInt(100)

// CeilPercent returns ceil(count * percent / 100).
func CeilPercent(count int, percent decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(count)).Mul(percent).Div(hundred).Ceil().IntPart())
}

// MustParseDecimal parses a decimal string, returning zero on failure.
// Used for operator-entered rate/percent fields where blank means unset.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
