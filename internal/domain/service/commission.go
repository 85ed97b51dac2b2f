package service

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale = 2

var (
	perMille = decimal.NewFromInt(1000)

	// MaxAmount bounds prices and balances well inside NUMERIC(14,2).
	MaxAmount = decimal.NewFromInt(1_000_000_000)
)

// CalculateCommission returns (price / 1000) * rate rounded half away from
// zero to whole cents, so the debit equals what is stored. A nil rate is zero.
func CalculateCommission(price decimal.Decimal, rate *decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return decimal.Zero
	}
	return price.Div(perMille).Mul(*rate).Round(MoneyScale)
}

// ValidAmount reports whether d can be stored without rounding or overflow:
// non-negative, at most two decimals and not above MaxAmount.
func ValidAmount(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThan(MaxAmount) {
		return false
	}
	return d.Equal(d.Round(MoneyScale))
}
