package domain

import "github.com/shopspring/decimal"

var (
	tierMid  = decimal.NewFromInt(100_000)
	tierHigh = decimal.NewFromInt(500_000)

	rateLow  = decimal.RequireFromString("0.0050")
	rateMid  = decimal.RequireFromString("0.0100")
	rateHigh = decimal.RequireFromString("0.0150")

	daysPerYear = decimal.NewFromInt(365)
)

// AnnualRateFor returns the savings tier rate for a balance:
// below 100,000 0.50%, below 500,000 1.00%, otherwise 1.50%.
func AnnualRateFor(balance decimal.Decimal) decimal.Decimal {
	switch {
	case balance.LessThan(tierMid):
		return rateLow
	case balance.LessThan(tierHigh):
		return rateMid
	default:
		return rateHigh
	}
}

// DailyInterest is balance * annual / 365 rounded half-up to cents.
func DailyInterest(balance, annual decimal.Decimal) decimal.Decimal {
	return balance.Mul(annual).Div(daysPerYear).Round(2)
}
