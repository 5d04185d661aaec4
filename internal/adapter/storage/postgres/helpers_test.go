package postgres

import (
	"github.com/shopspring/decimal"
)

// decimalArg matches a decimal.Decimal argument by value, ignoring exponent.
type decimalArg struct {
	want decimal.Decimal
}

func decimalEq(s string) decimalArg {
	return decimalArg{want: decimal.RequireFromString(s)}
}

func (d decimalArg) Match(v any) bool {
	got, ok := v.(decimal.Decimal)
	return ok && got.Equal(d.want)
}
