package decimalx

import "github.com/shopspring/decimal"

// Avg returns the arithmetic mean, or zero for an empty slice.
func Avg(ds []decimal.Decimal) decimal.Decimal {
	if len(ds) == 0 {
		return decimal.Zero
	}
	var sum decimal.Decimal
	for _, d := range ds {
		sum = sum.Add(d)
	}
	return sum.Div(decimal.NewFromInt(int64(len(ds))))
}

// Min returns the smallest value, or zero for an empty slice.
func Min(ds []decimal.Decimal) decimal.Decimal {
	if len(ds) == 0 {
		return decimal.Zero
	}
	res := ds[0]
	for _, d := range ds[1:] {
		res = decimal.Min(res, d)
	}
	return res
}
