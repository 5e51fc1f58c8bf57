package binance

import "github.com/shopspring/decimal"

func parseDecimals(raw []string) ([]decimal.Decimal, bool) {
	vals := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		if s == "" {
			return nil, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, false
		}
		vals[i] = d
	}
	return vals, true
}
