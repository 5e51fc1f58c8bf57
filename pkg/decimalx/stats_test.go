package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAvg(t *testing.T) {
	testCases := []struct {
		name string
		ds   []decimal.Decimal
		want string
	}{
		{
			name: "empty",
			ds:   nil,
			want: "0",
		},
		{
			name: "simple",
			ds: []decimal.Decimal{
				decimal.NewFromInt(1),
				decimal.NewFromInt(2),
				decimal.NewFromInt(3),
			},
			want: "2",
		},
		{
			name: "fractional",
			ds: []decimal.Decimal{
				decimal.NewFromInt(1),
				decimal.NewFromInt(2),
			},
			want: "1.5",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, MustFromString(tc.want).Equal(Avg(tc.ds)))
		})
	}
}

func TestMin(t *testing.T) {
	ds := []decimal.Decimal{
		decimal.NewFromInt(5),
		decimal.NewFromInt(2),
		decimal.NewFromInt(9),
	}
	assert.True(t, decimal.NewFromInt(2).Equal(Min(ds)))
	assert.True(t, Min(nil).IsZero())
}
