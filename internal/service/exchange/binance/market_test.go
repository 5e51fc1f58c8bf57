package binance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertKline(t *testing.T) {
	k, ok := convertKline(1704153600000, "40.0", "42.5", "39.5", "42.0", "1000")
	require.True(t, ok)
	assert.Equal(t, int64(1704153600), k.OpenTime.Unix())
	assert.True(t, decimal.NewFromFloat(40.0).Equal(k.Open))
	assert.True(t, decimal.NewFromFloat(42.5).Equal(k.High))
	assert.True(t, decimal.NewFromFloat(39.5).Equal(k.Low))
	assert.True(t, decimal.NewFromFloat(42.0).Equal(k.Close))
	assert.True(t, decimal.NewFromInt(1000).Equal(k.Volume))
}

func TestConvertKline_MissingPrice(t *testing.T) {
	_, ok := convertKline(1704153600000, "40.0", "", "39.5", "42.0", "1000")
	assert.False(t, ok)
}

func TestConvertKline_MissingVolumeDefaultsZero(t *testing.T) {
	k, ok := convertKline(1704153600000, "40.0", "42.5", "39.5", "42.0", "")
	require.True(t, ok)
	assert.True(t, k.Volume.IsZero())
}
