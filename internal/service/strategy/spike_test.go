package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

// flatKlines builds n daily bars with constant close/low and volume.
func flatKlines(n int, close, low, volume float64) []exchange.Kline {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kLines := make([]exchange.Kline, n)
	for i := range kLines {
		c := decimal.NewFromFloat(close)
		kLines[i] = exchange.Kline{
			OpenTime: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:     c,
			High:     c,
			Low:      decimal.NewFromFloat(low),
			Close:    c,
			Volume:   decimal.NewFromFloat(volume),
		}
	}
	return kLines
}

func TestSpikeDetector_TooShort(t *testing.T) {
	d := NewSpikeDetector(1.8)
	for n := 0; n < 22; n++ {
		_, ok := d.Detect(flatKlines(n, 100, 95, 100))
		assert.False(t, ok, "series of length %d must not signal", n)
	}
}

func TestSpikeDetector_ZeroAverageVolume(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 95, 0)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(500)

	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_Fires(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 95, 100)
	// Current volume doubles the trailing average and exceeds the
	// previous bar, price sits flat near its low.
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)

	signal, ok := d.Detect(kLines)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(2).Equal(signal.VolumeRatio), "got ratio %s", signal.VolumeRatio)
	// (100-95)/95*100 = 5.26... rounded to one decimal.
	assert.True(t, decimal.NewFromFloat(5.3).Equal(signal.PctAboveLow), "got pct %s", signal.PctAboveLow)
}

func TestSpikeDetector_BelowMultiplier(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 95, 100)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(150)

	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_VolumeNotRising(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 95, 100)
	// Previous bar already spiked harder than the current one.
	kLines[len(kLines)-2].Volume = decimal.NewFromInt(250)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)

	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_AlreadyPumped(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 95, 100)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)
	// Close 10% above the trailing 10-bar average close.
	kLines[len(kLines)-1].Close = decimal.NewFromInt(110)

	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_TooFarFromLow(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 50, 100)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)

	// Close is 100% above the 30-bar low of 50.
	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_ZeroLow(t *testing.T) {
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(30, 100, 0, 100)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)

	_, ok := d.Detect(kLines)
	assert.False(t, ok)
}

func TestSpikeDetector_ShortLowWindow(t *testing.T) {
	// Exactly 22 bars: the low window covers the whole series.
	d := NewSpikeDetector(1.8)
	kLines := flatKlines(22, 100, 95, 100)
	kLines[len(kLines)-1].Volume = decimal.NewFromInt(200)

	signal, ok := d.Detect(kLines)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(2).Equal(signal.VolumeRatio))
}
