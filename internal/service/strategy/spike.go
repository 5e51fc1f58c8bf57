package strategy

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/pkg/decimalx"
)

const (
	// minKlines is the shortest series the detector can evaluate:
	// 20 trailing bars for the volume average, one bar before that for
	// the rising-volume check, plus the current bar.
	minKlines = 22

	volumeLookback = 20
	priceLookback  = 10
	lowLookback    = 30
)

var (
	pumpTolerance = decimal.NewFromFloat(1.05) // close may sit at most 5% above the 10-bar average
	maxPctFromLow = decimal.NewFromInt(40)
	hundred       = decimal.NewFromInt(100)
)

// SpikeSignal is a positive volume-spike detection.
type SpikeSignal struct {
	// VolumeRatio is current volume over the trailing 20-bar average,
	// rounded to 2 decimals.
	VolumeRatio decimal.Decimal
	// PctAboveLow is how far the close sits above the 30-bar low,
	// in percent rounded to 1 decimal.
	PctAboveLow decimal.Decimal
}

type SpikeDetector struct {
	multiplier decimal.Decimal
}

// NewSpikeDetector builds a detector with the given volume-spike
// multiplier (current volume must exceed multiplier times the trailing
// average for a signal to fire).
func NewSpikeDetector(multiplier float64) *SpikeDetector {
	return &SpikeDetector{multiplier: decimal.NewFromFloat(multiplier)}
}

// Detect evaluates an oldest-first kline series against the four entry
// rules. It is pure: no I/O, no side effects. A false second return
// means no signal, never an error.
func (d *SpikeDetector) Detect(kLines []exchange.Kline) (SpikeSignal, bool) {
	if len(kLines) < minKlines {
		return SpikeSignal{}, false
	}

	volumes := lo.Map(kLines, func(k exchange.Kline, _ int) decimal.Decimal { return k.Volume })
	closes := lo.Map(kLines, func(k exchange.Kline, _ int) decimal.Decimal { return k.Close })
	lows := lo.Map(kLines, func(k exchange.Kline, _ int) decimal.Decimal { return k.Low })

	n := len(kLines)
	currVolume := volumes[n-1]
	currClose := closes[n-1]

	// 1. Volume spike: current volume vs the 20 bars before it.
	avgVolume := decimalx.Avg(volumes[n-1-volumeLookback : n-1])
	if avgVolume.LessThanOrEqual(decimal.Zero) {
		return SpikeSignal{}, false
	}
	ratio := currVolume.Div(avgVolume)
	if ratio.LessThan(d.multiplier) {
		return SpikeSignal{}, false
	}

	// 2. Volume still rising, so a single stray candle does not alert.
	if !currVolume.GreaterThan(volumes[n-2]) {
		return SpikeSignal{}, false
	}

	// 3. Not already pumped: close at most 5% above the 10-bar average.
	avgClose := decimalx.Avg(closes[n-1-priceLookback : n-1])
	if currClose.GreaterThan(avgClose.Mul(pumpTolerance)) {
		return SpikeSignal{}, false
	}

	// 4. Near the recent low: close within 40% of the 30-bar minimum.
	lowWindow := lows
	if len(lows) > lowLookback {
		lowWindow = lows[len(lows)-lowLookback:]
	}
	low := decimalx.Min(lowWindow)
	if low.LessThanOrEqual(decimal.Zero) {
		return SpikeSignal{}, false
	}
	pctFromLow := currClose.Sub(low).Div(low).Mul(hundred)
	if pctFromLow.GreaterThan(maxPctFromLow) {
		return SpikeSignal{}, false
	}

	return SpikeSignal{
		VolumeRatio: ratio.Round(2),
		PctAboveLow: pctFromLow.Round(1),
	}, true
}
