package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol identifies one tradable asset. Crypto symbols carry a quote
// currency (BTC/USDT); equities leave Quote empty (AAPL).
type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s Symbol) ToDashString() string {
	if s.Quote == "" {
		return s.Base
	}
	return fmt.Sprintf("%s-%s", s.Base, s.Quote)
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
	Interval1w Interval = "1w"
)

// ParseInterval maps a user-supplied interval string onto a known
// Interval, defaulting to daily for anything unrecognized.
func ParseInterval(s string) Interval {
	switch Interval(s) {
	case Interval1h, Interval4h, Interval1d, Interval1w:
		return Interval(s)
	default:
		return Interval1d
	}
}

// Duration returns the bucket width of the interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1w:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Kline is one OHLCV bucket. Every source adapter converts its native
// payload into this shape, oldest bucket first.
type Kline struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

type GetKlinesReq struct {
	Symbol   Symbol
	Interval Interval
	Limit    int
}

// MarketService is implemented by every candle source adapter.
// GetKlines returns an oldest-first series; a series shorter than the
// caller's minimum is a negative result, not an error.
type MarketService interface {
	GetKlines(ctx context.Context, req GetKlinesReq) ([]Kline, error)
	Name() string
}

// IntervalSupport lets a source declare intervals it cannot serve.
// Sources without this are assumed to support everything.
type IntervalSupport interface {
	SupportsInterval(interval Interval) bool
}

// SymbolService lists tradable instruments from one exchange.
type SymbolService interface {
	GetAllSymbols(ctx context.Context) ([]Symbol, error)
	Name() string
}
