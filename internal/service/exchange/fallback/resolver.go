// Package fallback tries candle sources in a fixed priority order and
// settles on the first one that returns enough history.
package fallback

import (
	"context"
	"log/slog"
	"time"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

const (
	// MinKlines is the shortest series worth handing downstream.
	MinKlines = 20

	defaultTimeout = 8 * time.Second
)

// Result is a resolved candle series tagged with the source that
// produced it.
type Result struct {
	Klines []exchange.Kline
	Source string
}

// Resolver walks an ordered source chain. Transport errors, malformed
// payloads and short series are all soft failures: log, move on. Only
// when every source falls through does Resolve report unavailable.
type Resolver struct {
	sources []exchange.MarketService
	timeout time.Duration
	minLen  int
}

type Option func(r *Resolver)

func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

func WithMinKlines(n int) Option {
	return func(r *Resolver) {
		r.minLen = n
	}
}

// NewResolver builds a resolver over sources in priority order.
func NewResolver(sources []exchange.MarketService, opts ...Option) *Resolver {
	r := &Resolver{
		sources: sources,
		timeout: defaultTimeout,
		minLen:  MinKlines,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first sufficient series in the chain, or false
// when all sources are exhausted.
func (r *Resolver) Resolve(ctx context.Context, req exchange.GetKlinesReq) (Result, bool) {
	for _, src := range r.sources {
		if sup, ok := src.(exchange.IntervalSupport); ok && !sup.SupportsInterval(req.Interval) {
			continue
		}

		kLines, err := r.fetch(ctx, src, req)
		if err != nil {
			slog.Warn("candle source failed, trying next",
				"source", src.Name(), "symbol", req.Symbol.ToString(), "error", err)
			continue
		}
		if len(kLines) < r.minLen {
			slog.Debug("candle source returned short series, trying next",
				"source", src.Name(), "symbol", req.Symbol.ToString(), "klines", len(kLines))
			continue
		}
		return Result{Klines: kLines, Source: src.Name()}, true
	}
	return Result{}, false
}

func (r *Resolver) fetch(ctx context.Context, src exchange.MarketService, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return src.GetKlines(ctx, req)
}
