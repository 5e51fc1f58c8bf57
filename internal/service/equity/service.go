// Package equity serves stock candles through a Yahoo-first,
// Stooq-fallback chain, fanned out over many tickers at once.
package equity

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/exchange/fallback"
)

const (
	defaultWorkers = 40
	fetchTimeout   = 8 * time.Second
)

type Service struct {
	resolver *fallback.Resolver
	workers  int
}

func NewService(primary, secondary exchange.MarketService) *Service {
	return &Service{
		resolver: fallback.NewResolver(
			[]exchange.MarketService{primary, secondary},
			fallback.WithTimeout(fetchTimeout),
		),
		workers: defaultWorkers,
	}
}

// FetchAll resolves candles for every ticker concurrently. Tickers with
// no available source are absent from the result.
func (s *Service) FetchAll(ctx context.Context, tickers []string, interval exchange.Interval) map[string]fallback.Result {
	symbols := lo.Map(tickers, func(t string, _ int) exchange.Symbol {
		return exchange.Symbol{Base: t}
	})
	return s.resolver.ResolveBatch(ctx, symbols, interval, 0, s.workers)
}
