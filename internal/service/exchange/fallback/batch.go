package fallback

import (
	"context"
	"sync"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

// ResolveBatch resolves many symbols concurrently through the chain
// with a bounded worker pool. Symbols whose sources are all exhausted
// are simply absent from the result map.
func (r *Resolver) ResolveBatch(ctx context.Context, symbols []exchange.Symbol, interval exchange.Interval, limit, workers int) map[string]Result {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Result, len(symbols))
		sem     = make(chan struct{}, workers)
	)

	for _, symbol := range symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol exchange.Symbol) {
			defer wg.Done()
			defer func() { <-sem }()

			res, ok := r.Resolve(ctx, exchange.GetKlinesReq{
				Symbol:   symbol,
				Interval: interval,
				Limit:    limit,
			})
			if !ok {
				return
			}
			mu.Lock()
			results[symbol.Base] = res
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return results
}
