package binance

import (
	"context"
	"log/slog"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

var _ exchange.MarketService = (*FuturesMarketService)(nil)

// FuturesMarketService serves USD-M perpetual candles. It sits last in
// the crypto fallback chain: some small caps trade on futures after
// delisting from spot.
type FuturesMarketService struct {
	cli *futures.Client
}

func NewFuturesMarketService(cli *futures.Client) *FuturesMarketService {
	return &FuturesMarketService{cli: cli}
}

func (m *FuturesMarketService) Name() string {
	return "Binance Futures"
}

func (m *FuturesMarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	svc := m.cli.NewKlinesService().
		Symbol(req.Symbol.ToString()).
		Interval(req.Interval.ToString())
	if req.Limit > 0 {
		svc.Limit(req.Limit)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}

	kLines := make([]exchange.Kline, 0, len(res))
	for _, k := range res {
		converted, ok := convertKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if !ok {
			slog.Debug("binance futures: dropping malformed candle row", "symbol", req.Symbol.ToString())
			continue
		}
		kLines = append(kLines, converted)
	}
	return kLines, nil
}
