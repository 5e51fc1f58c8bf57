package binance

import (
	"context"
	"log/slog"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

var _ exchange.MarketService = (*MarketService)(nil)

// MarketService serves spot candles. Binance returns rows oldest first
// already, so no reversal is needed.
type MarketService struct {
	cli *binance.Client
}

func NewMarketService(cli *binance.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) Name() string {
	return "Binance"
}

func (m *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	svc := m.cli.NewKlinesService().
		Symbol(req.Symbol.ToString()). // Binance uses BTCUSDT, not BTC-USDT
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
			slog.Debug("binance: dropping malformed candle row", "symbol", req.Symbol.ToString())
			continue
		}
		kLines = append(kLines, converted)
	}
	return kLines, nil
}

func convertKline(openTime int64, open, high, low, close, volume string) (exchange.Kline, bool) {
	fields := []string{open, high, low, close}
	vals, ok := parseDecimals(fields)
	if !ok {
		return exchange.Kline{}, false
	}
	k := exchange.Kline{
		OpenTime: time.UnixMilli(openTime).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
	}
	// Missing volume defaults to zero rather than dropping the row.
	if vol, volOK := parseDecimals([]string{volume}); volOK {
		k.Volume = vol[0]
	}
	return k, true
}
