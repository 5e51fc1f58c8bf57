package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

const defaultBaseURL = "https://api.kucoin.com"

var intervalCodes = map[exchange.Interval]string{
	exchange.Interval1h: "1hour",
	exchange.Interval4h: "4hour",
	exchange.Interval1d: "1day",
	exchange.Interval1w: "1week",
}

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli     *http.Client
	limiter *rate.Limiter
	baseURL string
	now     func() time.Time
}

type Option func(svc *MarketService)

func WithBaseURL(baseURL string) Option {
	return func(svc *MarketService) {
		svc.baseURL = baseURL
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(svc *MarketService) {
		svc.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewMarketService(cli *http.Client, opts ...Option) *MarketService {
	svc := &MarketService{
		cli:     cli,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *MarketService) Name() string {
	return "KuCoin"
}

type candlesResp struct {
	Code string     `json:"code"`
	Data [][]string `json:"data"`
}

// GetKlines fetches spot candles. KuCoin returns rows newest first as
// [time, open, close, high, low, volume, turnover] with time in unix
// seconds; the series is reversed and remapped to oldest-first OHLCV.
func (svc *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	if err := svc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	code, ok := intervalCodes[req.Interval]
	if !ok {
		return nil, fmt.Errorf("kucoin: unsupported interval %s", req.Interval)
	}

	end := svc.now()
	start := end.Add(-time.Duration(req.Limit) * req.Interval.Duration())

	q := url.Values{}
	q.Set("symbol", req.Symbol.ToDashString())
	q.Set("type", code)
	q.Set("startAt", strconv.FormatInt(start.Unix(), 10))
	q.Set("endAt", strconv.FormatInt(end.Unix(), 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		svc.baseURL+"/api/v1/market/candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kucoin: candles returned %d", resp.StatusCode)
	}

	var body candlesResp
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	kLines := make([]exchange.Kline, 0, len(body.Data))
	for i := len(body.Data) - 1; i >= 0; i-- {
		k, ok := convertRow(body.Data[i])
		if !ok {
			slog.Debug("kucoin: dropping malformed candle row", "symbol", req.Symbol.ToString())
			continue
		}
		kLines = append(kLines, k)
	}
	return kLines, nil
}

func convertRow(row []string) (exchange.Kline, bool) {
	if len(row) < 6 {
		return exchange.Kline{}, false
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return exchange.Kline{}, false
	}

	vals := make([]decimal.Decimal, 5)
	for i, raw := range row[1:6] {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return exchange.Kline{}, false
		}
		vals[i] = d
	}

	// Row order is open, close, high, low, volume.
	return exchange.Kline{
		OpenTime: time.Unix(ts, 0).UTC(),
		Open:     vals[0],
		Close:    vals[1],
		High:     vals[2],
		Low:      vals[3],
		Volume:   vals[4],
	}, true
}
