package okx

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

const (
	defaultBaseURL = "https://www.okx.com"

	// history-candles caps limit at 300 per request.
	maxLimit = 300
)

var barCodes = map[exchange.Interval]string{
	exchange.Interval1h: "1H",
	exchange.Interval4h: "4H",
	exchange.Interval1d: "1D",
	exchange.Interval1w: "1W",
}

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli     *http.Client
	limiter *rate.Limiter
	baseURL string
}

type Option func(svc *MarketService)

func WithBaseURL(baseURL string) Option {
	return func(svc *MarketService) {
		svc.baseURL = baseURL
	}
}

func NewMarketService(cli *http.Client, opts ...Option) *MarketService {
	svc := &MarketService{
		cli:     cli,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *MarketService) Name() string {
	return "OKX"
}

type candlesResp struct {
	Code string     `json:"code"`
	Data [][]string `json:"data"`
}

// GetKlines fetches spot candles. OKX returns rows newest first as
// [ts, open, high, low, close, volume, ...] with ts in unix
// milliseconds; the series is reversed to oldest-first.
func (svc *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	if err := svc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	bar, ok := barCodes[req.Interval]
	if !ok {
		return nil, fmt.Errorf("okx: unsupported interval %s", req.Interval)
	}
	limit := req.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	q := url.Values{}
	q.Set("instId", req.Symbol.ToDashString())
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		svc.baseURL+"/api/v5/market/history-candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: candles returned %d", resp.StatusCode)
	}

	var body candlesResp
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	kLines := make([]exchange.Kline, 0, len(body.Data))
	for i := len(body.Data) - 1; i >= 0; i-- {
		k, ok := convertRow(body.Data[i])
		if !ok {
			slog.Debug("okx: dropping malformed candle row", "symbol", req.Symbol.ToString())
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

	return exchange.Kline{
		OpenTime: time.UnixMilli(ts).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, true
}
