package equity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// yahooIntervals maps canonical intervals to Yahoo chart codes, and
// yahooRanges picks a history window wide enough for spike analysis.
var (
	yahooIntervals = map[exchange.Interval]string{
		exchange.Interval1h: "60m",
		exchange.Interval4h: "60m", // Yahoo has no 4h buckets
		exchange.Interval1d: "1d",
		exchange.Interval1w: "1wk",
	}
	yahooRanges = map[string]string{
		"60m": "730d",
		"1d":  "2y",
		"1wk": "4y",
	}
)

var _ exchange.MarketService = (*YahooService)(nil)

// YahooService is the primary equity candle source.
type YahooService struct {
	cli     *http.Client
	baseURL string
}

type YahooOption func(svc *YahooService)

func WithYahooBaseURL(baseURL string) YahooOption {
	return func(svc *YahooService) {
		svc.baseURL = baseURL
	}
}

func NewYahooService(cli *http.Client, opts ...YahooOption) *YahooService {
	svc := &YahooService{cli: cli, baseURL: yahooBaseURL}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *YahooService) Name() string {
	return "Yahoo"
}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// GetKlines fetches the Yahoo chart endpoint. The payload carries
// parallel arrays (timestamps plus one quote block); rows with a null
// price are dropped, null volume becomes zero.
func (svc *YahooService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	code, ok := yahooIntervals[req.Interval]
	if !ok {
		return nil, fmt.Errorf("yahoo: unsupported interval %s", req.Interval)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		svc.baseURL, req.Symbol.Base, code, yahooRanges[code])
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: chart returned %d", resp.StatusCode)
	}

	var body yahooChartResp
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: empty chart result for %s", req.Symbol.Base)
	}

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	kLines := make([]exchange.Kline, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		volume := decimal.Zero
		if v := at(quote.Volume, i); v != nil {
			volume = decimal.NewFromFloat(*v)
		}
		kLines = append(kLines, exchange.Kline{
			OpenTime: time.Unix(ts, 0).UTC(),
			Open:     decimal.NewFromFloat(*o),
			High:     decimal.NewFromFloat(*h),
			Low:      decimal.NewFromFloat(*l),
			Close:    decimal.NewFromFloat(*c),
			Volume:   volume,
		})
	}
	return kLines, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
