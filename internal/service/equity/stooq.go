package equity

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

const stooqBaseURL = "https://stooq.com"

var stooqIntervals = map[exchange.Interval]string{
	exchange.Interval1d: "d",
	exchange.Interval1w: "w",
}

var (
	_ exchange.MarketService   = (*StooqService)(nil)
	_ exchange.IntervalSupport = (*StooqService)(nil)
)

// StooqService is the CSV fallback behind Yahoo. Stooq has no reliable
// intraday data, so hourly requests are declined and the resolver skips
// this source entirely.
type StooqService struct {
	cli     *http.Client
	baseURL string
}

type StooqOption func(svc *StooqService)

func WithStooqBaseURL(baseURL string) StooqOption {
	return func(svc *StooqService) {
		svc.baseURL = baseURL
	}
}

func NewStooqService(cli *http.Client, opts ...StooqOption) *StooqService {
	svc := &StooqService{cli: cli, baseURL: stooqBaseURL}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *StooqService) Name() string {
	return "Stooq"
}

func (svc *StooqService) SupportsInterval(interval exchange.Interval) bool {
	_, ok := stooqIntervals[interval]
	return ok
}

// GetKlines downloads the daily/weekly CSV export. Rows arrive oldest
// first as Date,Open,High,Low,Close,Volume and stay in that order.
func (svc *StooqService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	code, ok := stooqIntervals[req.Interval]
	if !ok {
		return nil, fmt.Errorf("stooq: unsupported interval %s", req.Interval)
	}

	// Stooq ticker format: lowercase, class shares with a dot, .us suffix.
	ticker := strings.ToLower(strings.ReplaceAll(req.Symbol.Base, "-", ".")) + ".us"
	url := fmt.Sprintf("%s/q/d/l/?s=%s&i=%s", svc.baseURL, ticker, code)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Referer", "https://stooq.com/")
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq: export returned %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("stooq: no data for %s", req.Symbol.Base)
	}

	kLines := make([]exchange.Kline, 0, len(records)-1)
	for _, row := range records[1:] { // skip header
		k, ok := convertStooqRow(row)
		if !ok {
			continue
		}
		kLines = append(kLines, k)
	}
	return kLines, nil
}

func convertStooqRow(row []string) (exchange.Kline, bool) {
	if len(row) < 5 {
		return exchange.Kline{}, false
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
	if err != nil {
		return exchange.Kline{}, false
	}

	vals := make([]decimal.Decimal, 4)
	for i, raw := range row[1:5] {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return exchange.Kline{}, false
		}
		vals[i] = d
	}

	k := exchange.Kline{
		OpenTime: day.UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
	}
	if len(row) > 5 {
		if vol, err := decimal.NewFromString(strings.TrimSpace(row[5])); err == nil {
			k.Volume = vol
		}
	}
	return k, true
}
