// Package constituent proxies index membership lists scraped from
// iShares ETF holdings exports.
package constituent

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	russellPath = "/us/products/239707/ishares-russell-2000-etf/1467271812596.ajax?fileType=csv&fileName=IWM_holdings&dataType=fund"
	sp500Path   = "/us/products/239726/ishares-core-sp-500-etf/1467271812596.ajax?fileType=csv&fileName=IVV_holdings&dataType=fund"

	defaultBaseURL = "https://www.ishares.com"
	fetchTimeout   = 20 * time.Second

	// Russell membership barely moves intra-day; cache for 24h.
	cacheTTL = 24 * time.Hour

	// A plausible IWM export carries ~2000 names; far fewer means the
	// CSV layout changed under us.
	minRussellTickers = 100

	sp500Cap = 505
)

// nonEquityTickers shows up in the cash/futures footer of holdings
// exports.
var nonEquityTickers = map[string]struct{}{
	"TICKER": {}, "NAME": {}, "CASH": {}, "USD": {}, "EUR": {}, "GBP": {},
	"CHF": {}, "JPY": {}, "XTSLA": {}, "PUT": {}, "CALL": {}, "TOTAL": {}, "-": {},
}

type Service struct {
	cli     *http.Client
	baseURL string
	now     func() time.Time

	mu            sync.Mutex
	russellCache  []string
	russellCached time.Time
}

type Option func(svc *Service)

func WithBaseURL(baseURL string) Option {
	return func(svc *Service) {
		svc.baseURL = baseURL
	}
}

func NewService(cli *http.Client, opts ...Option) *Service {
	svc := &Service{
		cli:     cli,
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Russell2000 returns the IWM holdings tickers, served from cache when
// fresh. The second return reports whether the cache answered.
func (svc *Service) Russell2000(ctx context.Context) ([]string, bool, error) {
	svc.mu.Lock()
	if svc.russellCache != nil && svc.now().Sub(svc.russellCached) < cacheTTL {
		cached := svc.russellCache
		svc.mu.Unlock()
		return cached, true, nil
	}
	svc.mu.Unlock()

	tickers, err := svc.fetchHoldings(ctx, russellPath)
	if err != nil {
		return nil, false, err
	}
	if len(tickers) < minRussellTickers {
		return nil, false, fmt.Errorf("only parsed %d tickers, possible format change", len(tickers))
	}

	svc.mu.Lock()
	svc.russellCache = tickers
	svc.russellCached = svc.now()
	svc.mu.Unlock()
	return tickers, false, nil
}

// SP500 returns the IVV holdings tickers, capped at the index size.
func (svc *Service) SP500(ctx context.Context) ([]string, error) {
	tickers, err := svc.fetchHoldings(ctx, sp500Path)
	if err != nil {
		return nil, err
	}
	if len(tickers) > sp500Cap {
		tickers = tickers[:sp500Cap]
	}
	return tickers, nil
}

func (svc *Service) fetchHoldings(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Referer", "https://www.ishares.com/")
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ishares returned %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return extractTickers(records), nil
}

// extractTickers walks an iShares holdings CSV: preamble rows until
// the first real ticker, equity rows, then a cash/futures footer. Ten
// consecutive junk rows end the equity section.
func extractTickers(records [][]string) []string {
	var (
		tickers            []string
		seen               = map[string]struct{}{}
		dataStarted        bool
		consecutiveInvalid int
	)

	for _, row := range records {
		if len(row) == 0 {
			continue
		}
		ticker := strings.ToUpper(strings.Trim(strings.TrimSpace(row[0]), `"`))

		if !dataStarted {
			if isEquityTicker(ticker) {
				dataStarted = true
			} else {
				continue
			}
		}

		if _, junk := nonEquityTickers[ticker]; ticker == "" || junk {
			consecutiveInvalid++
			if consecutiveInvalid > 10 {
				break
			}
			continue
		}
		consecutiveInvalid = 0

		if !isEquityTicker(ticker) {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		tickers = append(tickers, ticker)
	}
	return tickers
}

// isEquityTicker accepts standard US equity symbols: 1-6 chars, alpha
// with an optional hyphen or dot for class shares (BRK-B, BF.B).
func isEquityTicker(ticker string) bool {
	if _, junk := nonEquityTickers[ticker]; junk {
		return false
	}
	clean := strings.NewReplacer("-", "", ".", "").Replace(ticker)
	if len(ticker) < 1 || len(ticker) > 6 || clean == "" {
		return false
	}
	for _, r := range clean {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
