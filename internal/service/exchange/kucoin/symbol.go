package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

var _ exchange.SymbolService = (*SymbolService)(nil)

type SymbolService struct {
	cli     *http.Client
	limiter *rate.Limiter
	baseURL string
}

func NewSymbolService(cli *http.Client, opts ...SymbolOption) *SymbolService {
	svc := &SymbolService{
		cli:     cli,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type SymbolOption func(svc *SymbolService)

func WithSymbolBaseURL(baseURL string) SymbolOption {
	return func(svc *SymbolService) {
		svc.baseURL = baseURL
	}
}

func (svc *SymbolService) Name() string {
	return "KuCoin"
}

type symbolsResp struct {
	Code string `json:"code"`
	Data []struct {
		BaseCurrency  string `json:"baseCurrency"`
		QuoteCurrency string `json:"quoteCurrency"`
		EnableTrading bool   `json:"enableTrading"`
	} `json:"data"`
}

// GetAllSymbols lists USDT spot pairs currently open for trading.
func (svc *SymbolService) GetAllSymbols(ctx context.Context) ([]exchange.Symbol, error) {
	if err := svc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/api/v2/symbols", nil)
	if err != nil {
		return nil, err
	}
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kucoin: symbols returned %d", resp.StatusCode)
	}

	var body symbolsResp
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	symbols := make([]exchange.Symbol, 0, len(body.Data))
	for _, s := range body.Data {
		if s.QuoteCurrency != "USDT" || !s.EnableTrading {
			continue
		}
		symbols = append(symbols, exchange.Symbol{Base: s.BaseCurrency, Quote: s.QuoteCurrency})
	}
	return symbols, nil
}
