package okx

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

type SymbolOption func(svc *SymbolService)

func WithSymbolBaseURL(baseURL string) SymbolOption {
	return func(svc *SymbolService) {
		svc.baseURL = baseURL
	}
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

func (svc *SymbolService) Name() string {
	return "OKX"
}

type instrumentsResp struct {
	Code string `json:"code"`
	Data []struct {
		BaseCcy  string `json:"baseCcy"`
		QuoteCcy string `json:"quoteCcy"`
		State    string `json:"state"`
	} `json:"data"`
}

// GetAllSymbols lists live USDT spot instruments.
func (svc *SymbolService) GetAllSymbols(ctx context.Context) ([]exchange.Symbol, error) {
	if err := svc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		svc.baseURL+"/api/v5/public/instruments?instType=SPOT", nil)
	if err != nil {
		return nil, err
	}
	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: instruments returned %d", resp.StatusCode)
	}

	var body instrumentsResp
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	symbols := make([]exchange.Symbol, 0, len(body.Data))
	for _, inst := range body.Data {
		if inst.QuoteCcy != "USDT" || inst.State != "live" {
			continue
		}
		symbols = append(symbols, exchange.Symbol{Base: inst.BaseCcy, Quote: inst.QuoteCcy})
	}
	return symbols, nil
}
