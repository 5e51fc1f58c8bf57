package binance

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/samber/lo"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
)

var _ exchange.SymbolService = (*SymbolService)(nil)

type SymbolService struct {
	cli *binance.Client
}

func NewSymbolService(cli *binance.Client) *SymbolService {
	return &SymbolService{cli: cli}
}

func (svc *SymbolService) Name() string {
	return "Binance"
}

// GetAllSymbols lists USDT spot pairs that are open for trading.
func (svc *SymbolService) GetAllSymbols(ctx context.Context) ([]exchange.Symbol, error) {
	info, err := svc.cli.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}

	tradable := lo.Filter(info.Symbols, func(s binance.Symbol, _ int) bool {
		return s.QuoteAsset == "USDT" && s.Status == "TRADING" && s.IsSpotTradingAllowed
	})
	return lo.Map(tradable, func(s binance.Symbol, _ int) exchange.Symbol {
		return exchange.Symbol{Base: s.BaseAsset, Quote: s.QuoteAsset}
	}), nil
}
